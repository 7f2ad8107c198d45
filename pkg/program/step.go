/*
   KilnCtl - temperature profile controller
   Copyright (c) 2026, Alexander Vollschwitz

   This file is part of KilnCtl.

   KilnCtl is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   KilnCtl is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with KilnCtl. If not, see <http://www.gnu.org/licenses/>.
*/

package program

import (
	"fmt"
	"strings"
)

// Method determines how the temperature develops during a step.
type Method byte

const (
	// Linear ramps from the previous step's temperature to the step's
	// temperature over the step's duration.
	Linear Method = 0
	// Constant holds the step's temperature for the whole duration.
	Constant Method = 1
)

const (
	// MaxTemperature is the highest temperature a step can hold, limited by
	// the 7 bits available in the encoding.
	MaxTemperature = 0x7f
	// StepLength is the number of bytes of an encoded step.
	StepLength = 2
)

//
func (m Method) String() string {
	if m == Constant {
		return "constant"
	}
	return "linear"
}

//
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

//
func (m *Method) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "linear", "ramp", "0":
		*m = Linear
	case "constant", "hold", "1":
		*m = Constant
	default:
		return fmt.Errorf("unknown method: %s", text)
	}
	return nil
}

// Step is one waypoint of a program.
type Step struct {
	// Duration in minutes
	Duration    byte   `json:"duration" yaml:"duration"`
	Temperature byte   `json:"temperature" yaml:"temperature"`
	Method      Method `json:"method" yaml:"method"`
}

//
func (s Step) String() string {
	return fmt.Sprintf("%3d min %3d° %s", s.Duration, s.Temperature, s.Method)
}

// Encode packs a step into two bytes: bit 7 of the first byte is the method,
// bits 6-0 the temperature; the second byte is the duration.
func Encode(s Step) [StepLength]byte {
	var b0 byte
	if s.Method == Constant {
		b0 = 0x80
	}
	return [StepLength]byte{b0 | s.Temperature&MaxTemperature, s.Duration}
}

// Decode unpacks a step encoded by Encode.
func Decode(b0, b1 byte) Step {
	m := Linear
	if b0&0x80 != 0 {
		m = Constant
	}
	return Step{Duration: b1, Temperature: b0 & MaxTemperature, Method: m}
}
