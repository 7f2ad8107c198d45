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

package eeprom

import (
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

/*
	The serial protocol for accessing the EEPROM of a connected controller.
	Every request is answered before the next one is sent.

		's'                 ->  size high byte, size low byte
		'r' addr_hi addr_lo ->  value
		'w' addr_hi addr_lo val
		                    ->  value read back after the write

	The controller performs the write itself only when the cell does not
	already hold the value.
*/
const (
	cmdSize  = 's'
	cmdRead  = 'r'
	cmdWrite = 'w'
)

// OpenSerial opens the serial port and connects to the controller.
func OpenSerial(port string, baudRate uint) (*Serial, error) {

	log.WithFields(log.Fields{
		"port": port, "baud": baudRate}).Info("opening serial port")

	p, err := serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s: %v", port, err)
	}

	s, err := NewSerial(p)
	if err != nil {
		p.Close()
		return nil, err
	}

	s.closer = p
	return s, nil
}

// NewSerial creates a store that talks to a controller over rw. The size of
// the controller's EEPROM is queried right away.
func NewSerial(rw io.ReadWriter) (*Serial, error) {

	s := &Serial{rw: rw}

	resp, err := s.request(2, cmdSize)
	if err != nil {
		return nil, fmt.Errorf("cannot query EEPROM size: %v", err)
	}

	s.length = int(resp[0])<<8 | int(resp[1])
	log.WithField("size", s.length).Debug("serial EEPROM connected")

	return s, nil
}

//
type Serial struct {
	rw     io.ReadWriter
	closer io.Closer
	length int
}

//
func (s *Serial) Size() int {
	return s.length
}

//
func (s *Serial) Load(addr int) byte {

	if addr < 0 || addr >= s.length {
		return 0
	}

	resp, err := s.request(1, cmdRead, byte(addr>>8), byte(addr))
	if err != nil {
		log.WithField("addr", addr).Errorf("serial read failed: %v", err)
		return 0
	}

	return resp[0]
}

//
func (s *Serial) Update(addr int, val byte) bool {

	if addr < 0 || addr >= s.length {
		return false
	}

	resp, err := s.request(1, cmdWrite, byte(addr>>8), byte(addr), val)
	if err != nil {
		log.WithField("addr", addr).Errorf("serial write failed: %v", err)
		return false
	}

	return resp[0] == val
}

//
func (s *Serial) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

//
func (s *Serial) request(respLen int, req ...byte) ([]byte, error) {

	if _, err := s.rw.Write(req); err != nil {
		return nil, err
	}

	resp := make([]byte, respLen)
	if _, err := io.ReadFull(s.rw, resp); err != nil {
		return nil, err
	}

	return resp, nil
}
