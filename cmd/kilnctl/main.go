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

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xelalexv/kilnctl/pkg/run"
)

//
func main() {

	root := &cobra.Command{
		Use:   "kilnctl",
		Short: "kiln program store & controller",
		Long: `
kilnctl manages the temperature programs of a kiln controller, stored in the
controller's EEPROM or in an image file, and fires them.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		&run.NewServe().Command,
		&run.NewStatus().Command,
		&run.NewFormat().Command,
		&run.NewLs().Command,
		&run.NewShow().Command,
		&run.NewPut().Command,
		&run.NewRm().Command,
		&run.NewTemp().Command,
		&run.NewDump().Command,
		&run.NewBackup().Command,
		&run.NewRestore().Command,
		&run.NewSearch().Command,
		&run.NewFire().Command,
		&run.NewVersion().Command,
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
