// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package modbus

import (
	"fmt"
	"io"
	"time"

	serial "github.com/hootrhino/goserial"
)

// SerialConfig describes a serial port for RTU traffic. Zero fields take
// the common Modbus defaults of 9600 baud, 8 data bits, 1 stop bit, no
// parity.
type SerialConfig struct {
	Address  string // port name, e.g. "/dev/ttyUSB0" or "COM3"
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // "N", "E" or "O"
	Timeout  time.Duration
}

// OpenSerial opens the serial port described by cfg and returns it as a
// byte stream ready for NewRTUScanner.
func OpenSerial(cfg SerialConfig) (io.ReadWriteCloser, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("modbus: serial port address is required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = 1
	}
	if cfg.Parity == "" {
		cfg.Parity = "N"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5000 * time.Millisecond
	}
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("modbus: open serial port %s: %w", cfg.Address, err)
	}
	return port, nil
}
