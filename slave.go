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

import "fmt"

// Slave identifies the addressed device: the station address on a serial
// line, or the unit identifier in a TCP MBAP header. The codec stamps it on
// encode and reports it on decode; whether a frame is "for me" is the
// caller's decision.
type Slave uint8

// Broadcast is the reserved serial-line broadcast address. A server must
// process a broadcast request but never reply to it. The codec itself does
// not suppress anything; it only gives the address a name.
const Broadcast Slave = 0

// MaxStation is the highest individual station address on a serial line.
// 248 through 255 are reserved. TCP unit identifiers use the full byte.
const MaxStation Slave = 247

// IsBroadcast reports whether s is the serial-line broadcast address.
func (s Slave) IsBroadcast() bool {
	return s == Broadcast
}

// ValidStation reports whether s is usable as an RTU station address,
// the broadcast address included.
func (s Slave) ValidStation() bool {
	return s <= MaxStation
}

func (s Slave) String() string {
	if s.IsBroadcast() {
		return "broadcast"
	}
	return fmt.Sprintf("slave %d", uint8(s))
}
