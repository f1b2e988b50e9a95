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

// Wire encoding of a single coil in write-single-coil PDUs.
const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// coilWord returns the 16-bit wire value for a coil state.
func coilWord(state bool) uint16 {
	if state {
		return coilOn
	}
	return coilOff
}

// coilFromWord converts a 16-bit wire value back to a coil state. Values
// other than 0xFF00 and 0x0000 are malformed.
func coilFromWord(v uint16) (bool, error) {
	switch v {
	case coilOn:
		return true, nil
	case coilOff:
		return false, nil
	}
	return false, fmt.Errorf("%w: coil value 0x%04X", ErrInvalidData, v)
}

// PackedCoilsLen returns the number of bytes needed to pack quantity coils,
// eight per byte.
func PackedCoilsLen(quantity int) int {
	return (quantity + 7) / 8
}

// Coils is a read-only view of bit-packed coil states inside a buffer the
// caller owns. Bits are packed LSB first: coil i lives at bit i%8 of byte
// i/8. The view holds no memory of its own and stays valid only as long as
// the underlying buffer does.
type Coils struct {
	data     []byte
	quantity int
}

// CoilsFromBools packs states into buf and returns a Coils view over it.
// buf must hold PackedCoilsLen(len(states)) bytes; unused high bits of the
// last byte are zeroed.
func CoilsFromBools(states []bool, buf []byte) (Coils, error) {
	packed := PackedCoilsLen(len(states))
	if packed > MaxPDUData {
		return Coils{}, fmt.Errorf("%w: %d coils exceed the PDU payload limit",
			ErrInvalidData, len(states))
	}
	if packed > len(buf) {
		return Coils{}, ErrShortBuffer
	}
	for i := range buf[:packed] {
		buf[i] = 0
	}
	for i, on := range states {
		if on {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	return Coils{data: buf[:packed], quantity: len(states)}, nil
}

// Len returns the number of coils in the view.
func (c Coils) Len() int {
	return c.quantity
}

// IsEmpty reports whether the view holds no coils.
func (c Coils) IsEmpty() bool {
	return c.quantity == 0
}

// PackedLen returns the number of payload bytes the coils occupy on the wire.
func (c Coils) PackedLen() int {
	return PackedCoilsLen(c.quantity)
}

// Get returns the state of coil idx. ok is false when idx is out of range.
func (c Coils) Get(idx int) (state, ok bool) {
	if idx < 0 || idx >= c.quantity {
		return false, false
	}
	return c.data[idx/8]>>(idx%8)&1 == 1, true
}

// CopyStates unpacks the coils into dst and returns the number of states
// written, at most min(len(dst), c.Len()).
func (c Coils) CopyStates(dst []bool) int {
	n := c.quantity
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = c.data[i/8]>>(i%8)&1 == 1
	}
	return n
}

// Payload returns the packed bytes as they appear on the wire.
func (c Coils) Payload() []byte {
	return c.data
}

// copyTo writes the packed bytes into buf, which must be large enough.
func (c Coils) copyTo(buf []byte) {
	copy(buf, c.data[:c.PackedLen()])
}

// UnpackCoils expands count bit-packed coils from src into dst.
func UnpackCoils(src []byte, count int, dst []bool) error {
	if count < 0 || len(dst) < count {
		return ErrShortBuffer
	}
	if PackedCoilsLen(count) > len(src) {
		return fmt.Errorf("%w: %d coils need %d bytes, have %d",
			ErrInvalidData, count, PackedCoilsLen(count), len(src))
	}
	for i := 0; i < count; i++ {
		dst[i] = src[i/8]>>(i%8)&1 == 1
	}
	return nil
}
