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
	"encoding/binary"
	"fmt"
)

// Data is a read-only view of 16-bit register words stored big-endian inside
// a buffer the caller owns. Like Coils it holds no memory of its own; the
// view is valid only as long as the underlying buffer is untouched.
type Data struct {
	data     []byte
	quantity int
}

// DataFromWords writes words big-endian into buf and returns a Data view
// over it. buf must hold 2*len(words) bytes.
func DataFromWords(words []uint16, buf []byte) (Data, error) {
	if 2*len(words) > MaxPDUData {
		return Data{}, fmt.Errorf("%w: %d registers exceed the PDU payload limit",
			ErrInvalidData, len(words))
	}
	if 2*len(words) > len(buf) {
		return Data{}, ErrShortBuffer
	}
	for i, w := range words {
		binary.BigEndian.PutUint16(buf[2*i:], w)
	}
	return Data{data: buf[:2*len(words)], quantity: len(words)}, nil
}

// Len returns the number of register words in the view.
func (d Data) Len() int {
	return d.quantity
}

// IsEmpty reports whether the view holds no words.
func (d Data) IsEmpty() bool {
	return d.quantity == 0
}

// Get returns word idx. ok is false when idx is out of range.
func (d Data) Get(idx int) (word uint16, ok bool) {
	if idx < 0 || idx >= d.quantity {
		return 0, false
	}
	return binary.BigEndian.Uint16(d.data[2*idx:]), true
}

// CopyWords unpacks the register words into dst and returns the number of
// words written, at most min(len(dst), d.Len()).
func (d Data) CopyWords(dst []uint16) int {
	n := d.quantity
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = binary.BigEndian.Uint16(d.data[2*i:])
	}
	return n
}

// Payload returns the raw big-endian bytes as they appear on the wire.
func (d Data) Payload() []byte {
	return d.data
}

// copyTo writes the payload bytes into buf, which must be large enough.
func (d Data) copyTo(buf []byte) {
	copy(buf, d.data[:2*d.quantity])
}
