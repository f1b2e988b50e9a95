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
	"errors"
	"fmt"
)

// Decode and encode outcomes. Every condition on malformed or truncated
// input is reported through one of these; the codec never panics on
// untrusted bytes and never retries on its own.
var (
	// ErrIncompleteFrame means the buffer does not yet hold enough bytes
	// to locate or verify a frame. The caller should read more data and
	// call the decoder again with the grown buffer.
	ErrIncompleteFrame = errors.New("modbus: incomplete frame")

	// ErrInvalidData means a structurally malformed payload: byte counts
	// or quantities that disagree with the actual data, quantities beyond
	// the protocol limits, or reserved fields carrying unexpected values.
	ErrInvalidData = errors.New("modbus: invalid data")

	// ErrShortBuffer means the destination buffer cannot hold the encoded
	// frame. Nothing has been written when it is returned.
	ErrShortBuffer = errors.New("modbus: buffer too small")
)

// CRCError reports an RTU frame whose trailing checksum does not match the
// checksum computed over the received bytes. The frame must be discarded;
// resynchronization is up to the caller.
type CRCError struct {
	Expected uint16 // checksum computed over the frame bytes
	Actual   uint16 // checksum carried by the frame
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("modbus: CRC mismatch: expected 0x%04X, actual 0x%04X", e.Expected, e.Actual)
}
