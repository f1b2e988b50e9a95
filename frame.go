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

// Frame size limits from the Modbus specifications.
const (
	// MaxPDULength is the maximum size of a PDU: function code plus up to
	// 252 payload bytes.
	MaxPDULength = 253

	// MaxPDUData is the largest payload a single PDU can carry after the
	// function code and a count byte. Coils and Data containers are bounded
	// by it.
	MaxPDUData = 250

	// MaxRTUFrameLength is the maximum size of a serial-line frame:
	// station address + PDU + 2-byte CRC.
	MaxRTUFrameLength = 256

	// MinRTUFrameLength is the smallest complete serial-line frame:
	// station address + one-byte PDU + 2-byte CRC.
	MinRTUFrameLength = 4

	// TCPHeaderLength is the size of the MBAP header.
	TCPHeaderLength = 7

	// MaxTCPFrameLength is the maximum size of a TCP frame: MBAP header
	// plus PDU.
	MaxTCPFrameLength = TCPHeaderLength + MaxPDULength
)

const (
	rtuCRCLength = 2
	rtuOverhead  = 1 + rtuCRCLength // station address + CRC
)

// FrameLocation is the byte range of one decoded frame inside the buffer it
// was decoded from: Start is the index of the first frame byte, End is one
// past the last. The offsets are only meaningful against that exact buffer;
// after acting on the frame the caller discards buf[Start:End] and decodes
// again.
type FrameLocation struct {
	Start int
	End   int
}

// Len returns the number of bytes the frame occupies.
func (l FrameLocation) Len() int {
	return l.End - l.Start
}
