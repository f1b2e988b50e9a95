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
	"strings"
)

// formatHex renders a byte slice as indexed hex, one entry per byte.
func formatHex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var builder strings.Builder
	for i, b := range data {
		if i > 0 {
			builder.WriteByte(' ')
		}
		fmt.Fprintf(&builder, "%02X[%02d]", b, i)
	}
	return builder.String()
}

// DumpRTUFrame renders an RTU frame as annotated hex for log output. The
// frame is not validated; whatever bytes are present are labeled as far as
// the structure allows.
func DumpRTUFrame(frame []byte) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "RTU frame (%d bytes): %s", len(frame), formatHex(frame))
	if len(frame) >= 1 {
		fmt.Fprintf(&builder, "\n  station: %d", frame[0])
	}
	if len(frame) >= 2 {
		fmt.Fprintf(&builder, "\n  function: %v", FunctionCode(frame[1]))
	}
	if len(frame) >= MinRTUFrameLength {
		fmt.Fprintf(&builder, "\n  pdu: %s", formatHex(frame[1:len(frame)-rtuCRCLength]))
		fmt.Fprintf(&builder, "\n  crc: 0x%04X", binary.BigEndian.Uint16(frame[len(frame)-rtuCRCLength:]))
	}
	return builder.String()
}

// DumpTCPFrame renders an MBAP frame as annotated hex for log output.
func DumpTCPFrame(frame []byte) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "TCP frame (%d bytes): %s", len(frame), formatHex(frame))
	if len(frame) >= TCPHeaderLength {
		fmt.Fprintf(&builder, "\n  transaction: %d", binary.BigEndian.Uint16(frame[0:2]))
		fmt.Fprintf(&builder, "\n  protocol: %d", binary.BigEndian.Uint16(frame[2:4]))
		fmt.Fprintf(&builder, "\n  length: %d", binary.BigEndian.Uint16(frame[4:6]))
		fmt.Fprintf(&builder, "\n  unit: %d", frame[6])
	}
	if len(frame) > TCPHeaderLength {
		fmt.Fprintf(&builder, "\n  function: %v", FunctionCode(frame[TCPHeaderLength]))
		fmt.Fprintf(&builder, "\n  pdu: %s", formatHex(frame[TCPHeaderLength:]))
	}
	return builder.String()
}
