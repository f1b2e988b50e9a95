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

// RTURequest is a request ADU on a serial line: a station address followed
// by the request PDU.
type RTURequest struct {
	Slave Slave
	Request
}

// RTUResponse is a response ADU on a serial line.
type RTUResponse struct {
	Slave Slave
	ResponsePDU
}

// rtuRequestPDULen derives the request PDU length from the first PDU bytes.
// RTU frames carry no length field, so the length is a function of the
// function code plus, for the multi-write variants, a byte count inside the
// payload. It returns ErrIncompleteFrame when pdu does not yet reach the
// byte that decides the length.
func rtuRequestPDULen(pdu []byte) (int, error) {
	if len(pdu) == 0 {
		return 0, ErrIncompleteFrame
	}
	switch fc := FunctionCode(pdu[0]); fc {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters,
		FCReadInputRegisters, FCWriteSingleCoil, FCWriteSingleRegister:
		return 5, nil
	case FCReadExceptionStatus, FCGetCommEventCounter, FCGetCommEventLog,
		FCReportServerID:
		return 1, nil
	case FCWriteMultipleCoils, FCWriteMultipleRegisters:
		if len(pdu) < 6 {
			return 0, ErrIncompleteFrame
		}
		return 6 + int(pdu[5]), nil
	case FCReadWriteMultipleRegs:
		if len(pdu) < 10 {
			return 0, ErrIncompleteFrame
		}
		return 10 + int(pdu[9]), nil
	case FCMaskWriteRegister:
		return 7, nil
	case FCReadFIFOQueue:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: cannot size request with function code 0x%02X",
			ErrInvalidData, pdu[0])
	}
}

// rtuResponsePDULen is the response-side counterpart of rtuRequestPDULen.
// Exception responses (code 0x80..0xAB) are always two bytes.
func rtuResponsePDULen(pdu []byte) (int, error) {
	if len(pdu) == 0 {
		return 0, ErrIncompleteFrame
	}
	fc := FunctionCode(pdu[0])
	if fc.IsException() {
		// Exception replies exist for function codes 0x01..0x2B only.
		if fc == exceptionBit || fc > FunctionCode(0x2B).WithException() {
			return 0, fmt.Errorf("%w: cannot size response with function code 0x%02X",
				ErrInvalidData, pdu[0])
		}
		return 2, nil
	}
	switch fc {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters,
		FCReadInputRegisters, FCGetCommEventLog, FCReportServerID,
		FCReadWriteMultipleRegs:
		if len(pdu) < 2 {
			return 0, ErrIncompleteFrame
		}
		return 2 + int(pdu[1]), nil
	case FCWriteSingleCoil, FCWriteSingleRegister, FCGetCommEventCounter,
		FCWriteMultipleCoils, FCWriteMultipleRegisters:
		return 5, nil
	case FCReadExceptionStatus:
		return 2, nil
	case FCMaskWriteRegister:
		return 7, nil
	case FCReadFIFOQueue:
		if len(pdu) < 3 {
			return 0, ErrIncompleteFrame
		}
		return 3 + int(binary.BigEndian.Uint16(pdu[1:3])), nil
	default:
		return 0, fmt.Errorf("%w: cannot size response with function code 0x%02X",
			ErrInvalidData, pdu[0])
	}
}

// decodeRTUFrame locates one RTU frame at the start of buf using sizer to
// derive the PDU length, verifies the CRC trailer, and returns the station
// address, the PDU slice and the frame location.
func decodeRTUFrame(buf []byte, sizer func([]byte) (int, error)) (Slave, []byte, FrameLocation, error) {
	if len(buf) < MinRTUFrameLength {
		return 0, nil, FrameLocation{}, ErrIncompleteFrame
	}
	pduLen, err := sizer(buf[1:])
	if err != nil {
		return 0, nil, FrameLocation{}, err
	}
	frameLen := pduLen + rtuOverhead
	if frameLen > MaxRTUFrameLength {
		return 0, nil, FrameLocation{}, fmt.Errorf("%w: frame of %d bytes exceeds RTU limit",
			ErrInvalidData, frameLen)
	}
	if len(buf) < frameLen {
		return 0, nil, FrameLocation{}, ErrIncompleteFrame
	}
	expected := CRC16(buf[:frameLen-rtuCRCLength])
	actual := binary.BigEndian.Uint16(buf[frameLen-rtuCRCLength : frameLen])
	if expected != actual {
		return 0, nil, FrameLocation{}, &CRCError{Expected: expected, Actual: actual}
	}
	loc := FrameLocation{Start: 0, End: frameLen}
	return Slave(buf[0]), buf[1 : 1+pduLen], loc, nil
}

// DecodeRTURequest decodes one RTU request frame at the start of buf.
// Trailing bytes beyond the frame are ignored; loc reports where the frame
// ends so the caller can advance its buffer. ErrIncompleteFrame means buf is
// a valid prefix and more bytes are needed.
func DecodeRTURequest(buf []byte) (RTURequest, FrameLocation, error) {
	slave, pdu, loc, err := decodeRTUFrame(buf, rtuRequestPDULen)
	if err != nil {
		return RTURequest{}, FrameLocation{}, err
	}
	req, err := ParseRequest(pdu)
	if err != nil {
		return RTURequest{}, FrameLocation{}, err
	}
	return RTURequest{Slave: slave, Request: req}, loc, nil
}

// DecodeRTUResponse decodes one RTU response frame at the start of buf.
func DecodeRTUResponse(buf []byte) (RTUResponse, FrameLocation, error) {
	slave, pdu, loc, err := decodeRTUFrame(buf, rtuResponsePDULen)
	if err != nil {
		return RTUResponse{}, FrameLocation{}, err
	}
	resp, err := ParseResponse(pdu)
	if err != nil {
		return RTUResponse{}, FrameLocation{}, err
	}
	return RTUResponse{Slave: slave, ResponsePDU: resp}, loc, nil
}

func encodeRTUFrame(slave Slave, pduLen int, buf []byte, encode func([]byte) (int, error)) (int, error) {
	if !slave.ValidStation() {
		return 0, fmt.Errorf("%w: station address %d out of range 0..%d",
			ErrInvalidData, uint8(slave), uint8(MaxStation))
	}
	frameLen := pduLen + rtuOverhead
	if frameLen > MaxRTUFrameLength {
		return 0, fmt.Errorf("%w: frame of %d bytes exceeds RTU limit",
			ErrInvalidData, frameLen)
	}
	if frameLen > len(buf) {
		return 0, ErrShortBuffer
	}
	buf[0] = byte(slave)
	n, err := encode(buf[1:])
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(buf[1+n:], CRC16(buf[:1+n]))
	return 1 + n + rtuCRCLength, nil
}

// EncodeRTURequest writes the request as an RTU frame with a CRC trailer and
// returns the number of bytes written.
func EncodeRTURequest(req RTURequest, buf []byte) (int, error) {
	return encodeRTUFrame(req.Slave, req.PDULen(), buf, req.Request.Encode)
}

// EncodeRTUResponse writes the response as an RTU frame with a CRC trailer
// and returns the number of bytes written.
func EncodeRTUResponse(resp RTUResponse, buf []byte) (int, error) {
	return encodeRTUFrame(resp.Slave, resp.PDULen(), buf, resp.ResponsePDU.Encode)
}
