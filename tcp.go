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

// tcpProtocolID is the protocol identifier of every Modbus MBAP header.
const tcpProtocolID = 0

// TCPHeader is the MBAP header without its length field. The length is
// derived from the PDU on encode and consumed by the framing on decode, so
// callers never see it.
type TCPHeader struct {
	// TransactionID pairs a response with its request. The client picks it;
	// the server echoes it back.
	TransactionID uint16

	// Unit addresses a serial slave behind a gateway. For a plain TCP
	// server it is conventionally 1 or 0xFF.
	Unit Slave
}

// TCPRequest is a request ADU on a TCP connection: an MBAP header followed
// by the request PDU.
type TCPRequest struct {
	Header TCPHeader
	Request
}

// TCPResponse is a response ADU on a TCP connection.
type TCPResponse struct {
	Header TCPHeader
	ResponsePDU
}

// decodeMBAP reads the MBAP header at the start of buf and returns the
// header, the PDU slice and the frame location. The length field is the
// sole framing signal; no CRC exists on TCP.
func decodeMBAP(buf []byte) (TCPHeader, []byte, FrameLocation, error) {
	if len(buf) < TCPHeaderLength {
		return TCPHeader{}, nil, FrameLocation{}, ErrIncompleteFrame
	}
	if proto := binary.BigEndian.Uint16(buf[2:4]); proto != tcpProtocolID {
		return TCPHeader{}, nil, FrameLocation{}, fmt.Errorf("%w: protocol identifier 0x%04X is not Modbus",
			ErrInvalidData, proto)
	}
	// length counts the unit identifier plus the PDU
	length := int(binary.BigEndian.Uint16(buf[4:6]))
	if length < 2 || length > MaxPDULength+1 {
		return TCPHeader{}, nil, FrameLocation{}, fmt.Errorf("%w: MBAP length field %d out of range",
			ErrInvalidData, length)
	}
	frameLen := 6 + length
	if len(buf) < frameLen {
		return TCPHeader{}, nil, FrameLocation{}, ErrIncompleteFrame
	}
	header := TCPHeader{
		TransactionID: binary.BigEndian.Uint16(buf[0:2]),
		Unit:          Slave(buf[6]),
	}
	loc := FrameLocation{Start: 0, End: frameLen}
	return header, buf[TCPHeaderLength:frameLen], loc, nil
}

// DecodeTCPRequest decodes one MBAP-framed request at the start of buf.
// Trailing bytes beyond the frame are ignored; loc reports where the frame
// ends. ErrIncompleteFrame means buf is a valid prefix and more bytes are
// needed.
func DecodeTCPRequest(buf []byte) (TCPRequest, FrameLocation, error) {
	header, pdu, loc, err := decodeMBAP(buf)
	if err != nil {
		return TCPRequest{}, FrameLocation{}, err
	}
	req, err := ParseRequest(pdu)
	if err != nil {
		return TCPRequest{}, FrameLocation{}, err
	}
	return TCPRequest{Header: header, Request: req}, loc, nil
}

// DecodeTCPResponse decodes one MBAP-framed response at the start of buf.
func DecodeTCPResponse(buf []byte) (TCPResponse, FrameLocation, error) {
	header, pdu, loc, err := decodeMBAP(buf)
	if err != nil {
		return TCPResponse{}, FrameLocation{}, err
	}
	resp, err := ParseResponse(pdu)
	if err != nil {
		return TCPResponse{}, FrameLocation{}, err
	}
	return TCPResponse{Header: header, ResponsePDU: resp}, loc, nil
}

func encodeMBAP(header TCPHeader, pduLen int, buf []byte, encode func([]byte) (int, error)) (int, error) {
	frameLen := TCPHeaderLength + pduLen
	if frameLen > MaxTCPFrameLength {
		return 0, fmt.Errorf("%w: frame of %d bytes exceeds TCP limit",
			ErrInvalidData, frameLen)
	}
	if frameLen > len(buf) {
		return 0, ErrShortBuffer
	}
	n, err := encode(buf[TCPHeaderLength:])
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(buf[0:2], header.TransactionID)
	binary.BigEndian.PutUint16(buf[2:4], tcpProtocolID)
	binary.BigEndian.PutUint16(buf[4:6], uint16(1+n))
	buf[6] = byte(header.Unit)
	return TCPHeaderLength + n, nil
}

// EncodeTCPRequest writes the request as an MBAP frame and returns the
// number of bytes written.
func EncodeTCPRequest(req TCPRequest, buf []byte) (int, error) {
	return encodeMBAP(req.Header, req.PDULen(), buf, req.Request.Encode)
}

// EncodeTCPResponse writes the response as an MBAP frame and returns the
// number of bytes written.
func EncodeTCPResponse(resp TCPResponse, buf []byte) (int, error) {
	return encodeMBAP(resp.Header, resp.PDULen(), buf, resp.ResponsePDU.Encode)
}
