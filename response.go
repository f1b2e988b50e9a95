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

// Response is a decoded normal (non-exception) Modbus response PDU.
// Function selects the variant; only the fields that variant uses are
// meaningful:
//
//	FCReadCoils, FCReadDiscreteInputs:            Coils
//	FCReadHoldingRegisters, FCReadInputRegisters,
//	FCReadWriteMultipleRegs:                      Data
//	FCWriteSingleCoil:                            Address, CoilState
//	FCWriteSingleRegister:                        Address, Value
//	FCWriteMultipleCoils,
//	FCWriteMultipleRegisters:                     Address, Quantity
//	FCReadExceptionStatus:                        Status
//	anything else below 0x80:                     Extra (raw payload)
//
// A read-coils response only carries whole bytes, so a decoded Coils view
// reports a quantity rounded up to the next multiple of eight; the caller
// knows the exact count from its own request.
type Response struct {
	Function  FunctionCode
	Address   uint16
	Quantity  uint16
	CoilState bool
	Value     uint16
	Status    uint8
	Coils     Coils
	Data      Data
	Extra     []byte
}

// PDULen returns the number of bytes the encoded response occupies.
func (r Response) PDULen() int {
	switch r.Function {
	case FCReadCoils, FCReadDiscreteInputs:
		return 2 + r.Coils.PackedLen()
	case FCReadHoldingRegisters, FCReadInputRegisters, FCReadWriteMultipleRegs:
		return 2 + 2*r.Data.Len()
	case FCWriteSingleCoil, FCWriteSingleRegister,
		FCWriteMultipleCoils, FCWriteMultipleRegisters:
		return 5
	case FCReadExceptionStatus:
		return 2
	}
	return 1 + len(r.Extra)
}

// Encode writes the response PDU into buf and returns the number of bytes
// written. On error buf is untouched.
func (r Response) Encode(buf []byte) (int, error) {
	if r.Function.IsException() {
		return 0, fmt.Errorf("%w: cannot encode response with function code 0x%02X",
			ErrInvalidData, uint8(r.Function))
	}
	pduLen := r.PDULen()
	if pduLen > MaxPDULength {
		return 0, fmt.Errorf("%w: response payload of %d bytes exceeds PDU limit",
			ErrInvalidData, pduLen-1)
	}
	if pduLen > len(buf) {
		return 0, ErrShortBuffer
	}
	buf[0] = byte(r.Function)
	switch r.Function {
	case FCReadCoils, FCReadDiscreteInputs:
		buf[1] = byte(r.Coils.PackedLen())
		r.Coils.copyTo(buf[2:])
	case FCReadHoldingRegisters, FCReadInputRegisters, FCReadWriteMultipleRegs:
		buf[1] = byte(2 * r.Data.Len())
		r.Data.copyTo(buf[2:])
	case FCWriteSingleCoil:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], coilWord(r.CoilState))
	case FCWriteSingleRegister:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], r.Value)
	case FCWriteMultipleCoils, FCWriteMultipleRegisters:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], r.Quantity)
	case FCReadExceptionStatus:
		buf[1] = r.Status
	default:
		copy(buf[1:], r.Extra)
	}
	return pduLen, nil
}

// ExceptionResponse is a Modbus exception reply. Function is the original
// function code, without the exception flag.
type ExceptionResponse struct {
	Function FunctionCode
	Code     Exception
}

func (e ExceptionResponse) Error() string {
	return fmt.Sprintf("modbus: %v request failed: %v", e.Function, e.Code)
}

// PDULen returns the encoded length of an exception response, always 2.
func (e ExceptionResponse) PDULen() int { return 2 }

// Encode writes the exception response PDU into buf.
func (e ExceptionResponse) Encode(buf []byte) (int, error) {
	if e.Function.IsException() {
		return 0, fmt.Errorf("%w: function code 0x%02X already carries the exception flag",
			ErrInvalidData, uint8(e.Function))
	}
	if !e.Code.Valid() {
		return 0, fmt.Errorf("%w: unknown exception code 0x%02X",
			ErrInvalidData, uint8(e.Code))
	}
	if len(buf) < 2 {
		return 0, ErrShortBuffer
	}
	buf[0] = byte(e.Function.WithException())
	buf[1] = byte(e.Code)
	return 2, nil
}

// ResponsePDU is either a normal response or an exception response,
// discriminated by IsException.
type ResponsePDU struct {
	Response    Response
	Exception   ExceptionResponse
	IsException bool
}

// OK wraps a normal response.
func OK(resp Response) ResponsePDU {
	return ResponsePDU{Response: resp}
}

// Fail wraps an exception response.
func Fail(fc FunctionCode, code Exception) ResponsePDU {
	return ResponsePDU{
		Exception:   ExceptionResponse{Function: fc, Code: code},
		IsException: true,
	}
}

// Function returns the function code of either variant, without the
// exception flag.
func (r ResponsePDU) Function() FunctionCode {
	if r.IsException {
		return r.Exception.Function
	}
	return r.Response.Function
}

// PDULen returns the number of bytes the encoded response occupies.
func (r ResponsePDU) PDULen() int {
	if r.IsException {
		return r.Exception.PDULen()
	}
	return r.Response.PDULen()
}

// Encode writes the response PDU into buf and returns the number of bytes
// written.
func (r ResponsePDU) Encode(buf []byte) (int, error) {
	if r.IsException {
		return r.Exception.Encode(buf)
	}
	return r.Response.Encode(buf)
}

// Err returns the exception as an error, or nil for a normal response.
// It lets a client treat a decoded response with plain error handling:
//
//	resp, _, err := modbus.DecodeRTUResponse(frame)
//	if err == nil {
//		err = resp.Err()
//	}
func (r ResponsePDU) Err() error {
	if r.IsException {
		return r.Exception
	}
	return nil
}

// ParseResponse decodes a response PDU, normal or exception. The slice must
// span exactly one PDU, as produced by the RTU or TCP framing layer. Byte
// counts and echoed quantity fields are held to the same protocol limits
// ParseRequest enforces.
func ParseResponse(pdu []byte) (ResponsePDU, error) {
	if len(pdu) == 0 {
		return ResponsePDU{}, fmt.Errorf("%w: empty response PDU", ErrInvalidData)
	}
	fc := FunctionCode(pdu[0])
	if fc.IsException() {
		if len(pdu) != 2 {
			return ResponsePDU{}, lengthMismatch(fc, 2, len(pdu))
		}
		code := Exception(pdu[1])
		if !code.Valid() {
			return ResponsePDU{}, fmt.Errorf("%w: unknown exception code 0x%02X",
				ErrInvalidData, pdu[1])
		}
		return Fail(fc.WithoutException(), code), nil
	}
	resp := Response{Function: fc}
	switch fc {
	case FCReadCoils, FCReadDiscreteInputs:
		coils, err := parseByteCountPayload(fc, pdu)
		if err != nil {
			return ResponsePDU{}, err
		}
		if len(coils) < 1 || len(coils) > PackedCoilsLen(MaxReadCoils) {
			return ResponsePDU{}, fmt.Errorf("%w: %v response carries %d coil bytes, limit is %d",
				ErrInvalidData, fc, len(coils), PackedCoilsLen(MaxReadCoils))
		}
		resp.Coils = Coils{data: coils, quantity: 8 * len(coils)}
	case FCReadHoldingRegisters, FCReadInputRegisters, FCReadWriteMultipleRegs:
		words, err := parseByteCountPayload(fc, pdu)
		if err != nil {
			return ResponsePDU{}, err
		}
		if len(words)%2 != 0 {
			return ResponsePDU{}, fmt.Errorf("%w: %v response carries odd byte count %d",
				ErrInvalidData, fc, len(words))
		}
		if err := checkQuantity(len(words)/2, MaxReadRegisters, "registers"); err != nil {
			return ResponsePDU{}, err
		}
		resp.Data = Data{data: words, quantity: len(words) / 2}
	case FCWriteSingleCoil:
		if len(pdu) != 5 {
			return ResponsePDU{}, lengthMismatch(fc, 5, len(pdu))
		}
		resp.Address = binary.BigEndian.Uint16(pdu[1:3])
		state, err := coilFromWord(binary.BigEndian.Uint16(pdu[3:5]))
		if err != nil {
			return ResponsePDU{}, err
		}
		resp.CoilState = state
	case FCWriteSingleRegister:
		if len(pdu) != 5 {
			return ResponsePDU{}, lengthMismatch(fc, 5, len(pdu))
		}
		resp.Address = binary.BigEndian.Uint16(pdu[1:3])
		resp.Value = binary.BigEndian.Uint16(pdu[3:5])
	case FCWriteMultipleCoils, FCWriteMultipleRegisters:
		if len(pdu) != 5 {
			return ResponsePDU{}, lengthMismatch(fc, 5, len(pdu))
		}
		resp.Address = binary.BigEndian.Uint16(pdu[1:3])
		resp.Quantity = binary.BigEndian.Uint16(pdu[3:5])
		limit, unit := MaxWriteCoils, "coils"
		if fc == FCWriteMultipleRegisters {
			limit, unit = MaxWriteRegisters, "registers"
		}
		if err := checkQuantity(int(resp.Quantity), limit, unit); err != nil {
			return ResponsePDU{}, err
		}
	case FCReadExceptionStatus:
		if len(pdu) != 2 {
			return ResponsePDU{}, lengthMismatch(fc, 2, len(pdu))
		}
		resp.Status = pdu[1]
	default:
		resp.Extra = pdu[1:]
	}
	return OK(resp), nil
}

func parseByteCountPayload(fc FunctionCode, pdu []byte) ([]byte, error) {
	if len(pdu) < 2 {
		return nil, lengthMismatch(fc, 2, len(pdu))
	}
	byteCount := int(pdu[1])
	if len(pdu) != 2+byteCount {
		return nil, fmt.Errorf("%w: %v response byte count says %d, payload is %d bytes",
			ErrInvalidData, fc, byteCount, len(pdu)-2)
	}
	return pdu[2:], nil
}
