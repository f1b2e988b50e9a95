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

// Protocol quantity limits. Quantities beyond these would overflow the frame
// length model, so the codec rejects them on both encode and decode instead
// of leaving them to the application.
const (
	// MaxReadCoils is the maximum number of coils or discrete inputs in a
	// single read request.
	MaxReadCoils = 2000

	// MaxWriteCoils is the maximum number of coils in a single
	// write-multiple-coils request.
	MaxWriteCoils = 1968

	// MaxReadRegisters is the maximum number of registers in a single read
	// request.
	MaxReadRegisters = 125

	// MaxWriteRegisters is the maximum number of registers in a single
	// write-multiple-registers request.
	MaxWriteRegisters = 123

	// MaxReadWriteRegisters is the maximum number of registers written by a
	// single read/write-multiple-registers request.
	MaxReadWriteRegisters = 121
)

// Request is a decoded Modbus request PDU. Function selects the variant;
// only the fields that variant uses are meaningful:
//
//	FCReadCoils, FCReadDiscreteInputs,
//	FCReadHoldingRegisters, FCReadInputRegisters: Address, Quantity
//	FCWriteSingleCoil:                            Address, CoilState
//	FCWriteSingleRegister:                        Address, Value
//	FCWriteMultipleCoils:                         Address, Coils
//	FCWriteMultipleRegisters:                     Address, Data
//	FCReadWriteMultipleRegs:                      Address, Quantity (read part),
//	                                              WriteAddress, Data (write part)
//	FCReadExceptionStatus:                        no fields
//	anything else below 0x80:                     Extra (raw payload)
//
// Coils, Data and Extra are views into the buffer the request was decoded
// from or built over; the request stays valid only as long as that buffer.
type Request struct {
	Function     FunctionCode
	Address      uint16
	Quantity     uint16
	CoilState    bool
	Value        uint16
	WriteAddress uint16
	Coils        Coils
	Data         Data
	Extra        []byte
}

// PDULen returns the number of bytes the encoded request occupies.
func (r Request) PDULen() int {
	switch r.Function {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters,
		FCReadInputRegisters, FCWriteSingleCoil, FCWriteSingleRegister:
		return 5
	case FCWriteMultipleCoils:
		return 6 + r.Coils.PackedLen()
	case FCWriteMultipleRegisters:
		return 6 + 2*r.Data.Len()
	case FCReadWriteMultipleRegs:
		return 10 + 2*r.Data.Len()
	case FCReadExceptionStatus:
		return 1
	}
	return 1 + len(r.Extra)
}

// validate checks the request against the protocol limits before anything is
// written to a buffer.
func (r Request) validate() error {
	switch r.Function {
	case FCReadCoils, FCReadDiscreteInputs:
		return checkQuantity(int(r.Quantity), MaxReadCoils, "coils")
	case FCReadHoldingRegisters, FCReadInputRegisters:
		return checkQuantity(int(r.Quantity), MaxReadRegisters, "registers")
	case FCWriteMultipleCoils:
		return checkQuantity(r.Coils.Len(), MaxWriteCoils, "coils")
	case FCWriteMultipleRegisters:
		return checkQuantity(r.Data.Len(), MaxWriteRegisters, "registers")
	case FCReadWriteMultipleRegs:
		if err := checkQuantity(int(r.Quantity), MaxReadRegisters, "registers"); err != nil {
			return err
		}
		return checkQuantity(r.Data.Len(), MaxReadWriteRegisters, "registers")
	case FCWriteSingleCoil, FCWriteSingleRegister, FCReadExceptionStatus:
		return nil
	}
	if r.Function.IsException() {
		return fmt.Errorf("%w: cannot encode request with function code 0x%02X",
			ErrInvalidData, uint8(r.Function))
	}
	if 1+len(r.Extra) > MaxPDULength {
		return fmt.Errorf("%w: custom payload of %d bytes exceeds PDU limit",
			ErrInvalidData, len(r.Extra))
	}
	return nil
}

func checkQuantity(n, max int, unit string) error {
	if n < 1 || n > max {
		return fmt.Errorf("%w: quantity %d out of range 1..%d %s",
			ErrInvalidData, n, max, unit)
	}
	return nil
}

// Encode writes the request PDU into buf and returns the number of bytes
// written. The request and the buffer size are checked up front; on error
// buf is untouched.
func (r Request) Encode(buf []byte) (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	pduLen := r.PDULen()
	if pduLen > len(buf) {
		return 0, ErrShortBuffer
	}
	buf[0] = byte(r.Function)
	switch r.Function {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters,
		FCReadInputRegisters:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], r.Quantity)
	case FCWriteSingleCoil:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], coilWord(r.CoilState))
	case FCWriteSingleRegister:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], r.Value)
	case FCWriteMultipleCoils:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], uint16(r.Coils.Len()))
		buf[5] = byte(r.Coils.PackedLen())
		r.Coils.copyTo(buf[6:])
	case FCWriteMultipleRegisters:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], uint16(r.Data.Len()))
		buf[5] = byte(2 * r.Data.Len())
		r.Data.copyTo(buf[6:])
	case FCReadWriteMultipleRegs:
		binary.BigEndian.PutUint16(buf[1:], r.Address)
		binary.BigEndian.PutUint16(buf[3:], r.Quantity)
		binary.BigEndian.PutUint16(buf[5:], r.WriteAddress)
		binary.BigEndian.PutUint16(buf[7:], uint16(r.Data.Len()))
		buf[9] = byte(2 * r.Data.Len())
		r.Data.copyTo(buf[10:])
	case FCReadExceptionStatus:
		// function code only
	default:
		copy(buf[1:], r.Extra)
	}
	return pduLen, nil
}

// ParseRequest decodes a request PDU. The slice must span exactly one PDU,
// as produced by the RTU or TCP framing layer. Unknown function codes below
// 0x80 yield a request whose payload is carried verbatim in Extra, so that a
// server can answer with an illegal-function exception instead of dropping
// the frame.
func ParseRequest(pdu []byte) (Request, error) {
	if len(pdu) == 0 {
		return Request{}, fmt.Errorf("%w: empty request PDU", ErrInvalidData)
	}
	fc := FunctionCode(pdu[0])
	req := Request{Function: fc}
	switch fc {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters,
		FCReadInputRegisters:
		if len(pdu) != 5 {
			return Request{}, lengthMismatch(fc, 5, len(pdu))
		}
		req.Address = binary.BigEndian.Uint16(pdu[1:3])
		req.Quantity = binary.BigEndian.Uint16(pdu[3:5])
	case FCWriteSingleCoil:
		if len(pdu) != 5 {
			return Request{}, lengthMismatch(fc, 5, len(pdu))
		}
		req.Address = binary.BigEndian.Uint16(pdu[1:3])
		state, err := coilFromWord(binary.BigEndian.Uint16(pdu[3:5]))
		if err != nil {
			return Request{}, err
		}
		req.CoilState = state
	case FCWriteSingleRegister:
		if len(pdu) != 5 {
			return Request{}, lengthMismatch(fc, 5, len(pdu))
		}
		req.Address = binary.BigEndian.Uint16(pdu[1:3])
		req.Value = binary.BigEndian.Uint16(pdu[3:5])
	case FCWriteMultipleCoils:
		if len(pdu) < 6 {
			return Request{}, lengthMismatch(fc, 6, len(pdu))
		}
		req.Address = binary.BigEndian.Uint16(pdu[1:3])
		quantity := int(binary.BigEndian.Uint16(pdu[3:5]))
		byteCount := int(pdu[5])
		if byteCount != PackedCoilsLen(quantity) {
			return Request{}, fmt.Errorf("%w: %d coils need %d bytes, byte count says %d",
				ErrInvalidData, quantity, PackedCoilsLen(quantity), byteCount)
		}
		if len(pdu) != 6+byteCount {
			return Request{}, lengthMismatch(fc, 6+byteCount, len(pdu))
		}
		req.Coils = Coils{data: pdu[6:], quantity: quantity}
	case FCWriteMultipleRegisters:
		if len(pdu) < 6 {
			return Request{}, lengthMismatch(fc, 6, len(pdu))
		}
		req.Address = binary.BigEndian.Uint16(pdu[1:3])
		quantity := int(binary.BigEndian.Uint16(pdu[3:5]))
		byteCount := int(pdu[5])
		if byteCount != 2*quantity {
			return Request{}, fmt.Errorf("%w: %d registers need %d bytes, byte count says %d",
				ErrInvalidData, quantity, 2*quantity, byteCount)
		}
		if len(pdu) != 6+byteCount {
			return Request{}, lengthMismatch(fc, 6+byteCount, len(pdu))
		}
		req.Data = Data{data: pdu[6:], quantity: quantity}
	case FCReadWriteMultipleRegs:
		if len(pdu) < 10 {
			return Request{}, lengthMismatch(fc, 10, len(pdu))
		}
		req.Address = binary.BigEndian.Uint16(pdu[1:3])
		req.Quantity = binary.BigEndian.Uint16(pdu[3:5])
		req.WriteAddress = binary.BigEndian.Uint16(pdu[5:7])
		writeQuantity := int(binary.BigEndian.Uint16(pdu[7:9]))
		byteCount := int(pdu[9])
		if byteCount != 2*writeQuantity {
			return Request{}, fmt.Errorf("%w: %d registers need %d bytes, byte count says %d",
				ErrInvalidData, writeQuantity, 2*writeQuantity, byteCount)
		}
		if len(pdu) != 10+byteCount {
			return Request{}, lengthMismatch(fc, 10+byteCount, len(pdu))
		}
		req.Data = Data{data: pdu[10:], quantity: writeQuantity}
	case FCReadExceptionStatus:
		if len(pdu) != 1 {
			return Request{}, lengthMismatch(fc, 1, len(pdu))
		}
	default:
		if fc.IsException() {
			return Request{}, fmt.Errorf("%w: function code 0x%02X in a request",
				ErrInvalidData, uint8(fc))
		}
		req.Extra = pdu[1:]
		return req, nil
	}
	if err := req.validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func lengthMismatch(fc FunctionCode, want, got int) error {
	return fmt.Errorf("%w: %v PDU needs %d bytes, got %d", ErrInvalidData, fc, want, got)
}
