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

// FunctionCode identifies a Modbus public or user-defined function.
type FunctionCode uint8

// Data access function codes.
const (
	FCReadCoils              FunctionCode = 0x01
	FCReadDiscreteInputs     FunctionCode = 0x02
	FCReadHoldingRegisters   FunctionCode = 0x03
	FCReadInputRegisters     FunctionCode = 0x04
	FCWriteSingleCoil        FunctionCode = 0x05
	FCWriteSingleRegister    FunctionCode = 0x06
	FCWriteMultipleCoils     FunctionCode = 0x0F
	FCWriteMultipleRegisters FunctionCode = 0x10
	FCMaskWriteRegister      FunctionCode = 0x16
	FCReadWriteMultipleRegs  FunctionCode = 0x17
	FCReadFIFOQueue          FunctionCode = 0x18
)

// Serial-line diagnostic function codes.
const (
	FCReadExceptionStatus FunctionCode = 0x07
	FCDiagnostics         FunctionCode = 0x08
	FCGetCommEventCounter FunctionCode = 0x0B
	FCGetCommEventLog     FunctionCode = 0x0C
	FCReportServerID      FunctionCode = 0x11
)

// exceptionBit is set in the function code of an exception response.
const exceptionBit = 0x80

// IsException reports whether fc carries the exception flag,
// i.e. whether the PDU is a server exception reply.
func (fc FunctionCode) IsException() bool {
	return uint8(fc)&exceptionBit != 0
}

// WithException returns the exception form of fc (high bit set).
func (fc FunctionCode) WithException() FunctionCode {
	return FunctionCode(uint8(fc) | exceptionBit)
}

// WithoutException strips the exception flag from fc.
func (fc FunctionCode) WithoutException() FunctionCode {
	return FunctionCode(uint8(fc) &^ exceptionBit)
}

func (fc FunctionCode) String() string {
	switch fc {
	case FCReadCoils:
		return "read coils"
	case FCReadDiscreteInputs:
		return "read discrete inputs"
	case FCReadHoldingRegisters:
		return "read holding registers"
	case FCReadInputRegisters:
		return "read input registers"
	case FCWriteSingleCoil:
		return "write single coil"
	case FCWriteSingleRegister:
		return "write single register"
	case FCWriteMultipleCoils:
		return "write multiple coils"
	case FCWriteMultipleRegisters:
		return "write multiple registers"
	case FCMaskWriteRegister:
		return "mask write register"
	case FCReadWriteMultipleRegs:
		return "read/write multiple registers"
	case FCReadFIFOQueue:
		return "read FIFO queue"
	case FCReadExceptionStatus:
		return "read exception status"
	case FCDiagnostics:
		return "diagnostics"
	case FCGetCommEventCounter:
		return "get comm event counter"
	case FCGetCommEventLog:
		return "get comm event log"
	case FCReportServerID:
		return "report server ID"
	}
	return fmt.Sprintf("function 0x%02X", uint8(fc))
}

// Exception is a Modbus exception code carried by an exception response.
type Exception uint8

// Exception codes as defined by the Modbus application protocol.
const (
	ExceptionIllegalFunction    Exception = 0x01
	ExceptionIllegalDataAddress Exception = 0x02
	ExceptionIllegalDataValue   Exception = 0x03
	ExceptionServerFailure      Exception = 0x04
	ExceptionAcknowledge        Exception = 0x05
	ExceptionServerBusy         Exception = 0x06
	ExceptionMemoryParityError  Exception = 0x08
	ExceptionGatewayPath        Exception = 0x0A
	ExceptionGatewayTarget      Exception = 0x0B
)

// Valid reports whether e is one of the defined exception codes.
func (e Exception) Valid() bool {
	switch e {
	case ExceptionIllegalFunction, ExceptionIllegalDataAddress,
		ExceptionIllegalDataValue, ExceptionServerFailure,
		ExceptionAcknowledge, ExceptionServerBusy,
		ExceptionMemoryParityError, ExceptionGatewayPath,
		ExceptionGatewayTarget:
		return true
	}
	return false
}

func (e Exception) String() string {
	switch e {
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddress:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionServerFailure:
		return "slave device failure"
	case ExceptionAcknowledge:
		return "acknowledge"
	case ExceptionServerBusy:
		return "slave device busy"
	case ExceptionMemoryParityError:
		return "memory parity error"
	case ExceptionGatewayPath:
		return "gateway path unavailable"
	case ExceptionGatewayTarget:
		return "gateway target device failed to respond"
	}
	return fmt.Sprintf("exception 0x%02X", uint8(e))
}
