package modbus

import (
	"errors"
	"testing"
)

func TestResponseEncodeVectors(t *testing.T) {
	var coilBuf [1]byte
	coils, err := CoilsFromBools([]bool{
		true, false, true, false, true, true, false, false,
	}, coilBuf[:])
	if err != nil {
		t.Fatalf("CoilsFromBools failed: %v", err)
	}
	var wordBuf [4]byte
	words, err := DataFromWords([]uint16{0x8902, 0x42C7}, wordBuf[:])
	if err != nil {
		t.Fatalf("DataFromWords failed: %v", err)
	}

	testCases := []struct {
		name     string
		resp     ResponsePDU
		expected []byte
	}{
		{
			name:     "read coils",
			resp:     OK(Response{Function: FCReadCoils, Coils: coils}),
			expected: []byte{0x01, 0x01, 0x35},
		},
		{
			name:     "read holding registers",
			resp:     OK(Response{Function: FCReadHoldingRegisters, Data: words}),
			expected: []byte{0x03, 0x04, 0x89, 0x02, 0x42, 0xC7},
		},
		{
			name:     "write single coil",
			resp:     OK(Response{Function: FCWriteSingleCoil, Address: 0x00AC, CoilState: true}),
			expected: []byte{0x05, 0x00, 0xAC, 0xFF, 0x00},
		},
		{
			name:     "write single register",
			resp:     OK(Response{Function: FCWriteSingleRegister, Address: 0x2222, Value: 0xABCD}),
			expected: []byte{0x06, 0x22, 0x22, 0xAB, 0xCD},
		},
		{
			name:     "write multiple registers",
			resp:     OK(Response{Function: FCWriteMultipleRegisters, Address: 0x0001, Quantity: 2}),
			expected: []byte{0x10, 0x00, 0x01, 0x00, 0x02},
		},
		{
			name:     "read exception status",
			resp:     OK(Response{Function: FCReadExceptionStatus, Status: 0x6D}),
			expected: []byte{0x07, 0x6D},
		},
		{
			name:     "exception",
			resp:     Fail(FCReadHoldingRegisters, ExceptionIllegalDataAddress),
			expected: []byte{0x83, 0x02},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf [MaxPDULength]byte
			n, err := tc.resp.Encode(buf[:])
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if n != tc.resp.PDULen() {
				t.Errorf("Encode wrote %d bytes, PDULen says %d", n, tc.resp.PDULen())
			}
			assertBytesEqual(t, tc.expected, buf[:n])
		})
	}
}

func TestResponseParseRegisters(t *testing.T) {
	resp, err := ParseResponse([]byte{0x03, 0x06, 0xAE, 0x41, 0x56, 0x52, 0x43, 0x40})
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.IsException {
		t.Fatal("normal response reported as exception")
	}
	if resp.Err() != nil {
		t.Errorf("Err on normal response: got %v, expected nil", resp.Err())
	}
	words := make([]uint16, resp.Response.Data.Len())
	resp.Response.Data.CopyWords(words)
	assertUint16Equal(t, []uint16{0xAE41, 0x5652, 0x4340}, words)
}

func TestResponseParseCoils(t *testing.T) {
	resp, err := ParseResponse([]byte{0x01, 0x02, 0xCD, 0x01})
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	// a coil payload only carries whole bytes, quantity rounds up
	if resp.Response.Coils.Len() != 16 {
		t.Errorf("coil count: got %d, expected 16", resp.Response.Coils.Len())
	}
	if state, ok := resp.Response.Coils.Get(0); !ok || !state {
		t.Error("coil 0 must be on")
	}
	if state, ok := resp.Response.Coils.Get(1); !ok || state {
		t.Error("coil 1 must be off")
	}
}

func TestResponseParseException(t *testing.T) {
	resp, err := ParseResponse([]byte{0x83, 0x02})
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if !resp.IsException {
		t.Fatal("exception response not flagged")
	}
	if resp.Exception.Function != FCReadHoldingRegisters {
		t.Errorf("function: got %v, expected %v", resp.Exception.Function, FCReadHoldingRegisters)
	}
	if resp.Exception.Code != ExceptionIllegalDataAddress {
		t.Errorf("code: got %v, expected %v", resp.Exception.Code, ExceptionIllegalDataAddress)
	}
	if resp.Function() != FCReadHoldingRegisters {
		t.Errorf("Function: got %v, expected %v", resp.Function(), FCReadHoldingRegisters)
	}

	var excErr ExceptionResponse
	if !errors.As(resp.Err(), &excErr) {
		t.Fatalf("Err must yield the exception, got %v", resp.Err())
	}
	if excErr.Code != ExceptionIllegalDataAddress {
		t.Errorf("Err code: got %v, expected %v", excErr.Code, ExceptionIllegalDataAddress)
	}
}

func TestResponseParseMalformed(t *testing.T) {
	testCases := []struct {
		name string
		pdu  []byte
	}{
		{"empty", []byte{}},
		{"exception truncated", []byte{0x83}},
		{"exception oversized", []byte{0x83, 0x02, 0x00}},
		{"exception code unknown", []byte{0x83, 0x20}},
		{"byte count disagrees with payload", []byte{0x03, 0x06, 0xAE, 0x41}},
		{"odd register byte count", []byte{0x03, 0x03, 0xAE, 0x41, 0x56}},
		{"write echo truncated", []byte{0x06, 0x22, 0x22, 0xAB}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseResponse(tc.pdu)
			assertErrorIs(t, err, ErrInvalidData)
		})
	}
}

// Responses are held to the same protocol limits as requests: a peer
// claiming more registers or coils than a request may ask for is malformed.
func TestResponseParseQuantityLimits(t *testing.T) {
	atLimit := make([]byte, 2+250)
	atLimit[0], atLimit[1] = 0x03, 250 // 125 registers
	if _, err := ParseResponse(atLimit); err != nil {
		t.Errorf("125-register response must parse: %v", err)
	}

	over := make([]byte, 2+252)
	over[0], over[1] = 0x03, 252 // 126 registers
	_, err := ParseResponse(over)
	assertErrorIs(t, err, ErrInvalidData)

	empty := []byte{0x03, 0x00}
	_, err = ParseResponse(empty)
	assertErrorIs(t, err, ErrInvalidData)

	echoOK := []byte{0x10, 0x00, 0x00, 0x00, 0x7B} // 123 registers
	if _, err := ParseResponse(echoOK); err != nil {
		t.Errorf("123-register write echo must parse: %v", err)
	}
	echoOver := []byte{0x10, 0x00, 0x00, 0x00, 0x7C} // 124 registers
	_, err = ParseResponse(echoOver)
	assertErrorIs(t, err, ErrInvalidData)

	coilEchoOver := []byte{0x0F, 0x00, 0x00, 0x07, 0xB1} // 1969 coils
	_, err = ParseResponse(coilEchoOver)
	assertErrorIs(t, err, ErrInvalidData)
}

func TestExceptionResponseEncode(t *testing.T) {
	exc := ExceptionResponse{Function: FCReadCoils, Code: ExceptionIllegalFunction}
	var buf [2]byte
	n, err := exc.Encode(buf[:])
	if err != nil || n != 2 {
		t.Fatalf("Encode: got %d,%v", n, err)
	}
	assertBytesEqual(t, []byte{0x81, 0x01}, buf[:])

	bad := ExceptionResponse{Function: FCReadCoils, Code: Exception(0x20)}
	_, err = bad.Encode(buf[:])
	assertErrorIs(t, err, ErrInvalidData)
}
