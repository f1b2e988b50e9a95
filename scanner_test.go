package modbus

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestRTUScannerReadRequest(t *testing.T) {
	frame := []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x76, 0x87}
	scanner := NewRTUScanner(bytes.NewReader(frame))
	req, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Slave != 0x11 || req.Function != FCReadHoldingRegisters {
		t.Errorf("request: got %+v", req)
	}
}

func TestRTUScannerResync(t *testing.T) {
	// line noise ahead of a valid frame
	stream := []byte{0x42, 0x43, 0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x76, 0x87}
	scanner := NewRTUScanner(bytes.NewReader(stream))
	var log bytes.Buffer
	scanner.SetLogger(&log)

	req, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Slave != 0x11 || req.Quantity != 3 {
		t.Errorf("request: got %+v", req)
	}
	if log.Len() == 0 {
		t.Error("dropped bytes should have been traced")
	}
}

func TestRTUScannerBackToBackFrames(t *testing.T) {
	stream := []byte{
		0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x76, 0x87,
		0x12, 0x06, 0x22, 0x22, 0xAB, 0xCD, 0x9F, 0xBE,
	}
	scanner := NewRTUScanner(bytes.NewReader(stream))

	first, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("first ReadRequest failed: %v", err)
	}
	if first.Slave != 0x11 {
		t.Errorf("first frame slave: got %v", first.Slave)
	}

	second, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("second ReadRequest failed: %v", err)
	}
	if second.Slave != 0x12 || second.Value != 0xABCD {
		t.Errorf("second frame: got %+v", second)
	}

	if _, err := scanner.ReadRequest(); err != io.EOF {
		t.Errorf("drained scanner: got %v, expected io.EOF", err)
	}
}

// A serial port hands out bytes in arbitrary chunks; framing must not depend
// on read boundaries.
func TestRTUScannerOneByteReads(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x04, 0x89, 0x02, 0x42, 0xC7, 0x00, 0x9D}
	scanner := NewRTUScanner(iotest.OneByteReader(bytes.NewReader(frame)))
	resp, err := scanner.ReadResponse()
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	words := make([]uint16, resp.Response.Data.Len())
	resp.Response.Data.CopyWords(words)
	assertUint16Equal(t, []uint16{0x8902, 0x42C7}, words)
}

func TestRTUScannerCorruptFrameSkipped(t *testing.T) {
	frame := []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x76, 0x87}
	corrupted := make([]byte, len(frame))
	copy(corrupted, frame)
	corrupted[4] ^= 0xFF

	stream := append(corrupted, frame...)
	scanner := NewRTUScanner(bytes.NewReader(stream))
	req, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Quantity != 3 {
		t.Errorf("request after resync: got %+v", req)
	}
}

func TestRTUScannerTruncatedStream(t *testing.T) {
	scanner := NewRTUScanner(bytes.NewReader([]byte{0x11, 0x03, 0x00}))
	if _, err := scanner.ReadRequest(); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated stream: got %v, expected io.ErrUnexpectedEOF", err)
	}
}

func TestTCPScannerReadRequest(t *testing.T) {
	stream := []byte{
		0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x01, 0x06, 0x00, 0x01, 0x00, 0x03,
		0x00, 0x02, 0x00, 0x00, 0x00, 0x06, 0x01, 0x03, 0x00, 0x6B, 0x00, 0x03,
	}
	scanner := NewTCPScanner(iotest.OneByteReader(bytes.NewReader(stream)))

	first, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("first ReadRequest failed: %v", err)
	}
	if first.Header.TransactionID != 1 || first.Function != FCWriteSingleRegister {
		t.Errorf("first request: got %+v", first)
	}

	second, err := scanner.ReadRequest()
	if err != nil {
		t.Fatalf("second ReadRequest failed: %v", err)
	}
	if second.Header.TransactionID != 2 || second.Quantity != 3 {
		t.Errorf("second request: got %+v", second)
	}
}

// A frame's Coils/Data views stay readable until the next Read call, even
// when the following frame already sits in the scanner's buffer.
func TestRTUScannerViewsSurviveBufferedFrames(t *testing.T) {
	stream := []byte{
		0x01, 0x03, 0x04, 0x89, 0x02, 0x42, 0xC7, 0x00, 0x9D,
		0x12, 0x06, 0x22, 0x22, 0xAB, 0xCD, 0x9F, 0xBE,
	}
	scanner := NewRTUScanner(bytes.NewReader(stream))

	first, err := scanner.ReadResponse()
	if err != nil {
		t.Fatalf("first ReadResponse failed: %v", err)
	}
	words := make([]uint16, first.Response.Data.Len())
	first.Response.Data.CopyWords(words)
	assertUint16Equal(t, []uint16{0x8902, 0x42C7}, words)

	second, err := scanner.ReadResponse()
	if err != nil {
		t.Fatalf("second ReadResponse failed: %v", err)
	}
	if second.Slave != 0x12 || second.Response.Value != 0xABCD {
		t.Errorf("second frame: got %+v", second)
	}
}

func TestTCPScannerViewsSurviveBufferedFrames(t *testing.T) {
	stream := []byte{
		0x00, 0x01, 0x00, 0x00, 0x00, 0x07, 0x01, 0x03, 0x04, 0x89, 0x02, 0x42, 0xC7,
		0x00, 0x02, 0x00, 0x00, 0x00, 0x06, 0x01, 0x06, 0x22, 0x22, 0xAB, 0xCD,
	}
	scanner := NewTCPScanner(bytes.NewReader(stream))

	first, err := scanner.ReadResponse()
	if err != nil {
		t.Fatalf("first ReadResponse failed: %v", err)
	}
	words := make([]uint16, first.Response.Data.Len())
	first.Response.Data.CopyWords(words)
	assertUint16Equal(t, []uint16{0x8902, 0x42C7}, words)

	second, err := scanner.ReadResponse()
	if err != nil {
		t.Fatalf("second ReadResponse failed: %v", err)
	}
	if second.Header.TransactionID != 2 || second.Response.Value != 0xABCD {
		t.Errorf("second frame: got %+v", second)
	}
}

// On a stream of pure noise the scanner surfaces the decode error after
// discarding one full frame's worth of bytes instead of consuming input
// forever.
func TestRTUScannerResyncGivesUp(t *testing.T) {
	noise := bytes.Repeat([]byte{0x55}, 600)
	scanner := NewRTUScanner(bytes.NewReader(noise))
	var log bytes.Buffer
	scanner.SetLogger(&log)

	_, err := scanner.ReadRequest()
	assertErrorIs(t, err, ErrInvalidData)
	if !bytes.Contains(log.Bytes(), []byte("giving up")) {
		t.Error("give-up should have been traced")
	}
}

func TestTCPScannerBrokenStream(t *testing.T) {
	// protocol identifier is not Modbus: the connection is unusable
	stream := []byte{0x00, 0x01, 0xBE, 0xEF, 0x00, 0x06, 0x01, 0x06, 0x00, 0x01, 0x00, 0x03}
	scanner := NewTCPScanner(bytes.NewReader(stream))
	var log bytes.Buffer
	scanner.SetLogger(&log)

	_, err := scanner.ReadRequest()
	assertErrorIs(t, err, ErrInvalidData)
	if !bytes.Contains(log.Bytes(), []byte("stream broken")) {
		t.Error("broken stream should have been traced")
	}
}
