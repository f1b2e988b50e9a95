package modbus

import "testing"

func TestDataFromWords(t *testing.T) {
	words := []uint16{0xAE41, 0x5652, 0x4340}
	var buf [8]byte
	data, err := DataFromWords(words, buf[:])
	if err != nil {
		t.Fatalf("DataFromWords failed: %v", err)
	}
	assertBytesEqual(t, []byte{0xAE, 0x41, 0x56, 0x52, 0x43, 0x40}, data.Payload())
	if data.Len() != 3 {
		t.Errorf("Len: got %d, expected 3", data.Len())
	}

	for i, want := range words {
		got, ok := data.Get(i)
		if !ok || got != want {
			t.Errorf("Get(%d): got %#04x,%v, expected %#04x,true", i, got, ok, want)
		}
	}
	if _, ok := data.Get(3); ok {
		t.Error("Get(3) beyond the view should report not ok")
	}

	round := make([]uint16, 3)
	if n := data.CopyWords(round); n != 3 {
		t.Errorf("CopyWords: got %d words, expected 3", n)
	}
	assertUint16Equal(t, words, round)
}

func TestDataFromWordsShortBuffer(t *testing.T) {
	var buf [5]byte
	_, err := DataFromWords([]uint16{1, 2, 3}, buf[:])
	assertErrorIs(t, err, ErrShortBuffer)
}

func TestDataCopyWordsTruncates(t *testing.T) {
	var buf [6]byte
	data, err := DataFromWords([]uint16{1, 2, 3}, buf[:])
	if err != nil {
		t.Fatalf("DataFromWords failed: %v", err)
	}
	dst := make([]uint16, 2)
	if n := data.CopyWords(dst); n != 2 {
		t.Errorf("CopyWords into short dst: got %d words, expected 2", n)
	}
	assertUint16Equal(t, []uint16{1, 2}, dst)
}

func TestDataEmpty(t *testing.T) {
	var data Data
	if !data.IsEmpty() || data.Len() != 0 {
		t.Error("zero Data must be empty")
	}
}
