package modbus

import (
	"errors"
	"testing"
)

func assertUint16Equal(t *testing.T, expected []uint16, actual []uint16) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Expected length %d, but got %d", len(expected), len(actual))
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("Expected %v, but got %v", expected, actual)
			return
		}
	}
}

func assertBytesEqual(t *testing.T, expected []byte, actual []byte) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Expected % X, but got % X", expected, actual)
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("Expected % X, but got % X", expected, actual)
			return
		}
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("Expected error %v, but got %v", target, err)
	}
}
