package pmx

import (
	"bytes"
	"testing"
)

func TestInt16RoundTrip(t *testing.T) {
	for _, v := range []int16{0, 1, -1, 1000, -1000, 32767, -32768} {
		if got := BytesToInt16(Int16ToBytes(v)); got != v {
			t.Errorf("int16 %d round-tripped to %d", v, got)
		}
	}

	// Negative values travel as two's complement, low byte first.
	if b := Int16ToBytes(-1000); !bytes.Equal(b, []byte{0x18, 0xFC}) {
		t.Errorf("Int16ToBytes(-1000): got %X, want 18 FC", b)
	}
}

func TestUint16RoundTrip(t *testing.T) {
	for _, v := range []uint16{0, 1, 0x7FFF, 0x8000, 0xFFFF} {
		if got := BytesToUint16(Uint16ToBytes(v)); got != v {
			t.Errorf("uint16 %d round-tripped to %d", v, got)
		}
	}

	if b := Uint16ToBytes(0x03E8); !bytes.Equal(b, []byte{0xE8, 0x03}) {
		t.Errorf("Uint16ToBytes(0x03E8): got %X, want E8 03", b)
	}
}

func TestInt32RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 1000000, -1000000, 2147483647, -2147483648} {
		if got := BytesToInt32(Int32ToBytes(v)); got != v {
			t.Errorf("int32 %d round-tripped to %d", v, got)
		}
	}

	if b := Int32ToBytes(1000000); !bytes.Equal(b, []byte{0x40, 0x42, 0x0F, 0x00}) {
		t.Errorf("Int32ToBytes(1000000): got %X, want 40 42 0F 00", b)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x12345678, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF} {
		if got := BytesToUint32(Uint32ToBytes(v)); got != v {
			t.Errorf("uint32 %d round-tripped to %d", v, got)
		}
	}

	if b := Uint32ToBytes(0x12345678); !bytes.Equal(b, []byte{0x78, 0x56, 0x34, 0x12}) {
		t.Errorf("Uint32ToBytes(0x12345678): got %X, want 78 56 34 12", b)
	}
}
