package pmx

import "encoding/binary"

// Multi-byte values on the wire are little-endian.

// BytesToInt16 decodes a signed 16-bit value.
func BytesToInt16(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

// BytesToUint16 decodes an unsigned 16-bit value.
func BytesToUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// BytesToInt32 decodes a signed 32-bit value.
func BytesToInt32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// BytesToUint32 decodes an unsigned 32-bit value.
func BytesToUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Int16ToBytes encodes a signed 16-bit value.
func Int16ToBytes(v int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

// Uint16ToBytes encodes an unsigned 16-bit value.
func Uint16ToBytes(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// Int32ToBytes encodes a signed 32-bit value.
func Int32ToBytes(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

// Uint32ToBytes encodes an unsigned 32-bit value.
func Uint32ToBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
