// Package mip implements the MicroStrain Inertial Protocol framing used by
// 3DM-series AHRS sensors: Fletcher-16 checksummed packets carrying
// back-to-back data fields, plus a resynchronizing stream parser.
package mip

import (
	"errors"
	"fmt"
)

// Sync bytes opening every packet.
const (
	Sync1 = 0x75
	Sync2 = 0x65
)

// Packet layout.
const (
	headerLen   = 4 // sync1, sync2, descriptor set, payload length
	checksumLen = 2
	minFieldLen = 2 // a field's length byte counts its own two header bytes

	// MaxPayloadLen is bounded by the 1-byte payload length field.
	MaxPayloadLen = 255
)

var (
	ErrMalformedField = errors.New("malformed field")
	ErrPayloadTooLong = errors.New("payload exceeds protocol maximum")

	// ErrBufferOverflow is diagnostic only; the stream recovers by dropping
	// the oldest buffered bytes.
	ErrBufferOverflow = errors.New("stream buffer overflow")
)

// Packet is one framed unit from the sensor stream.
type Packet struct {
	DescriptorSet byte
	Payload       []byte
}

// Field is one (length, descriptor, data) unit inside a packet payload.
type Field struct {
	Descriptor byte
	Data       []byte
}

// Fletcher16 computes the two running checksum sums over data.
func Fletcher16(data []byte) (sum1, sum2 byte) {
	for _, b := range data {
		sum1 += b
		sum2 += sum1
	}
	return sum1, sum2
}

// VerifyChecksum recomputes the Fletcher-16 sums of a complete packet and
// compares them to the trailing two bytes.
func VerifyChecksum(packet []byte) bool {
	if len(packet) < headerLen+checksumLen {
		return false
	}
	sum1, sum2 := Fletcher16(packet[:len(packet)-checksumLen])
	return packet[len(packet)-2] == sum1 && packet[len(packet)-1] == sum2
}

// Encode assembles a wire-format packet from fields.
func Encode(descriptorSet byte, fields ...Field) ([]byte, error) {
	payloadLen := 0
	for _, f := range fields {
		payloadLen += minFieldLen + len(f.Data)
	}
	if payloadLen > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, payloadLen)
	}

	buf := make([]byte, 0, headerLen+payloadLen+checksumLen)
	buf = append(buf, Sync1, Sync2, descriptorSet, byte(payloadLen))
	for _, f := range fields {
		buf = append(buf, byte(minFieldLen+len(f.Data)), f.Descriptor)
		buf = append(buf, f.Data...)
	}

	sum1, sum2 := Fletcher16(buf)
	return append(buf, sum1, sum2), nil
}

// Fields splits a packet payload into its sub-fields. A field claiming a
// length below the 2-byte minimum or past the end of the payload aborts
// decoding; fields already extracted are returned along with the error.
func (p Packet) Fields() ([]Field, error) {
	var fields []Field

	for off := 0; off < len(p.Payload); {
		fieldLen := int(p.Payload[off])
		if fieldLen < minFieldLen || off+fieldLen > len(p.Payload) {
			return fields, fmt.Errorf("%w: length %d at offset %d", ErrMalformedField, fieldLen, off)
		}
		fields = append(fields, Field{
			Descriptor: p.Payload[off+1],
			Data:       p.Payload[off+minFieldLen : off+fieldLen],
		})
		off += fieldLen
	}

	return fields, nil
}
