package mip

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Descriptor sets. Field descriptor bytes are only meaningful relative to
// the set of the enclosing packet: 0x05 is a gyro reading inside an IMU
// packet but Euler angles inside a filter packet.
const (
	DescSetBase    = 0x01 // Base commands (ping, idle, resume)
	DescSet3DM     = 0x0C // 3DM configuration commands
	DescSetIMUData = 0x80 // Raw IMU data stream
	DescSetFilter  = 0x82 // Estimation filter (AHRS) data stream
)

// Base command field descriptors (descriptor set 0x01).
const (
	CmdPing      = 0x01
	CmdSetToIdle = 0x02
	CmdResume    = 0x06
)

// IMU data field descriptors (descriptor set 0x80).
const (
	IMUScaledAccel = 0x04 // 3x float32, g
	IMUScaledGyro  = 0x05 // 3x float32, rad/s
	IMUScaledMag   = 0x06 // 3x float32, gauss
	IMUDeltaTheta  = 0x07
	IMUDeltaVel    = 0x08
)

// Filter data field descriptors (descriptor set 0x82).
const (
	FilterQuaternion  = 0x03 // 4x float32, w x y z
	FilterEulerAngles = 0x05 // 3x float32, roll pitch yaw, rad
	FilterAngularRate = 0x0E // 3x float32, compensated, rad/s
	FilterTimestamp   = 0x11
)

// Vector3 is a three-axis sample.
type Vector3 struct {
	X, Y, Z float32
}

// EulerAngles in radians.
type EulerAngles struct {
	Roll, Pitch, Yaw float32
}

// Quaternion attitude, scalar first.
type Quaternion struct {
	W, X, Y, Z float32
}

// Float32BE decodes a big-endian IEEE-754 value bit-exactly.
func Float32BE(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// Uint16BE decodes a big-endian status or flags word.
func Uint16BE(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// Uint32BE decodes a big-endian 32-bit counter or timestamp.
func Uint32BE(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// Uint64BE decodes a big-endian 64-bit timestamp.
func Uint64BE(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// PutFloat32BE encodes a big-endian IEEE-754 value bit-exactly.
func PutFloat32BE(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}

// DecodeVector3 decodes a 12-byte three-float field body.
func DecodeVector3(data []byte) (Vector3, error) {
	if len(data) < 12 {
		return Vector3{}, fmt.Errorf("%w: vector field is %d bytes", ErrMalformedField, len(data))
	}
	return Vector3{
		X: Float32BE(data[0:4]),
		Y: Float32BE(data[4:8]),
		Z: Float32BE(data[8:12]),
	}, nil
}

// DecodeEulerAngles decodes a 12-byte roll/pitch/yaw field body.
func DecodeEulerAngles(data []byte) (EulerAngles, error) {
	v, err := DecodeVector3(data)
	if err != nil {
		return EulerAngles{}, err
	}
	return EulerAngles{Roll: v.X, Pitch: v.Y, Yaw: v.Z}, nil
}

// DecodeQuaternion decodes a 16-byte attitude field body.
func DecodeQuaternion(data []byte) (Quaternion, error) {
	if len(data) < 16 {
		return Quaternion{}, fmt.Errorf("%w: quaternion field is %d bytes", ErrMalformedField, len(data))
	}
	return Quaternion{
		W: Float32BE(data[0:4]),
		X: Float32BE(data[4:8]),
		Y: Float32BE(data[8:12]),
		Z: Float32BE(data[12:16]),
	}, nil
}

// PingPacket builds a base-set ping command.
func PingPacket() []byte {
	p, _ := Encode(DescSetBase, Field{Descriptor: CmdPing})
	return p
}

// SetToIdlePacket builds the command that pauses autonomous streaming.
func SetToIdlePacket() []byte {
	p, _ := Encode(DescSetBase, Field{Descriptor: CmdSetToIdle})
	return p
}

// ResumePacket builds the command that resumes autonomous streaming.
func ResumePacket() []byte {
	p, _ := Encode(DescSetBase, Field{Descriptor: CmdResume})
	return p
}
