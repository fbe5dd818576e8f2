// Package pmx implements the Kondo Kagaku PMX servo protocol: frame
// assembly and validation, the half-duplex request/response bus, the RAM
// register map and a high-level per-servo API.
package pmx

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Packet header byte. Both header positions carry the same value. A variant
// header (0xFD) exists for bootloader traffic and can be set per Protocol.
const DefaultHeader = 0xFE

// Special ID values.
const (
	BroadcastID = 0xFF
	MaxServoID  = 239
)

// Command opcodes per the PMX protocol specification.
const (
	CmdMemRead      byte = 0xA0
	CmdMemWrite     byte = 0xA1
	CmdLoad         byte = 0xA2
	CmdSave         byte = 0xA3
	CmdMotorRead    byte = 0xA4
	CmdMotorWrite   byte = 0xA5
	CmdSystemRead   byte = 0xBB
	CmdSystemWrite  byte = 0xBC
	CmdReboot       byte = 0xBD
	CmdFactoryReset byte = 0xBE
)

// Frame layout offsets.
const (
	offHeader = 0
	offID     = 2
	offLength = 3
	offCmd    = 4
	offOption = 5
	offStatus = 5
	offData   = 6
)

// minFrameLen is the smallest legal frame:
// header(2) + id(1) + length(1) + cmd(1) + option(1) + checksum(2).
const minFrameLen = 8

// maxPayloadLen bounds the payload so the 1-byte length field cannot wrap.
const maxPayloadLen = 244

// Sentinel values substituted into outputs on any transport-level error.
const (
	SentinelByte   byte   = 0xFF
	SentinelUint16 uint16 = 0x7FFF
	SentinelUint32 uint32 = 0x7FFFFFFF
)

// SentinelInt32 is the signed view of SentinelUint32, used for motor data.
const SentinelInt32 int32 = 0x7FFFFFFF

// Receive-data option flags for MotorREAD/MotorWRITE. Each set bit adds one
// int16 channel to the reply, in this order.
const (
	RecvNone      byte = 0x00
	RecvPosition  byte = 0x01
	RecvSpeed     byte = 0x02
	RecvCurrent   byte = 0x04
	RecvTorque    byte = 0x08
	RecvPWM       byte = 0x10
	RecvMotorTemp byte = 0x20
	RecvCPUTemp   byte = 0x40
	RecvVoltage   byte = 0x80
	RecvFull      byte = 0xFF
)

// Control mode flags. Combinations are additive (e.g. position+speed = 0x03).
const (
	ModePosition byte = 0x01
	ModeSpeed    byte = 0x02
	ModeCurrent  byte = 0x04
	ModeTorque   byte = 0x08
	ModePWM      byte = 0x10
	ModeTime     byte = 0x20
)

// Torque switch values used as the MotorWRITE option byte.
const (
	TorqueSwitchControl byte = 0x00
	TorqueSwitchOn      byte = 0x01
	TorqueSwitchFree    byte = 0x02
	TorqueSwitchBrake   byte = 0x04
	TorqueSwitchHold    byte = 0x08
	TorqueSwitchMask    byte = 0x0F
	TorqueSwitchError   byte = 0xFF
)

// Trajectory generation types for time-based control.
const (
	TrajectoryEven      byte = 0x01
	TrajectoryFifthPoly byte = 0x05
)

// SystemWRITE option bits selecting which parameters to apply.
const (
	SysWriteID           byte = 0x01
	SysWriteBaudRate     byte = 0x02
	SysWriteParity       byte = 0x04
	SysWriteResponseTime byte = 0x08
)

// Baud rate register values (SystemWRITE newBaud field).
const (
	Baud57600   byte = 0x00
	Baud115200  byte = 0x01
	Baud625000  byte = 0x02
	Baud1000000 byte = 0x03
	Baud1250000 byte = 0x04
	Baud1500000 byte = 0x05
	Baud2000000 byte = 0x06
	Baud3000000 byte = 0x07
)

// Parity register values.
const (
	ParityNone byte = 0x00
	ParityOdd  byte = 0x01
	ParityEven byte = 0x02
)

// LED lighting modes.
const (
	LedModeNormal byte = 0x00
	LedModeOff    byte = 0x01
)

// Clone/reverse register values.
const (
	CloneOn   byte = 0x01
	ReverseOn byte = 0x02
)

// StatusError holds the device status bits from a response frame.
type StatusError byte

const (
	StatusSystemError    StatusError = 1 << 0
	StatusMotorError     StatusError = 1 << 1
	StatusCommError      StatusError = 1 << 2
	StatusCommandError   StatusError = 1 << 3
	StatusRAMAccessError StatusError = 1 << 4
	StatusModeError      StatusError = 1 << 5
	StatusDataError      StatusError = 1 << 6
	StatusRunError       StatusError = 1 << 7
)

func (e StatusError) Error() string {
	if e == 0 {
		return "no error"
	}

	var msgs []string
	if e&StatusSystemError != 0 {
		msgs = append(msgs, "system")
	}
	if e&StatusMotorError != 0 {
		msgs = append(msgs, "motor")
	}
	if e&StatusCommError != 0 {
		msgs = append(msgs, "communication")
	}
	if e&StatusCommandError != 0 {
		msgs = append(msgs, "command")
	}
	if e&StatusRAMAccessError != 0 {
		msgs = append(msgs, "ram access")
	}
	if e&StatusModeError != 0 {
		msgs = append(msgs, "mode")
	}
	if e&StatusDataError != 0 {
		msgs = append(msgs, "data")
	}
	if e&StatusRunError != 0 {
		msgs = append(msgs, "run")
	}

	return fmt.Sprintf("servo status error: %v", msgs)
}

// HasError returns true if any status flag is set.
func (e StatusError) HasError() bool {
	return e != 0
}

// Result is the wire-compatible combined outcome of one transaction: the
// transport-level code in the high byte and the device status byte in the
// low byte. Transport codes occupy 0xFA00-0xFF00 so they can never collide
// with a device status.
type Result uint16

const (
	ResultOK              Result = 0x0000
	ResultTimeout         Result = 0xFF00
	ResultChecksumError   Result = 0xFE00
	ResultFormatError     Result = 0xFD00
	ResultSendError       Result = 0xFC00
	ResultReceiveError    Result = 0xFB00
	ResultConversionError Result = 0xFA00

	resultErrorMask Result = 0xFF00
)

// Ok reports whether the transaction had no transport-level failure. The
// device status byte may still carry error bits; check Status.
func (r Result) Ok() bool {
	return r&resultErrorMask == 0
}

// Status extracts the device status byte.
func (r Result) Status() StatusError {
	return StatusError(r & 0x00FF)
}

// Err maps the transport-level portion to a sentinel error, or nil.
func (r Result) Err() error {
	switch r & resultErrorMask {
	case 0:
		return nil
	case ResultTimeout:
		return ErrTimeout
	case ResultChecksumError:
		return ErrChecksum
	case ResultFormatError:
		return ErrFormat
	case ResultSendError:
		return ErrSend
	case ResultReceiveError:
		return ErrReceive
	case ResultConversionError:
		return ErrConversion
	}
	return ErrReceive
}

func (r Result) String() string {
	if err := r.Err(); err != nil {
		return fmt.Sprintf("0x%04X (%v)", uint16(r), err)
	}
	if r.Status().HasError() {
		return fmt.Sprintf("0x%04X (%v)", uint16(r), r.Status())
	}
	return "OK"
}

// Frame represents one PMX packet.
type Frame struct {
	ID      byte
	Cmd     byte
	Option  byte // request option when sent, device status when received
	Payload []byte
}

// Status returns the option byte interpreted as a response status.
func (f Frame) Status() StatusError {
	return StatusError(f.Option)
}

// Protocol handles frame encoding and validation.
type Protocol struct {
	header byte
}

// NewProtocol creates a protocol handler with the standard 0xFE header.
func NewProtocol() *Protocol {
	return &Protocol{header: DefaultHeader}
}

// NewProtocolWithHeader creates a protocol handler with a variant header byte.
func NewProtocolWithHeader(header byte) *Protocol {
	return &Protocol{header: header}
}

// Checksum computes the additive 16-bit checksum over data.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// AppendChecksum writes the checksum of frame[:len-2] into the trailing two
// bytes, low byte first.
func AppendChecksum(frame []byte) {
	sum := Checksum(frame[:len(frame)-2])
	binary.LittleEndian.PutUint16(frame[len(frame)-2:], sum)
}

// VerifyChecksum recomputes the checksum of a complete frame and compares it
// to the trailing two bytes.
func VerifyChecksum(frame []byte) bool {
	if len(frame) < minFrameLen {
		return false
	}
	sum := Checksum(frame[:len(frame)-2])
	return binary.LittleEndian.Uint16(frame[len(frame)-2:]) == sum
}

// Encode constructs a wire-format frame. The payload may be empty (LOAD,
// SAVE and similar commands carry none) but may not exceed the protocol
// maximum.
func (p *Protocol) Encode(f Frame) ([]byte, error) {
	if len(f.Payload) > maxPayloadLen {
		return nil, fmt.Errorf("%w: payload %d bytes exceeds %d", ErrFormat, len(f.Payload), maxPayloadLen)
	}

	total := minFrameLen + len(f.Payload)
	buf := make([]byte, total)
	buf[offHeader] = p.header
	buf[offHeader+1] = p.header
	buf[offID] = f.ID
	buf[offLength] = byte(total)
	buf[offCmd] = f.Cmd
	buf[offOption] = f.Option
	copy(buf[offData:], f.Payload)
	AppendChecksum(buf)

	return buf, nil
}

// Validate checks a received frame against the command it answers: header
// bytes, command echo (the reply clears bit 7) and checksum. It does not
// inspect the status byte.
func (p *Protocol) Validate(frame []byte, cmd byte) Result {
	if len(frame) < minFrameLen {
		return ResultReceiveError
	}
	if frame[offHeader] != p.header || frame[offHeader+1] != p.header {
		return ResultReceiveError
	}
	if frame[offCmd] != cmd&0x7F {
		return ResultReceiveError
	}
	if !VerifyChecksum(frame) {
		return ResultChecksumError
	}
	return ResultOK
}

// Decode extracts the logical frame from validated wire bytes.
func (p *Protocol) Decode(frame []byte) Frame {
	return Frame{
		ID:      frame[offID],
		Cmd:     frame[offCmd],
		Option:  frame[offStatus],
		Payload: frame[offData : len(frame)-2],
	}
}

// Command frame builders.

// MemReadFrame builds a MemREAD request for size bytes starting at addr.
func (p *Protocol) MemReadFrame(id byte, addr uint16, size int) ([]byte, error) {
	if size <= 0 || size >= maxPayloadLen {
		return nil, fmt.Errorf("%w: read size %d", ErrFormat, size)
	}
	payload := []byte{byte(addr), byte(addr >> 8), byte(size)}
	return p.Encode(Frame{ID: id, Cmd: CmdMemRead, Payload: payload})
}

// MemWriteFrame builds a MemWRITE request writing data at addr.
func (p *Protocol) MemWriteFrame(id byte, addr uint16, data []byte, opt byte) ([]byte, error) {
	if len(data) == 0 || len(data) > maxPayloadLen-2 {
		return nil, fmt.Errorf("%w: write size %d", ErrFormat, len(data))
	}
	payload := make([]byte, 2+len(data))
	payload[0] = byte(addr)
	payload[1] = byte(addr >> 8)
	copy(payload[2:], data)
	return p.Encode(Frame{ID: id, Cmd: CmdMemWrite, Option: opt, Payload: payload})
}

// MotorReadFrame builds a MotorREAD request. The channels returned are
// selected by the servo's stored receive-data flags, not by the request.
func (p *Protocol) MotorReadFrame(id byte) ([]byte, error) {
	return p.Encode(Frame{ID: id, Cmd: CmdMotorRead})
}

// MotorWriteSwitchFrame builds a MotorWRITE request carrying a torque switch
// change in the option byte.
func (p *Protocol) MotorWriteSwitchFrame(id byte, torqueSwitch byte) ([]byte, error) {
	switch torqueSwitch {
	case TorqueSwitchOn, TorqueSwitchFree, TorqueSwitchBrake, TorqueSwitchHold:
	default:
		return nil, fmt.Errorf("%w: torque switch 0x%02X", ErrFormat, torqueSwitch)
	}
	return p.Encode(Frame{ID: id, Cmd: CmdMotorWrite, Option: torqueSwitch})
}

// MotorWriteTargetsFrame builds a MotorWRITE request carrying goal values.
// Targets are ordered position > speed > current > torque > PWM > time per
// the active control mode; each is sent as a little-endian 16-bit value.
func (p *Protocol) MotorWriteTargetsFrame(id byte, targets []int16) ([]byte, error) {
	payload := make([]byte, 2*len(targets))
	for i, v := range targets {
		binary.LittleEndian.PutUint16(payload[2*i:], uint16(v))
	}
	return p.Encode(Frame{ID: id, Cmd: CmdMotorWrite, Option: TorqueSwitchControl, Payload: payload})
}

// LoadFrame builds a LOAD request (flash to RAM).
func (p *Protocol) LoadFrame(id byte) ([]byte, error) {
	return p.Encode(Frame{ID: id, Cmd: CmdLoad})
}

// SaveFrame builds a SAVE request (RAM to flash).
func (p *Protocol) SaveFrame(id byte) ([]byte, error) {
	return p.Encode(Frame{ID: id, Cmd: CmdSave})
}

// SystemReadFrame builds a SystemREAD request. The reply payload carries
// serial number (4), model and series numbers (2+2), firmware version (4)
// and response time (1).
func (p *Protocol) SystemReadFrame(id byte) ([]byte, error) {
	return p.Encode(Frame{ID: id, Cmd: CmdSystemRead})
}

// SystemWriteFrame builds a SystemWRITE request. The current serial number
// must be echoed; option bits select which of the new values apply.
func (p *Protocol) SystemWriteFrame(id byte, serial [4]byte, opt, newID, newBaud, newParity, newResponseTime byte) ([]byte, error) {
	payload := []byte{
		serial[0], serial[1], serial[2], serial[3],
		newID, newBaud, newParity, newResponseTime,
	}
	return p.Encode(Frame{ID: id, Cmd: CmdSystemWrite, Option: opt, Payload: payload})
}

// RebootFrame builds a ReBoot request with a delay before restart, in ms.
func (p *Protocol) RebootFrame(id byte, delay uint16) ([]byte, error) {
	payload := []byte{byte(delay), byte(delay >> 8)}
	return p.Encode(Frame{ID: id, Cmd: CmdReboot, Payload: payload})
}

// FactoryResetFrame builds a FactoryReset request. The device's serial
// number must be echoed as a safety token.
func (p *Protocol) FactoryResetFrame(id byte, serial [4]byte) ([]byte, error) {
	return p.Encode(Frame{ID: id, Cmd: CmdFactoryReset, Payload: serial[:]})
}

// ReceiveDataSize returns the reply payload size selected by receive-data
// flags: two bytes per set bit.
func ReceiveDataSize(flags byte) int {
	return 2 * bits.OnesCount8(flags)
}
