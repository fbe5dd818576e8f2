package pmx

import (
	"bytes"
	"errors"
	"testing"
)

func TestProtocol_MemReadFrame(t *testing.T) {
	p := NewProtocol()

	// Read 6 bytes from address 300 (0x012C) on servo ID 0:
	// FE FE 00 0B A0 00 2C 01 06 DA 02
	// Checksum = sum of all preceding bytes = 0x02DA, low byte first
	frame, err := p.MemReadFrame(0, 300, 6)
	if err != nil {
		t.Fatalf("MemReadFrame failed: %v", err)
	}
	expected := []byte{0xFE, 0xFE, 0x00, 0x0B, 0xA0, 0x00, 0x2C, 0x01, 0x06, 0xDA, 0x02}

	if !bytes.Equal(frame, expected) {
		t.Errorf("MemReadFrame: got %X, want %X", frame, expected)
	}
}

func TestProtocol_MemReadFrameRejectsBadSize(t *testing.T) {
	p := NewProtocol()

	for _, size := range []int{-1, 0, 244, 500} {
		if _, err := p.MemReadFrame(0, 0, size); !errors.Is(err, ErrFormat) {
			t.Errorf("size %d: got %v, want ErrFormat", size, err)
		}
	}
}

func TestProtocol_MemWriteFrame(t *testing.T) {
	p := NewProtocol()

	// Write 0x01 to the torque switch register (500 = 0x01F4) on servo 1:
	// FE FE 01 0B A1 00 F4 01 01 9F 03
	frame, err := p.MemWriteFrame(1, 500, []byte{0x01}, 0)
	if err != nil {
		t.Fatalf("MemWriteFrame failed: %v", err)
	}
	expected := []byte{0xFE, 0xFE, 0x01, 0x0B, 0xA1, 0x00, 0xF4, 0x01, 0x01, 0x9F, 0x03}

	if !bytes.Equal(frame, expected) {
		t.Errorf("MemWriteFrame: got %X, want %X", frame, expected)
	}
}

func TestProtocol_MotorWriteSwitchFrame(t *testing.T) {
	p := NewProtocol()

	// Torque on for servo 1: FE FE 01 08 A5 01 AB 02
	frame, err := p.MotorWriteSwitchFrame(1, TorqueSwitchOn)
	if err != nil {
		t.Fatalf("MotorWriteSwitchFrame failed: %v", err)
	}
	expected := []byte{0xFE, 0xFE, 0x01, 0x08, 0xA5, 0x01, 0xAB, 0x02}

	if !bytes.Equal(frame, expected) {
		t.Errorf("MotorWriteSwitchFrame: got %X, want %X", frame, expected)
	}
}

func TestProtocol_MotorWriteSwitchFrameRejectsBadSwitch(t *testing.T) {
	p := NewProtocol()

	// Combined and unknown values are not valid switch commands.
	for _, sw := range []byte{0x00, 0x03, 0x10, 0xFF} {
		if _, err := p.MotorWriteSwitchFrame(1, sw); !errors.Is(err, ErrFormat) {
			t.Errorf("switch %02X: got %v, want ErrFormat", sw, err)
		}
	}
}

func TestProtocol_Validate(t *testing.T) {
	p := NewProtocol()

	// MemREAD reply echoes the command with bit 7 cleared (0xA0 -> 0x20).
	resp := []byte{0xFE, 0xFE, 0x00, 0x0E, 0x20, 0x00, 0x10, 0x27, 0x00, 0x00, 0xE8, 0x03, 0x4C, 0x03}

	if r := p.Validate(resp, CmdMemRead); !r.Ok() {
		t.Errorf("Validate: got %v, want OK", r)
	}

	// Wrong command echo
	if r := p.Validate(resp, CmdMemWrite); r != ResultReceiveError {
		t.Errorf("wrong echo: got %v, want ResultReceiveError", r)
	}

	// Corrupted checksum
	bad := append([]byte(nil), resp...)
	bad[len(bad)-2] ^= 0xFF
	if r := p.Validate(bad, CmdMemRead); r != ResultChecksumError {
		t.Errorf("bad checksum: got %v, want ResultChecksumError", r)
	}

	// Wrong header
	bad = append([]byte(nil), resp...)
	bad[0] = 0xFD
	if r := p.Validate(bad, CmdMemRead); r != ResultReceiveError {
		t.Errorf("bad header: got %v, want ResultReceiveError", r)
	}

	// Truncated frame
	if r := p.Validate(resp[:5], CmdMemRead); r != ResultReceiveError {
		t.Errorf("short frame: got %v, want ResultReceiveError", r)
	}
}

func TestProtocol_Decode(t *testing.T) {
	p := NewProtocol()

	resp := []byte{0xFE, 0xFE, 0x01, 0x0E, 0x20, 0x04, 0x10, 0x27, 0x00, 0x00, 0xE8, 0x03, 0x51, 0x03}

	f := p.Decode(resp)
	if f.ID != 1 {
		t.Errorf("ID: got %d, want 1", f.ID)
	}
	if f.Cmd != 0x20 {
		t.Errorf("Cmd: got %02X, want 20", f.Cmd)
	}
	if f.Status() != StatusCommError {
		t.Errorf("Status: got %v, want communication error bit", f.Status())
	}
	if len(f.Payload) != 6 {
		t.Errorf("Payload length: got %d, want 6", len(f.Payload))
	}
}

func TestChecksum(t *testing.T) {
	// Additive sum with carry into the high byte.
	if sum := Checksum([]byte{0xFF, 0xFF, 0x02}); sum != 0x0200 {
		t.Errorf("Checksum: got %04X, want 0200", sum)
	}
	if sum := Checksum(nil); sum != 0 {
		t.Errorf("Checksum(nil): got %04X, want 0", sum)
	}
}

func TestReceiveDataSize(t *testing.T) {
	cases := []struct {
		flags byte
		want  int
	}{
		{RecvNone, 0},
		{RecvPosition, 2},
		{RecvPosition | RecvVoltage, 4},
		{RecvFull, 16},
	}
	for _, tc := range cases {
		if got := ReceiveDataSize(tc.flags); got != tc.want {
			t.Errorf("ReceiveDataSize(%02X): got %d, want %d", tc.flags, got, tc.want)
		}
	}
}

func TestResult(t *testing.T) {
	r := ResultTimeout | Result(StatusMotorError)

	if r.Ok() {
		t.Error("timeout result reported Ok")
	}
	if !errors.Is(r.Err(), ErrTimeout) {
		t.Errorf("Err: got %v, want ErrTimeout", r.Err())
	}
	if r.Status() != StatusMotorError {
		t.Errorf("Status: got %v, want motor error bit", r.Status())
	}

	ok := Result(StatusRunError)
	if !ok.Ok() {
		t.Error("status-only result reported not Ok")
	}
	if ok.Err() != nil {
		t.Errorf("status-only Err: got %v, want nil", ok.Err())
	}
}

func TestMotorStateDecode(t *testing.T) {
	var m MotorState

	// Position (signed in position mode) + voltage
	data := []byte{0x18, 0xFC, 0x2E, 0x2E} // -1000, 11822
	if !m.decode(data, RecvPosition|RecvVoltage, ModePosition) {
		t.Fatal("decode failed")
	}
	if m.Position != -1000 {
		t.Errorf("Position: got %d, want -1000", m.Position)
	}
	if m.Voltage != 11822 {
		t.Errorf("Voltage: got %d, want 11822", m.Voltage)
	}
	if m.Speed != SentinelInt32 {
		t.Errorf("unselected Speed: got %d, want sentinel", m.Speed)
	}

	// Outside position mode the raw encoder count is unsigned.
	if !m.decode([]byte{0x18, 0xFC}, RecvPosition, ModeSpeed) {
		t.Fatal("decode failed")
	}
	if m.Position != 0xFC18 {
		t.Errorf("unsigned Position: got %d, want %d", m.Position, 0xFC18)
	}

	// Size mismatch leaves every channel at the sentinel.
	if m.decode([]byte{0x01}, RecvPosition, ModePosition) {
		t.Error("decode accepted short data")
	}
	if m.Position != SentinelInt32 {
		t.Errorf("Position after failure: got %d, want sentinel", m.Position)
	}
}
