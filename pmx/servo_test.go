package pmx

import (
	"context"
	"testing"
	"time"

	"github.com/ueti999/robolink/transports"
)

func newTestServo(t *testing.T, mock *transports.MockTransport) *Servo {
	t.Helper()
	bus, err := NewBus(BusConfig{
		Transport: mock,
		Timeout:   100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBus failed: %v", err)
	}
	t.Cleanup(func() { bus.Close() })
	return NewServo(bus, 1, nil)
}

func TestServo_Position(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte{0xFE, 0xFE, 0x01, 0x0A, 0x20, 0x00, 0xE8, 0x03, 0x12, 0x03},
	}
	servo := newTestServo(t, mock)

	pos, err := servo.Position(context.Background())
	if err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	if pos != 1000 {
		t.Errorf("position: got %d, want 1000", pos)
	}
}

func TestServo_StatusBitsBecomeError(t *testing.T) {
	// Same reply but with the communication error status bit set
	mock := &transports.MockTransport{
		ReadData: []byte{0xFE, 0xFE, 0x01, 0x0A, 0x20, 0x04, 0xE8, 0x03, 0x16, 0x03},
	}
	servo := newTestServo(t, mock)

	_, err := servo.Position(context.Background())
	se, ok := GetServoError(err)
	if !ok {
		t.Fatalf("error: got %v, want ServoError", err)
	}
	if se.Status != StatusCommError {
		t.Errorf("status: got %v, want communication error bit", se.Status)
	}
	if se.ID != 1 {
		t.Errorf("ID: got %d, want 1", se.ID)
	}
}

func TestServo_ReadRegisterWidths(t *testing.T) {
	// 32-bit gain register: value 1000000
	mock := &transports.MockTransport{
		ReadData: []byte{0xFE, 0xFE, 0x01, 0x0C, 0x20, 0x00, 0x40, 0x42, 0x0F, 0x00, 0xBA, 0x02},
	}
	servo := newTestServo(t, mock)

	v, err := servo.ReadRegister(context.Background(), RegPositionKP)
	if err != nil {
		t.Fatalf("ReadRegister failed: %v", err)
	}
	if v != 1000000 {
		t.Errorf("gain: got %d, want 1000000", v)
	}
}

func TestServo_WriteRegisterRejectsReadOnly(t *testing.T) {
	mock := &transports.MockTransport{}
	servo := newTestServo(t, mock)

	if err := servo.WriteRegister(context.Background(), RegNowPosition, 0); err == nil {
		t.Error("expected error writing a read-only register")
	}
	if len(mock.WriteData) != 0 {
		t.Errorf("unexpected bus traffic: %X", mock.WriteData)
	}
}

func TestServo_SetControlModeUpdatesCache(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte{0xFE, 0xFE, 0x01, 0x08, 0x21, 0x00, 0x26, 0x02},
	}
	servo := newTestServo(t, mock)

	if err := servo.SetControlMode(context.Background(), ModePosition|ModeSpeed); err != nil {
		t.Fatalf("SetControlMode failed: %v", err)
	}
	if servo.ControlMode() != ModePosition|ModeSpeed {
		t.Errorf("cached mode: got %02X, want %02X", servo.ControlMode(), ModePosition|ModeSpeed)
	}
}
