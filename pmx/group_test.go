package pmx

import (
	"context"
	"testing"
	"time"

	"github.com/ueti999/robolink/transports"
)

func TestServoGroup_SetPositions(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte{
			0xFE, 0xFE, 0x01, 0x09, 0x25, 0x00, 0x01, 0x2C, 0x02,
			0xFE, 0xFE, 0x02, 0x09, 0x25, 0x00, 0x01, 0x2D, 0x02,
		},
	}
	bus, err := NewBus(BusConfig{Transport: mock, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewBus failed: %v", err)
	}
	defer bus.Close()

	group := NewServoGroupByIDs(bus, 1, 2)
	err = group.SetPositions(context.Background(), PositionMap{1: 1000, 2: -1000})
	if err != nil {
		t.Fatalf("SetPositions failed: %v", err)
	}

	// Two MotorWRITE requests on the wire, in group order
	if len(mock.WriteData) != 2*10 {
		t.Fatalf("wrote %d bytes, want 20", len(mock.WriteData))
	}
	first, second := mock.WriteData[:10], mock.WriteData[10:]
	if first[2] != 1 || first[4] != CmdMotorWrite {
		t.Errorf("first request: got % X", first)
	}
	if second[2] != 2 || second[4] != CmdMotorWrite {
		t.Errorf("second request: got % X", second)
	}
	// Goal bytes are little-endian int16
	if first[6] != 0xE8 || first[7] != 0x03 {
		t.Errorf("first goal: got % X, want E8 03", first[6:8])
	}
	if second[6] != 0x18 || second[7] != 0xFC {
		t.Errorf("second goal: got % X, want 18 FC", second[6:8])
	}
}

func TestServoGroup_PoseRequiresCalibration(t *testing.T) {
	mock := &transports.MockTransport{}
	bus, _ := NewBus(BusConfig{Transport: mock, Timeout: 50 * time.Millisecond})
	defer bus.Close()

	group := NewServoGroupByIDs(bus, 1)
	err := group.SetPose(context.Background(), map[byte]float64{1: 45})
	if err == nil {
		t.Error("expected error without calibration")
	}
	if len(mock.WriteData) != 0 {
		t.Errorf("unexpected bus traffic: %X", mock.WriteData)
	}
}

func TestServoGroup_SetPoseDenormalizes(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte{0xFE, 0xFE, 0x01, 0x09, 0x25, 0x00, 0x01, 0x2C, 0x02},
	}
	bus, _ := NewBus(BusConfig{Transport: mock, Timeout: 100 * time.Millisecond})
	defer bus.Close()

	group := NewServoGroupByIDs(bus, 1)
	group.SetCalibrations(map[byte]*JointCalibration{
		1: {ID: 1, RangeMin: -9000, RangeMax: 9000, NormMode: NormModeDegrees},
	})

	if err := group.SetPose(context.Background(), map[byte]float64{1: 45}); err != nil {
		t.Fatalf("SetPose failed: %v", err)
	}

	// 45 degrees = 4500 centidegrees = 0x1194 little-endian
	if len(mock.WriteData) != 10 {
		t.Fatalf("wrote %d bytes, want 10", len(mock.WriteData))
	}
	if mock.WriteData[6] != 0x94 || mock.WriteData[7] != 0x11 {
		t.Errorf("goal bytes: got % X, want 94 11", mock.WriteData[6:8])
	}
}
