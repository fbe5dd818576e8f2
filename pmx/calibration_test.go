package pmx

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestJointCalibrationValidation(t *testing.T) {
	tests := []struct {
		name        string
		calibration *JointCalibration
		expectError bool
	}{
		{
			name: "valid calibration",
			calibration: &JointCalibration{
				ID:       1,
				RangeMin: -9000,
				RangeMax: 9000,
				NormMode: NormModeDegrees,
			},
			expectError: false,
		},
		{
			name: "invalid ID",
			calibration: &JointCalibration{
				ID:       250, // Above the addressable range
				RangeMin: -9000,
				RangeMax: 9000,
				NormMode: NormModeDegrees,
			},
			expectError: true,
		},
		{
			name: "invalid range - min >= max",
			calibration: &JointCalibration{
				ID:       1,
				RangeMin: 9000,
				RangeMax: -9000,
				NormMode: NormModeDegrees,
			},
			expectError: true,
		},
		{
			name: "invalid norm mode",
			calibration: &JointCalibration{
				ID:       1,
				RangeMin: -9000,
				RangeMax: 9000,
				NormMode: 99,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.calibration.Validate()
			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestJointCalibrationNormalize(t *testing.T) {
	cal := &JointCalibration{
		ID:       1,
		RangeMin: -9000,
		RangeMax: 9000,
		NormMode: NormModeDegrees,
	}

	// Center of range is zero degrees
	v, err := cal.Normalize(0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if v != 0 {
		t.Errorf("center: got %v, want 0", v)
	}

	// 4500 centidegrees is 45 degrees
	v, _ = cal.Normalize(4500)
	if v != 45 {
		t.Errorf("4500: got %v, want 45", v)
	}

	// Inverted drive flips the sign
	cal.DriveMode = 1
	v, _ = cal.Normalize(4500)
	if v != -45 {
		t.Errorf("inverted 4500: got %v, want -45", v)
	}
}

func TestJointCalibrationRoundTrip(t *testing.T) {
	modes := []int{NormModeRaw, NormModeRange100, NormModeRangeM100, NormModeDegrees}

	for _, mode := range modes {
		cal := &JointCalibration{
			ID:       2,
			RangeMin: -12000,
			RangeMax: 6000,
			NormMode: mode,
		}

		for _, raw := range []int32{-12000, -3000, 0, 4500, 6000} {
			norm, err := cal.Normalize(raw)
			if err != nil {
				t.Fatalf("mode %d: Normalize(%d) failed: %v", mode, raw, err)
			}
			back, err := cal.Denormalize(norm)
			if err != nil {
				t.Fatalf("mode %d: Denormalize(%v) failed: %v", mode, norm, err)
			}
			if math.Abs(float64(back-raw)) > 1 {
				t.Errorf("mode %d: round trip %d -> %v -> %d", mode, raw, norm, back)
			}
		}
	}
}

func TestJointCalibrationDenormalizeClamps(t *testing.T) {
	cal := &JointCalibration{
		ID:       1,
		RangeMin: -9000,
		RangeMax: 9000,
		NormMode: NormModeDegrees,
	}

	raw, err := cal.Denormalize(500) // Well past the range
	if err != nil {
		t.Fatalf("Denormalize failed: %v", err)
	}
	if raw != 9000 {
		t.Errorf("clamped value: got %d, want 9000", raw)
	}
}

func TestCalibrationFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")

	cals := map[byte]*JointCalibration{
		1: {ID: 1, RangeMin: -9000, RangeMax: 9000, NormMode: NormModeDegrees, CenterOffset: 120},
		2: {ID: 2, RangeMin: -4500, RangeMax: 4500, NormMode: NormModeRangeM100, DriveMode: 1},
	}
	names := map[byte]string{1: "shoulder", 2: "elbow"}

	if err := SaveCalibrations(path, cals, names); err != nil {
		t.Fatalf("SaveCalibrations failed: %v", err)
	}

	loaded, err := LoadCalibrations(path)
	if err != nil {
		t.Fatalf("LoadCalibrations failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("loaded %d calibrations, want 2", len(loaded))
	}
	if loaded[1].CenterOffset != 120 {
		t.Errorf("center offset: got %d, want 120", loaded[1].CenterOffset)
	}
	if loaded[2].DriveMode != 1 {
		t.Errorf("drive mode: got %d, want 1", loaded[2].DriveMode)
	}
}

func TestLoadCalibrationsRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")

	data := []byte(`{
        "shoulder": {"id": 1, "range_min": -9000, "range_max": 9000},
        "elbow": {"id": 1, "range_min": -9000, "range_max": 9000}
    }`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCalibrations(path); err == nil {
		t.Error("expected error for duplicate IDs, got nil")
	}
}
