package pmx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Normalization modes
const (
	NormModeRaw       = 0 // Raw servo values (centidegrees)
	NormModeRange100  = 1 // Normalized to 0-100 range
	NormModeRangeM100 = 2 // Normalized to -100 to +100 range
	NormModeDegrees   = 3 // Degrees across the calibrated range
)

// JointCalibration defines calibration parameters for one servo joint.
// Positions are in centidegrees, matching the servo's native unit.
type JointCalibration struct {
	ID           byte  `json:"id"`
	DriveMode    int   `json:"drive_mode"`    // Drive direction (0=normal, 1=inverted)
	CenterOffset int32 `json:"center_offset"` // Written to the servo's offset register
	RangeMin     int32 `json:"range_min"`     // Minimum usable position
	RangeMax     int32 `json:"range_max"`     // Maximum usable position
	NormMode     int   `json:"norm_mode,omitempty"`
}

// NewJointCalibration creates a calibration with full-range defaults.
func NewJointCalibration(id byte) *JointCalibration {
	return &JointCalibration{
		ID:       id,
		RangeMin: -ModelSAV70.PositionRange,
		RangeMax: ModelSAV70.PositionRange,
		NormMode: NormModeDegrees,
	}
}

// Validate checks if the calibration parameters are valid.
func (c *JointCalibration) Validate() error {
	if c.ID > MaxServoID {
		return fmt.Errorf("invalid servo ID: %d (must be 0-%d)", c.ID, MaxServoID)
	}

	if c.RangeMin >= c.RangeMax {
		return fmt.Errorf("invalid range: min (%d) must be less than max (%d)", c.RangeMin, c.RangeMax)
	}

	if c.NormMode < NormModeRaw || c.NormMode > NormModeDegrees {
		return fmt.Errorf("invalid normalization mode: %d", c.NormMode)
	}

	return nil
}

// RangeSize returns the usable range size in centidegrees.
func (c *JointCalibration) RangeSize() int32 {
	return c.RangeMax - c.RangeMin
}

// CenterPosition returns the center of the calibrated range.
func (c *JointCalibration) CenterPosition() int32 {
	return (c.RangeMin + c.RangeMax) / 2
}

func (c *JointCalibration) String() string {
	direction := "Normal"
	if c.DriveMode != 0 {
		direction = "Inverted"
	}
	return fmt.Sprintf("ID %d: Range[%d-%d] %s (offset: %d)",
		c.ID, c.RangeMin, c.RangeMax, direction, c.CenterOffset)
}

// Normalize converts a raw servo position to a normalized value.
func (c *JointCalibration) Normalize(rawValue int32) (float64, error) {
	if c.RangeMax == c.RangeMin {
		return 0, fmt.Errorf("invalid calibration: min and max are equal")
	}

	center := float64(c.RangeMin+c.RangeMax) / 2.0
	halfRange := float64(c.RangeMax-c.RangeMin) / 2.0

	var normalized float64
	switch c.NormMode {
	case NormModeRaw:
		normalized = float64(rawValue)
	case NormModeRange100:
		normalized = float64(rawValue-c.RangeMin) / float64(c.RangeMax-c.RangeMin) * 100.0
		normalized = math.Max(0, math.Min(100, normalized))
	case NormModeRangeM100:
		normalized = (float64(rawValue) - center) / halfRange * 100.0
		normalized = math.Max(-100, math.Min(100, normalized))
	case NormModeDegrees:
		// Centidegrees to degrees, relative to the range center.
		normalized = (float64(rawValue) - center) / 100.0
	default:
		return 0, fmt.Errorf("unknown normalization mode: %d", c.NormMode)
	}

	if c.DriveMode != 0 {
		switch c.NormMode {
		case NormModeRaw:
			normalized = 2*center - normalized
		case NormModeRange100:
			normalized = 100.0 - normalized
		default:
			normalized = -normalized
		}
	}

	return normalized, nil
}

// Denormalize converts a normalized value back to a raw servo position.
func (c *JointCalibration) Denormalize(normalizedValue float64) (int32, error) {
	if c.RangeMax == c.RangeMin {
		return 0, fmt.Errorf("invalid calibration: min and max are equal")
	}

	center := float64(c.RangeMin+c.RangeMax) / 2.0
	halfRange := float64(c.RangeMax-c.RangeMin) / 2.0

	adjusted := normalizedValue
	if c.DriveMode != 0 {
		switch c.NormMode {
		case NormModeRaw:
			adjusted = 2*center - normalizedValue
		case NormModeRange100:
			adjusted = 100.0 - normalizedValue
		default:
			adjusted = -normalizedValue
		}
	}

	var rawValue int32
	switch c.NormMode {
	case NormModeRaw:
		rawValue = int32(math.Round(adjusted))
	case NormModeRange100:
		clamped := math.Max(0, math.Min(100, adjusted))
		rawValue = int32(math.Round(clamped/100.0*float64(c.RangeMax-c.RangeMin) + float64(c.RangeMin)))
	case NormModeRangeM100:
		clamped := math.Max(-100, math.Min(100, adjusted))
		rawValue = int32(math.Round(center + clamped/100.0*halfRange))
	case NormModeDegrees:
		rawValue = int32(math.Round(center + adjusted*100.0))
	default:
		return 0, fmt.Errorf("unknown normalization mode: %d", c.NormMode)
	}

	if rawValue < c.RangeMin {
		rawValue = c.RangeMin
	}
	if rawValue > c.RangeMax {
		rawValue = c.RangeMax
	}

	return rawValue, nil
}

// Apply writes the center offset to the servo. Call during initialization.
func (c *JointCalibration) Apply(ctx context.Context, servo *Servo) error {
	return servo.WriteRegister(ctx, RegCenterOffset, c.CenterOffset)
}

// CaptureCenter reads the servo's current position and stores it as the
// new center offset, so the present pose becomes zero.
func (c *JointCalibration) CaptureCenter(ctx context.Context, servo *Servo) error {
	pos, err := servo.Position(ctx)
	if err != nil {
		return err
	}
	c.CenterOffset = pos
	return nil
}

// LoadCalibrations loads calibration data from a JSON file keyed by joint
// name.
func LoadCalibrations(filename string) (map[byte]*JointCalibration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var jointMap map[string]*JointCalibration
	if err := json.Unmarshal(data, &jointMap); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	result := make(map[byte]*JointCalibration)
	for jointName, cal := range jointMap {
		if cal.NormMode == 0 {
			cal.NormMode = NormModeDegrees
		}

		if err := cal.Validate(); err != nil {
			return nil, fmt.Errorf("invalid calibration for joint %s: %w", jointName, err)
		}

		if _, exists := result[cal.ID]; exists {
			return nil, fmt.Errorf("duplicate servo ID %d found in calibration file", cal.ID)
		}

		result[cal.ID] = cal
	}

	return result, nil
}

// SaveCalibrations saves calibration data to a JSON file keyed by joint
// name. IDs without a name are stored as "joint_<id>".
func SaveCalibrations(filename string, calibrations map[byte]*JointCalibration, jointNames map[byte]string) error {
	jointMap := make(map[string]*JointCalibration)

	for id, cal := range calibrations {
		jointName, exists := jointNames[id]
		if !exists {
			jointName = fmt.Sprintf("joint_%d", id)
		}
		jointMap[jointName] = cal
	}

	data, err := json.MarshalIndent(jointMap, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibrations: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}

	return nil
}
