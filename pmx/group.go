package pmx

import (
	"context"
	"fmt"
)

// PositionMap maps servo ID to a position in centidegrees.
type PositionMap map[byte]int32

// ServoGroup manages coordinated operations across multiple servos. The
// protocol has no broadcast write, so group operations are sequential
// transactions; a failure aborts the remainder and reports the servo it
// stopped on.
type ServoGroup struct {
	bus    *Bus
	servos []*Servo
	ids    []byte

	calibrations map[byte]*JointCalibration
}

// NewServoGroup creates a new group from the given servos.
func NewServoGroup(bus *Bus, servos ...*Servo) *ServoGroup {
	ids := make([]byte, len(servos))
	for i, s := range servos {
		ids[i] = s.ID()
	}
	return &ServoGroup{
		bus:    bus,
		servos: servos,
		ids:    ids,
	}
}

// NewServoGroupByIDs creates servos with the given IDs and groups them.
func NewServoGroupByIDs(bus *Bus, ids ...byte) *ServoGroup {
	servos := make([]*Servo, len(ids))
	for i, id := range ids {
		servos[i] = NewServo(bus, id, nil)
	}
	return NewServoGroup(bus, servos...)
}

// Servos returns the servos in this group.
func (g *ServoGroup) Servos() []*Servo {
	return g.servos
}

// IDs returns the servo IDs in this group.
func (g *ServoGroup) IDs() []byte {
	return g.ids
}

// ServoByID returns the servo with the given ID, or nil if not found.
func (g *ServoGroup) ServoByID(id byte) *Servo {
	for _, s := range g.servos {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// SetCalibrations attaches per-joint calibrations, enabling the normalized
// pose operations.
func (g *ServoGroup) SetCalibrations(cals map[byte]*JointCalibration) {
	g.calibrations = cals
}

// ApplyCalibrations writes every joint's center offset to its servo.
func (g *ServoGroup) ApplyCalibrations(ctx context.Context) error {
	for _, s := range g.servos {
		cal, ok := g.calibrations[s.ID()]
		if !ok {
			continue
		}
		if err := cal.Apply(ctx, s); err != nil {
			return fmt.Errorf("servo %d: %w", s.ID(), err)
		}
	}
	return nil
}

// Positions reads the current position of every servo in the group.
func (g *ServoGroup) Positions(ctx context.Context) (PositionMap, error) {
	positions := make(PositionMap, len(g.servos))
	for _, s := range g.servos {
		pos, err := s.Position(ctx)
		if err != nil {
			return positions, fmt.Errorf("servo %d: %w", s.ID(), err)
		}
		positions[s.ID()] = pos
	}
	return positions, nil
}

// SetPositions commands each servo present in the map to its position.
func (g *ServoGroup) SetPositions(ctx context.Context, positions PositionMap) error {
	for _, s := range g.servos {
		pos, ok := positions[s.ID()]
		if !ok {
			continue
		}
		if _, err := s.SetPosition(ctx, int16(pos)); err != nil {
			return fmt.Errorf("servo %d: %w", s.ID(), err)
		}
	}
	return nil
}

// Pose reads all positions and normalizes them through the joint
// calibrations. Joints without a calibration are skipped.
func (g *ServoGroup) Pose(ctx context.Context) (map[byte]float64, error) {
	positions, err := g.Positions(ctx)
	if err != nil {
		return nil, err
	}

	pose := make(map[byte]float64, len(positions))
	for id, raw := range positions {
		cal, ok := g.calibrations[id]
		if !ok {
			continue
		}
		v, err := cal.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("servo %d: %w", id, err)
		}
		pose[id] = v
	}
	return pose, nil
}

// SetPose denormalizes each value through its joint calibration and
// commands the servos. Every joint in the pose must have a calibration.
func (g *ServoGroup) SetPose(ctx context.Context, pose map[byte]float64) error {
	positions := make(PositionMap, len(pose))
	for id, v := range pose {
		cal, ok := g.calibrations[id]
		if !ok {
			return fmt.Errorf("servo %d: no calibration", id)
		}
		raw, err := cal.Denormalize(v)
		if err != nil {
			return fmt.Errorf("servo %d: %w", id, err)
		}
		positions[id] = raw
	}
	return g.SetPositions(ctx, positions)
}

// TorqueOnAll enables torque on every servo in the group.
func (g *ServoGroup) TorqueOnAll(ctx context.Context) error {
	for _, s := range g.servos {
		if _, err := s.TorqueOn(ctx); err != nil {
			return fmt.Errorf("servo %d: %w", s.ID(), err)
		}
	}
	return nil
}

// FreeAll releases every servo in the group.
func (g *ServoGroup) FreeAll(ctx context.Context) error {
	for _, s := range g.servos {
		if _, err := s.Free(ctx); err != nil {
			return fmt.Errorf("servo %d: %w", s.ID(), err)
		}
	}
	return nil
}
