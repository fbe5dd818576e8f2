package pmx

import (
	"context"
	"fmt"
)

// Servo provides a high-level interface for controlling a single servo.
// Unlike the raw Bus operations, Servo methods convert device status bits
// into errors.
type Servo struct {
	bus   *Bus
	id    byte
	model *Model

	// Cached operating configuration, used to decode motor replies. Kept in
	// sync by the setters; call Refresh after changing the registers
	// directly.
	controlMode  byte
	receiveFlags byte
}

// NewServo creates a new Servo instance.
// If model is nil, defaults to the PMX-SAV series.
func NewServo(bus *Bus, id byte, model *Model) *Servo {
	if model == nil {
		model = &ModelSAV70
	}
	return &Servo{
		bus:         bus,
		id:          id,
		model:       model,
		controlMode: ModePosition,
	}
}

// ID returns the servo's ID.
func (s *Servo) ID() byte {
	return s.id
}

// Model returns the servo's model specification.
func (s *Servo) Model() *Model {
	return s.model
}

// SetModel changes the servo's model.
func (s *Servo) SetModel(model *Model) {
	s.model = model
}

// DetectModel queries the servo's identity block and sets the model based
// on the returned model number.
func (s *Servo) DetectModel(ctx context.Context) error {
	info, err := s.SystemInfo(ctx)
	if err != nil {
		return err
	}

	if model, ok := GetModelByNumber(info.ModelNumber); ok {
		s.model = model
	} else {
		return fmt.Errorf("unknown model number: %d", info.ModelNumber)
	}

	return nil
}

// Refresh re-reads the control mode and receive-data flags from the servo.
func (s *Servo) Refresh(ctx context.Context) error {
	mode, err := s.ReadRegister(ctx, RegControlMode)
	if err != nil {
		return err
	}
	flags, err := s.ReadRegister(ctx, RegMotorReceiveData)
	if err != nil {
		return err
	}
	s.controlMode = byte(mode)
	s.receiveFlags = byte(flags)
	return nil
}

// Register access

// ReadRegister reads one register, decoded per its size and signedness.
func (s *Servo) ReadRegister(ctx context.Context, reg Register) (int32, error) {
	data, result, err := s.bus.MemRead(ctx, s.id, reg.Address, reg.Size)
	if err != nil {
		return SentinelInt32, err
	}
	if result.Status().HasError() {
		return SentinelInt32, &ServoError{ID: s.id, Status: result.Status()}
	}

	switch reg.Size {
	case 1:
		return int32(data[0]), nil
	case 2:
		if reg.Signed {
			return int32(BytesToInt16(data)), nil
		}
		return int32(BytesToUint16(data)), nil
	case 4:
		return BytesToInt32(data), nil
	}
	return SentinelInt32, fmt.Errorf("%w: register size %d", ErrInvalidSize, reg.Size)
}

// WriteRegister writes one register, encoded per its size.
func (s *Servo) WriteRegister(ctx context.Context, reg Register, value int32) error {
	if reg.ReadOnly {
		return fmt.Errorf("register at %d is read-only", reg.Address)
	}

	var data []byte
	switch reg.Size {
	case 1:
		data = []byte{byte(value)}
	case 2:
		data = Int16ToBytes(int16(value))
	case 4:
		data = Int32ToBytes(value)
	default:
		return fmt.Errorf("%w: register size %d", ErrInvalidSize, reg.Size)
	}

	result, err := s.bus.MemWrite(ctx, s.id, reg.Address, data)
	if err != nil {
		return err
	}
	if result.Status().HasError() {
		return &ServoError{ID: s.id, Status: result.Status()}
	}
	return nil
}

// Telemetry

// Position reads the current position in centidegrees.
func (s *Servo) Position(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegNowPosition)
}

// Speed reads the current rotation speed.
func (s *Servo) Speed(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegNowSpeed)
}

// Current reads the motor current in mA.
func (s *Servo) Current(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegNowCurrent)
}

// Torque reads the estimated output torque.
func (s *Servo) Torque(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegNowTorque)
}

// PWM reads the current PWM duty percentage.
func (s *Servo) PWM(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegNowPWM)
}

// MotorTemp reads the motor temperature.
func (s *Servo) MotorTemp(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegMotorTemp)
}

// CPUTemp reads the CPU temperature.
func (s *Servo) CPUTemp(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegCPUTemp)
}

// InputVoltage reads the supply voltage in mV.
func (s *Servo) InputVoltage(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegInputVoltage)
}

// EncoderValue reads the raw encoder count.
func (s *Servo) EncoderValue(ctx context.Context) (int32, error) {
	return s.ReadRegister(ctx, RegEncoderValue)
}

// Operating configuration

// ControlMode returns the cached control mode flags.
func (s *Servo) ControlMode() byte {
	return s.controlMode
}

// SetControlMode sets the control mode flags. The torque switch must be in
// free mode for the change to take effect.
func (s *Servo) SetControlMode(ctx context.Context, mode byte) error {
	if err := s.WriteRegister(ctx, RegControlMode, int32(mode)); err != nil {
		return err
	}
	s.controlMode = mode
	return nil
}

// ReceiveFlags returns the cached receive-data flags.
func (s *Servo) ReceiveFlags() byte {
	return s.receiveFlags
}

// SetReceiveFlags selects the channels motor commands report back.
func (s *Servo) SetReceiveFlags(ctx context.Context, flags byte) error {
	if err := s.WriteRegister(ctx, RegMotorReceiveData, int32(flags)); err != nil {
		return err
	}
	s.receiveFlags = flags
	return nil
}

// SetTrajectory selects the interpolation type for time-based control.
func (s *Servo) SetTrajectory(ctx context.Context, trajectory byte) error {
	return s.WriteRegister(ctx, RegTrajectory, int32(trajectory))
}

// Motor control

// TorqueOn enables torque.
func (s *Servo) TorqueOn(ctx context.Context) (MotorState, error) {
	return s.setTorqueSwitch(ctx, TorqueSwitchOn)
}

// Free releases the motor output.
func (s *Servo) Free(ctx context.Context) (MotorState, error) {
	return s.setTorqueSwitch(ctx, TorqueSwitchFree)
}

// Brake engages the short brake.
func (s *Servo) Brake(ctx context.Context) (MotorState, error) {
	return s.setTorqueSwitch(ctx, TorqueSwitchBrake)
}

// Hold keeps the current position under torque.
func (s *Servo) Hold(ctx context.Context) (MotorState, error) {
	return s.setTorqueSwitch(ctx, TorqueSwitchHold)
}

func (s *Servo) setTorqueSwitch(ctx context.Context, sw byte) (MotorState, error) {
	state, result, err := s.bus.MotorWriteSwitch(ctx, s.id, sw, s.receiveFlags, s.controlMode)
	return state, s.check(result, err)
}

// SetGoals sends goal values for every channel of the active control mode,
// ordered position > speed > current > torque > PWM > time.
func (s *Servo) SetGoals(ctx context.Context, targets ...int16) (MotorState, error) {
	state, result, err := s.bus.MotorWriteTargets(ctx, s.id, targets, s.receiveFlags, s.controlMode)
	return state, s.check(result, err)
}

// SetPosition commands a move to the given position in centidegrees. Only
// valid in plain position control mode.
func (s *Servo) SetPosition(ctx context.Context, position int16) (MotorState, error) {
	return s.SetGoals(ctx, position)
}

// MotorState polls the channels selected by the receive-data flags and the
// current torque switch value.
func (s *Servo) MotorState(ctx context.Context) (MotorState, byte, error) {
	state, torqueSwitch, result, err := s.bus.MotorRead(ctx, s.id, s.receiveFlags, s.controlMode)
	return state, torqueSwitch, s.check(result, err)
}

// Error state

// StatusDetail reports the latched error status byte.
func (s *Servo) StatusDetail(ctx context.Context) (StatusError, error) {
	v, err := s.ReadRegister(ctx, RegErrorStatus)
	if err != nil {
		return 0, err
	}
	return StatusError(v), nil
}

// ResetStatus clears the latched error status.
func (s *Servo) ResetStatus(ctx context.Context) error {
	return s.WriteRegister(ctx, RegErrorStatus, 0)
}

// System operations

// SystemInfo reads the servo's identity block.
func (s *Servo) SystemInfo(ctx context.Context) (SystemInfo, error) {
	info, result, err := s.bus.SystemRead(ctx, s.id)
	return info, s.check(result, err)
}

// SetID assigns a new bus ID. Takes effect after a reboot; the Servo keeps
// addressing the old ID until then.
func (s *Servo) SetID(ctx context.Context, newID byte) error {
	return s.systemWrite(ctx, SysWriteID, newID, 0, 0, 0)
}

// SetBaudRate changes the bus speed (one of the Baud constants). Takes
// effect after a reboot.
func (s *Servo) SetBaudRate(ctx context.Context, baud byte) error {
	return s.systemWrite(ctx, SysWriteBaudRate, 0, baud, 0, 0)
}

// SetParity changes the bus parity (one of the Parity constants). Takes
// effect after a reboot.
func (s *Servo) SetParity(ctx context.Context, parity byte) error {
	return s.systemWrite(ctx, SysWriteParity, 0, 0, parity, 0)
}

// SetResponseTime changes the reply delay in microseconds.
func (s *Servo) SetResponseTime(ctx context.Context, responseTime byte) error {
	return s.systemWrite(ctx, SysWriteResponseTime, 0, 0, 0, responseTime)
}

func (s *Servo) systemWrite(ctx context.Context, opt, newID, newBaud, newParity, newResponseTime byte) error {
	info, err := s.SystemInfo(ctx)
	if err != nil {
		return err
	}

	var serial [4]byte
	copy(serial[:], Uint32ToBytes(info.SerialNumber))

	result, err := s.bus.SystemWrite(ctx, s.id, serial, opt, newID, newBaud, newParity, newResponseTime)
	return s.check(result, err)
}

// Load restores all RAM parameters from flash.
func (s *Servo) Load(ctx context.Context) error {
	result, err := s.bus.Load(ctx, s.id)
	return s.check(result, err)
}

// Save persists the current RAM parameters to flash.
func (s *Servo) Save(ctx context.Context) error {
	result, err := s.bus.Save(ctx, s.id)
	return s.check(result, err)
}

// Reboot restarts the servo after delay milliseconds.
func (s *Servo) Reboot(ctx context.Context, delay uint16) error {
	result, err := s.bus.Reboot(ctx, s.id, delay)
	return s.check(result, err)
}

// FactoryReset restores factory defaults. Reads the serial number first to
// supply the required safety token.
func (s *Servo) FactoryReset(ctx context.Context) error {
	info, err := s.SystemInfo(ctx)
	if err != nil {
		return err
	}

	var serial [4]byte
	copy(serial[:], Uint32ToBytes(info.SerialNumber))

	result, err := s.bus.FactoryReset(ctx, s.id, serial)
	return s.check(result, err)
}

// check folds a transaction outcome into a single error.
func (s *Servo) check(result Result, err error) error {
	if err != nil {
		return err
	}
	if result.Status().HasError() {
		return &ServoError{ID: s.id, Status: result.Status()}
	}
	if !result.Ok() {
		return &CommError{Op: "transaction", ID: s.id, Err: result.Err()}
	}
	return nil
}
