package pmx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ueti999/robolink/transports"
)

// Transport is the communication channel a Bus drives. On half-duplex links
// SetTransmitEnabled switches the line direction around each write.
type Transport interface {
	io.ReadWriteCloser
	SetReadTimeout(timeout time.Duration) error
	SetTransmitEnabled(enabled bool) error
	Flush() error
}

type busState int

const (
	stateIdle busState = iota
	stateTransmitting
	stateAwaiting
)

// Bus manages request/response transactions with servos on a PMX bus.
// Exactly one transaction is in flight at a time; a call made while another
// transaction holds the bus fails immediately with ErrBusBusy instead of
// queueing.
//
// Bus operations return a Result alongside an error. The error is non-nil
// only for transport-level failures (timeout, checksum, malformed frames);
// device status bits travel in the Result's low byte and are left to the
// caller. The Servo wrapper converts status bits to errors.
type Bus struct {
	transport Transport
	protocol  *Protocol
	timeout   time.Duration

	mu          sync.Mutex
	state       busState
	lastCmdTime time.Time
	minCmdGap   time.Duration
	closed      bool
}

// BusConfig holds configuration for creating a new Bus.
type BusConfig struct {
	// Transport is the underlying communication transport.
	// If nil, Port must be specified to open a serial connection.
	Transport Transport

	// Port is the serial port path (e.g., "/dev/ttyUSB0").
	// Ignored if Transport is provided.
	Port string

	// BaudRate is the communication speed. Default is 115200.
	BaudRate int

	// Header overrides the frame header byte. Default is 0xFE.
	Header byte

	// Timeout for communication operations. Default is 1 second.
	Timeout time.Duration

	// MinCommandGap is the minimum time between commands. Default is 1ms.
	MinCommandGap time.Duration
}

// NewBus creates a new servo bus with the given configuration.
func NewBus(cfg BusConfig) (*Bus, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.Header == 0 {
		cfg.Header = DefaultHeader
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.MinCommandGap == 0 {
		cfg.MinCommandGap = time.Millisecond
	}

	transport := cfg.Transport
	if transport == nil {
		if cfg.Port == "" {
			return nil, errors.New("either Transport or Port must be specified")
		}
		var err error
		transport, err = transports.OpenSerial(transports.SerialConfig{
			Port:     cfg.Port,
			BaudRate: cfg.BaudRate,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port: %w", err)
		}
	}

	return &Bus{
		transport:   transport,
		protocol:    NewProtocolWithHeader(cfg.Header),
		timeout:     cfg.Timeout,
		minCmdGap:   cfg.MinCommandGap,
		lastCmdTime: time.Now(),
	}, nil
}

// Close closes the bus and releases resources.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	return b.transport.Close()
}

// Protocol returns the protocol handler for this bus.
func (b *Bus) Protocol() *Protocol {
	return b.protocol
}

// MemRead reads size bytes of servo memory starting at addr. On any
// transport-level failure the returned slice is filled with 0xFF so callers
// that ignore errors still see sentinel data.
func (b *Bus) MemRead(ctx context.Context, id byte, addr uint16, size int) ([]byte, Result, error) {
	frame, err := b.protocol.MemReadFrame(id, addr, size)
	if err != nil {
		return nil, ResultFormatError, &CommError{Op: "mem_read", ID: id, Err: err}
	}

	out := make([]byte, size)
	for i := range out {
		out[i] = SentinelByte
	}

	if err := b.acquire(); err != nil {
		return out, ResultSendError, &CommError{Op: "mem_read", ID: id, Err: err}
	}
	defer b.release()

	rx, result := b.transactFixed(ctx, frame, CmdMemRead, minFrameLen+size)
	if !result.Ok() {
		return out, result, &CommError{Op: "mem_read", ID: id, Err: result.Err()}
	}

	resp := b.protocol.Decode(rx)
	copy(out, resp.Payload)
	return out, result | Result(resp.Option), nil
}

// MemWrite writes data to servo memory at addr.
func (b *Bus) MemWrite(ctx context.Context, id byte, addr uint16, data []byte) (Result, error) {
	frame, err := b.protocol.MemWriteFrame(id, addr, data, 0)
	if err != nil {
		return ResultFormatError, &CommError{Op: "mem_write", ID: id, Err: err}
	}
	return b.simpleTransaction(ctx, "mem_write", id, frame, CmdMemWrite)
}

// Load restores all RAM parameters from flash.
func (b *Bus) Load(ctx context.Context, id byte) (Result, error) {
	frame, _ := b.protocol.LoadFrame(id)
	return b.simpleTransaction(ctx, "load", id, frame, CmdLoad)
}

// Save persists the current RAM parameters to flash.
func (b *Bus) Save(ctx context.Context, id byte) (Result, error) {
	frame, _ := b.protocol.SaveFrame(id)
	return b.simpleTransaction(ctx, "save", id, frame, CmdSave)
}

// MotorRead polls the motor state channels selected by the servo's stored
// receive-data flags. recvFlags must match that stored setting so the reply
// can be decoded; ctrlMode selects signed or unsigned position decoding.
// The reply also carries the current torque switch value.
func (b *Bus) MotorRead(ctx context.Context, id byte, recvFlags, ctrlMode byte) (MotorState, byte, Result, error) {
	state := newErrorMotorState()
	torqueSwitch := TorqueSwitchError

	frame, err := b.protocol.MotorReadFrame(id)
	if err != nil {
		return state, torqueSwitch, ResultFormatError, &CommError{Op: "motor_read", ID: id, Err: err}
	}

	if err := b.acquire(); err != nil {
		return state, torqueSwitch, ResultSendError, &CommError{Op: "motor_read", ID: id, Err: err}
	}
	defer b.release()

	rx, result := b.transactVariable(ctx, frame, CmdMotorRead)
	if !result.Ok() {
		return state, torqueSwitch, result, &CommError{Op: "motor_read", ID: id, Err: result.Err()}
	}

	resp := b.protocol.Decode(rx)
	if len(resp.Payload) >= 1 {
		torqueSwitch = resp.Payload[0]
	}

	result |= Result(resp.Option)

	if len(resp.Payload) != 1+ReceiveDataSize(recvFlags) {
		return state, torqueSwitch, result + ResultConversionError, nil
	}
	if !state.decode(resp.Payload[1:], recvFlags, ctrlMode) {
		return state, torqueSwitch, result + ResultConversionError, nil
	}

	return state, torqueSwitch, result, nil
}

// MotorWriteSwitch changes the torque switch (on, free, brake, hold). The
// reply carries motor state per recvFlags, decoded as in MotorRead.
func (b *Bus) MotorWriteSwitch(ctx context.Context, id byte, torqueSwitch, recvFlags, ctrlMode byte) (MotorState, Result, error) {
	frame, err := b.protocol.MotorWriteSwitchFrame(id, torqueSwitch)
	if err != nil {
		return newErrorMotorState(), ResultFormatError, &CommError{Op: "motor_write", ID: id, Err: err}
	}
	return b.motorWriteTransaction(ctx, id, frame, recvFlags, ctrlMode, ResultReceiveError)
}

// MotorWriteTargets sends goal values to the motor. Targets are ordered
// position > speed > current > torque > PWM > time and must cover every
// channel of the active control mode.
func (b *Bus) MotorWriteTargets(ctx context.Context, id byte, targets []int16, recvFlags, ctrlMode byte) (MotorState, Result, error) {
	frame, err := b.protocol.MotorWriteTargetsFrame(id, targets)
	if err != nil {
		return newErrorMotorState(), ResultFormatError, &CommError{Op: "motor_write", ID: id, Err: err}
	}
	return b.motorWriteTransaction(ctx, id, frame, recvFlags, ctrlMode, ResultConversionError)
}

func (b *Bus) motorWriteTransaction(ctx context.Context, id byte, frame []byte, recvFlags, ctrlMode byte, sizeMismatch Result) (MotorState, Result, error) {
	state := newErrorMotorState()

	if err := b.acquire(); err != nil {
		return state, ResultSendError, &CommError{Op: "motor_write", ID: id, Err: err}
	}
	defer b.release()

	rx, result := b.transactVariable(ctx, frame, CmdMotorWrite)
	if !result.Ok() {
		return state, result, &CommError{Op: "motor_write", ID: id, Err: result.Err()}
	}

	resp := b.protocol.Decode(rx)
	result |= Result(resp.Option)

	if recvFlags == RecvNone {
		return state, result, nil
	}

	if len(resp.Payload) != 1+ReceiveDataSize(recvFlags) {
		return state, result + sizeMismatch, nil
	}
	if !state.decode(resp.Payload[1:], recvFlags, ctrlMode) {
		return state, result + ResultConversionError, nil
	}

	return state, result, nil
}

// SystemInfo holds the identity block returned by SystemRead.
type SystemInfo struct {
	SerialNumber uint32
	ModelNumber  uint16
	SeriesNumber uint16
	Version      [4]byte
	ResponseTime byte
}

// SystemRead reads the servo's identity block: serial number, model,
// firmware version and response delay.
func (b *Bus) SystemRead(ctx context.Context, id byte) (SystemInfo, Result, error) {
	var info SystemInfo

	frame, _ := b.protocol.SystemReadFrame(id)

	if err := b.acquire(); err != nil {
		return info, ResultSendError, &CommError{Op: "system_read", ID: id, Err: err}
	}
	defer b.release()

	rx, result := b.transactFixed(ctx, frame, CmdSystemRead, minFrameLen+13)
	if !result.Ok() {
		return info, result, &CommError{Op: "system_read", ID: id, Err: result.Err()}
	}

	resp := b.protocol.Decode(rx)
	p := resp.Payload
	info.SerialNumber = BytesToUint32(p[0:4])
	info.ModelNumber = BytesToUint16(p[4:6])
	info.SeriesNumber = BytesToUint16(p[6:8])
	copy(info.Version[:], p[8:12])
	info.ResponseTime = p[12]

	return info, result | Result(resp.Option), nil
}

// SystemWrite applies the bus parameters selected by the option bits. The
// servo's current serial number must be supplied as a safety token. Changes
// take effect after a reboot.
func (b *Bus) SystemWrite(ctx context.Context, id byte, serial [4]byte, opt, newID, newBaud, newParity, newResponseTime byte) (Result, error) {
	if opt&SysWriteID != 0 && newID > MaxServoID {
		return ResultFormatError, &CommError{Op: "system_write", ID: id, Err: fmt.Errorf("%w: %d (valid range: 0-%d)", ErrInvalidID, newID, MaxServoID)}
	}

	frame, err := b.protocol.SystemWriteFrame(id, serial, opt, newID, newBaud, newParity, newResponseTime)
	if err != nil {
		return ResultFormatError, &CommError{Op: "system_write", ID: id, Err: err}
	}
	return b.simpleTransaction(ctx, "system_write", id, frame, CmdSystemWrite)
}

// Reboot restarts the servo after delay milliseconds.
func (b *Bus) Reboot(ctx context.Context, id byte, delay uint16) (Result, error) {
	frame, _ := b.protocol.RebootFrame(id, delay)
	return b.simpleTransaction(ctx, "reboot", id, frame, CmdReboot)
}

// FactoryReset restores factory defaults. The servo's serial number must be
// echoed as a safety token; a mismatch is rejected by the device.
func (b *Bus) FactoryReset(ctx context.Context, id byte, serial [4]byte) (Result, error) {
	frame, _ := b.protocol.FactoryResetFrame(id, serial)
	return b.simpleTransaction(ctx, "factory_reset", id, frame, CmdFactoryReset)
}

// FoundServo represents a servo discovered during scanning.
type FoundServo struct {
	ID    byte
	Info  SystemInfo
	Model *Model // May be nil if model is unknown
}

// Scan probes each ID in the range with SystemRead and returns the servos
// that answered.
func (b *Bus) Scan(ctx context.Context, startID, endID byte) ([]FoundServo, error) {
	if startID > endID || endID > MaxServoID {
		return nil, fmt.Errorf("invalid ID range: %d to %d", startID, endID)
	}

	var found []FoundServo

	for id := int(startID); id <= int(endID); id++ {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}

		info, result, err := b.SystemRead(ctx, byte(id))
		if err != nil || !result.Ok() {
			continue // No response at this ID
		}

		f := FoundServo{ID: byte(id), Info: info}
		if model, ok := GetModelByNumber(info.ModelNumber); ok {
			f.Model = model
		}
		found = append(found, f)
	}

	return found, nil
}

// Internal methods

// acquire claims the bus for one transaction or fails fast.
func (b *Bus) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if b.state != stateIdle {
		return ErrBusBusy
	}
	b.state = stateTransmitting
	return nil
}

func (b *Bus) release() {
	b.mu.Lock()
	b.state = stateIdle
	b.mu.Unlock()
}

func (b *Bus) enforceCommandGap() {
	elapsed := time.Since(b.lastCmdTime)
	if elapsed < b.minCmdGap {
		time.Sleep(b.minCmdGap - elapsed)
	}
}

// simpleTransaction runs a command whose reply is a bare status frame.
func (b *Bus) simpleTransaction(ctx context.Context, op string, id byte, frame []byte, cmd byte) (Result, error) {
	if err := b.acquire(); err != nil {
		return ResultSendError, &CommError{Op: op, ID: id, Err: err}
	}
	defer b.release()

	rx, result := b.transactFixed(ctx, frame, cmd, minFrameLen)
	if !result.Ok() {
		return result, &CommError{Op: op, ID: id, Err: result.Err()}
	}

	resp := b.protocol.Decode(rx)
	return result | Result(resp.Option), nil
}

func (b *Bus) sendFrame(frame []byte) Result {
	b.enforceCommandGap()

	// Flush any stale input before claiming the line.
	b.transport.Flush()

	if err := b.transport.SetTransmitEnabled(true); err != nil {
		return ResultSendError
	}

	n, err := b.transport.Write(frame)

	// Release the line even when the write failed.
	b.transport.SetTransmitEnabled(false)

	if err != nil || n != len(frame) {
		return ResultSendError
	}

	b.lastCmdTime = time.Now()
	return ResultOK
}

// transactFixed sends a frame and reads a reply of known length.
func (b *Bus) transactFixed(ctx context.Context, frame []byte, cmd byte, rxLen int) ([]byte, Result) {
	if r := b.sendFrame(frame); !r.Ok() {
		return nil, r
	}
	b.setState(stateAwaiting)

	rx, err := b.readExact(ctx, rxLen)
	if err != nil {
		return nil, ResultTimeout
	}

	if r := b.protocol.Validate(rx, cmd); !r.Ok() {
		return nil, r
	}
	return rx, ResultOK
}

// transactVariable sends a frame and reads a reply whose length is only
// known from its own length field: first the six fixed header bytes, then
// the remainder.
func (b *Bus) transactVariable(ctx context.Context, frame []byte, cmd byte) ([]byte, Result) {
	if r := b.sendFrame(frame); !r.Ok() {
		return nil, r
	}
	b.setState(stateAwaiting)

	head, err := b.readExact(ctx, offData)
	if err != nil {
		return nil, ResultTimeout
	}

	total := int(head[offLength])
	if total < minFrameLen {
		return nil, ResultReceiveError
	}

	rest, err := b.readExact(ctx, total-offData)
	if err != nil {
		return nil, ResultTimeout
	}

	rx := append(head, rest...)
	if r := b.protocol.Validate(rx, cmd); !r.Ok() {
		return nil, r
	}
	return rx, ResultOK
}

func (b *Bus) setState(s busState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Bus) readExact(ctx context.Context, expectedLen int) ([]byte, error) {
	buffer := make([]byte, expectedLen)
	totalRead := 0
	deadline := time.Now().Add(b.timeout)

	for totalRead < expectedLen {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: read %d of %d expected bytes", ErrTimeout, totalRead, expectedLen)
		}

		remaining := max(time.Until(deadline), 10*time.Millisecond)
		b.transport.SetReadTimeout(remaining)

		n, err := b.transport.Read(buffer[totalRead:])
		if err != nil {
			// Check if it's a timeout (expected when waiting)
			if n == 0 {
				time.Sleep(time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("read error: %w", err)
		}

		totalRead += n
	}

	return buffer, nil
}
