package pmx

// MotorState holds the channels reported by MotorRead and MotorWrite
// replies. Channels not selected by the receive-data flags, and every
// channel after a failed transaction, hold SentinelInt32.
type MotorState struct {
	Position  int32
	Speed     int32
	Current   int32
	Torque    int32
	PWM       int32
	MotorTemp int32
	CPUTemp   int32
	Voltage   int32
}

func newErrorMotorState() MotorState {
	return MotorState{
		Position:  SentinelInt32,
		Speed:     SentinelInt32,
		Current:   SentinelInt32,
		Torque:    SentinelInt32,
		PWM:       SentinelInt32,
		MotorTemp: SentinelInt32,
		CPUTemp:   SentinelInt32,
		Voltage:   SentinelInt32,
	}
}

// decode fills the selected channels from a reply payload. Channels appear
// in flag-bit order, two bytes each. Position is signed only in position
// control mode (the raw encoder count is unsigned otherwise); voltage is
// always unsigned; the rest are signed.
func (m *MotorState) decode(data []byte, recvFlags, ctrlMode byte) bool {
	*m = newErrorMotorState()

	if len(data) != ReceiveDataSize(recvFlags) {
		return false
	}

	off := 0
	next := func() []byte {
		b := data[off : off+2]
		off += 2
		return b
	}

	if recvFlags&RecvPosition != 0 {
		if ctrlMode&ModePosition != 0 {
			m.Position = int32(BytesToInt16(next()))
		} else {
			m.Position = int32(BytesToUint16(next()))
		}
	}
	if recvFlags&RecvSpeed != 0 {
		m.Speed = int32(BytesToInt16(next()))
	}
	if recvFlags&RecvCurrent != 0 {
		m.Current = int32(BytesToInt16(next()))
	}
	if recvFlags&RecvTorque != 0 {
		m.Torque = int32(BytesToInt16(next()))
	}
	if recvFlags&RecvPWM != 0 {
		m.PWM = int32(BytesToInt16(next()))
	}
	if recvFlags&RecvMotorTemp != 0 {
		m.MotorTemp = int32(BytesToInt16(next()))
	}
	if recvFlags&RecvCPUTemp != 0 {
		m.CPUTemp = int32(BytesToInt16(next()))
	}
	if recvFlags&RecvVoltage != 0 {
		m.Voltage = int32(BytesToUint16(next()))
	}

	return true
}
