package pmx

// Register represents an entry in the servo RAM map.
type Register struct {
	Address  uint16
	Size     int // 1, 2 or 4 bytes
	Signed   bool
	ReadOnly bool
}

// RAM map shared across PMX servos. Gain and stretch values are 32-bit;
// most settings and telemetry are 16-bit.
var (
	// Control gains, first bank
	RegPositionKP      = Register{Address: 0, Size: 4}
	RegPositionKI      = Register{Address: 4, Size: 4}
	RegPositionKD      = Register{Address: 8, Size: 4}
	RegPositionStretch = Register{Address: 12, Size: 4}
	RegSpeedKP         = Register{Address: 16, Size: 4}
	RegSpeedKI         = Register{Address: 20, Size: 4}
	RegSpeedKD         = Register{Address: 24, Size: 4}
	RegCurrentKP       = Register{Address: 32, Size: 4}
	RegCurrentKI       = Register{Address: 36, Size: 4}
	RegCurrentKD       = Register{Address: 40, Size: 4}
	RegTorqueKP        = Register{Address: 48, Size: 4}
	RegTorqueKI        = Register{Address: 52, Size: 4}
	RegTorqueKD        = Register{Address: 56, Size: 4}

	// Deadbands
	RegPositionDeadband = Register{Address: 64, Size: 2}
	RegSpeedDeadband    = Register{Address: 66, Size: 2}
	RegCurrentDeadband  = Register{Address: 68, Size: 2}
	RegTorqueDeadband   = Register{Address: 70, Size: 2}

	RegCenterOffset = Register{Address: 72, Size: 2, Signed: true}
	RegCloneReverse = Register{Address: 74, Size: 1}

	// Protective limits; each threshold is paired with the output percentage
	// applied when it trips.
	RegMinVoltageLimit      = Register{Address: 76, Size: 2}
	RegMinVoltageLimitPower = Register{Address: 78, Size: 2}
	RegMaxVoltageLimit      = Register{Address: 80, Size: 2}
	RegMaxVoltageLimitPower = Register{Address: 82, Size: 2}
	RegCurrentLimit         = Register{Address: 84, Size: 2}
	RegCurrentLimitPower    = Register{Address: 86, Size: 2}
	RegMotorTempLimit       = Register{Address: 88, Size: 2, Signed: true}
	RegMotorTempLimitPower  = Register{Address: 90, Size: 2}
	RegCPUTempLimit         = Register{Address: 92, Size: 2, Signed: true}
	RegCPUTempLimitPower    = Register{Address: 94, Size: 2}
	RegCWPositionLimit      = Register{Address: 96, Size: 2, Signed: true}
	RegCWPositionLimitPower = Register{Address: 98, Size: 2}
	RegCCWPositionLimit     = Register{Address: 100, Size: 2, Signed: true}
	RegCCWPositionLimPower  = Register{Address: 102, Size: 2}
	RegMaxGoalSpeed         = Register{Address: 104, Size: 2}
	RegMaxGoalCurrent       = Register{Address: 106, Size: 2}
	RegMaxGoalTorque        = Register{Address: 108, Size: 2}
	RegTotalPowerRate       = Register{Address: 110, Size: 2}
	RegLockDetectTime       = Register{Address: 112, Size: 2}
	RegLockThresholdPower   = Register{Address: 114, Size: 2}
	RegLockDetectOutPower   = Register{Address: 116, Size: 2}

	// Gain presets (firmware V1.1.0.0 and later)
	RegPresetPosition = Register{Address: 118, Size: 1}
	RegPresetSpeed    = Register{Address: 119, Size: 1}
	RegPresetCurrent  = Register{Address: 120, Size: 1}
	RegPresetTorque   = Register{Address: 121, Size: 1}

	// Control gains, second and third banks (firmware V1.1.0.0 and later)
	RegPositionKP2      = Register{Address: 124, Size: 4}
	RegPositionKI2      = Register{Address: 128, Size: 4}
	RegPositionKD2      = Register{Address: 132, Size: 4}
	RegPositionStretch2 = Register{Address: 136, Size: 4}
	RegSpeedKP2         = Register{Address: 140, Size: 4}
	RegSpeedKI2         = Register{Address: 144, Size: 4}
	RegSpeedKD2         = Register{Address: 148, Size: 4}
	RegCurrentKP2       = Register{Address: 156, Size: 4}
	RegCurrentKI2       = Register{Address: 160, Size: 4}
	RegCurrentKD2       = Register{Address: 164, Size: 4}
	RegTorqueKP2        = Register{Address: 172, Size: 4}
	RegTorqueKI2        = Register{Address: 176, Size: 4}
	RegTorqueKD2        = Register{Address: 180, Size: 4}
	RegPositionKP3      = Register{Address: 188, Size: 4}
	RegPositionKI3      = Register{Address: 192, Size: 4}
	RegPositionKD3      = Register{Address: 196, Size: 4}
	RegPositionStretch3 = Register{Address: 200, Size: 4}
	RegSpeedKP3         = Register{Address: 204, Size: 4}
	RegSpeedKI3         = Register{Address: 208, Size: 4}
	RegSpeedKD3         = Register{Address: 212, Size: 4}
	RegCurrentKP3       = Register{Address: 220, Size: 4}
	RegCurrentKI3       = Register{Address: 224, Size: 4}
	RegCurrentKD3       = Register{Address: 228, Size: 4}
	RegTorqueKP3        = Register{Address: 236, Size: 4}
	RegTorqueKI3        = Register{Address: 240, Size: 4}
	RegTorqueKD3        = Register{Address: 244, Size: 4}

	// Telemetry (read-only)
	RegNowPosition    = Register{Address: 300, Size: 2, Signed: true, ReadOnly: true}
	RegNowSpeed       = Register{Address: 302, Size: 2, Signed: true, ReadOnly: true}
	RegNowCurrent     = Register{Address: 304, Size: 2, Signed: true, ReadOnly: true}
	RegNowTorque      = Register{Address: 306, Size: 2, Signed: true, ReadOnly: true}
	RegNowPWM         = Register{Address: 308, Size: 2, Signed: true, ReadOnly: true}
	RegMotorTemp      = Register{Address: 310, Size: 2, Signed: true, ReadOnly: true}
	RegCPUTemp        = Register{Address: 312, Size: 2, Signed: true, ReadOnly: true}
	RegInputVoltage   = Register{Address: 314, Size: 2, ReadOnly: true}
	RegTrajectoryTime = Register{Address: 316, Size: 2, ReadOnly: true}
	RegEncoderValue   = Register{Address: 318, Size: 2, ReadOnly: true}

	// Error state; writing zero to RegErrorStatus clears the latched bits
	RegErrorStatus    = Register{Address: 400, Size: 1}
	RegErrorSystem    = Register{Address: 401, Size: 1, ReadOnly: true}
	RegErrorMotor     = Register{Address: 402, Size: 1, ReadOnly: true}
	RegErrorRAMAccess = Register{Address: 404, Size: 2, ReadOnly: true}

	// Operation
	RegTorqueSwitch     = Register{Address: 500, Size: 1}
	RegControlMode      = Register{Address: 501, Size: 1}
	RegMotorReceiveData = Register{Address: 502, Size: 1}
	RegTrajectory       = Register{Address: 503, Size: 1}

	// Short brake selection per control mode (firmware V1.0.1.x and later)
	RegShortBrakeCurrent = Register{Address: 530, Size: 1}
	RegShortBrakeTorque  = Register{Address: 531, Size: 1}
	RegShortBrakePWM     = Register{Address: 532, Size: 1}
	RegLedMode           = Register{Address: 533, Size: 1}

	// Valid ranges for settings (read-only)
	RegCenterOffsetMinRange   = Register{Address: 600, Size: 2, Signed: true, ReadOnly: true}
	RegCenterOffsetMaxRange   = Register{Address: 602, Size: 2, Signed: true, ReadOnly: true}
	RegMinVoltageMinRange     = Register{Address: 604, Size: 2, ReadOnly: true}
	RegMinVoltageMaxRange     = Register{Address: 606, Size: 2, ReadOnly: true}
	RegMaxVoltageMinRange     = Register{Address: 608, Size: 2, ReadOnly: true}
	RegMaxVoltageMaxRange     = Register{Address: 610, Size: 2, ReadOnly: true}
	RegFailSafeVoltMinRange   = Register{Address: 612, Size: 2, ReadOnly: true}
	RegFailSafeVoltMaxRange   = Register{Address: 614, Size: 2, ReadOnly: true}
	RegCurrentMinRange        = Register{Address: 616, Size: 2, ReadOnly: true}
	RegCurrentMaxRange        = Register{Address: 618, Size: 2, ReadOnly: true}
	RegMotorTempMinRange      = Register{Address: 620, Size: 2, Signed: true, ReadOnly: true}
	RegMotorTempMaxRange      = Register{Address: 622, Size: 2, Signed: true, ReadOnly: true}
	RegCPUTempMinRange        = Register{Address: 624, Size: 2, Signed: true, ReadOnly: true}
	RegCPUTempMaxRange        = Register{Address: 626, Size: 2, Signed: true, ReadOnly: true}
	RegCWPositionMinRange     = Register{Address: 628, Size: 2, Signed: true, ReadOnly: true}
	RegCWPositionMaxRange     = Register{Address: 630, Size: 2, Signed: true, ReadOnly: true}
	RegCCWPositionMinRange    = Register{Address: 632, Size: 2, Signed: true, ReadOnly: true}
	RegCCWPositionMaxRange    = Register{Address: 634, Size: 2, Signed: true, ReadOnly: true}
	RegMaxGoalSpeedMinRange   = Register{Address: 636, Size: 2, ReadOnly: true}
	RegMaxGoalSpeedMaxRange   = Register{Address: 638, Size: 2, ReadOnly: true}
	RegMaxGoalCurrentMinRange = Register{Address: 640, Size: 2, ReadOnly: true}
	RegMaxGoalCurrentMaxRange = Register{Address: 642, Size: 2, ReadOnly: true}
	RegMaxGoalTorqueMinRange  = Register{Address: 644, Size: 2, ReadOnly: true}
	RegMaxGoalTorqueMaxRange  = Register{Address: 646, Size: 2, ReadOnly: true}

	// Goal command values as last written through MotorWrite (read-only)
	RegGoalCommandValue1 = Register{Address: 700, Size: 2, Signed: true, ReadOnly: true}
	RegGoalCommandValue2 = Register{Address: 702, Size: 2, Signed: true, ReadOnly: true}
	RegGoalCommandValue3 = Register{Address: 704, Size: 2, Signed: true, ReadOnly: true}
)
