package diag

// ResetCause classifies why the device last reset.
type ResetCause uint8

const (
	ResetUnknown ResetCause = iota
	ResetWakeup
	ResetLowPower
	ResetWindowWatchdog
	ResetIndependentWatchdog
	ResetSoftware
	ResetPowerCycle
	ResetExternalPin
	ResetBrownout

	numResetCauses
)

var resetCauseNames = [numResetCauses]string{
	ResetUnknown:             "UNKNOWN",
	ResetWakeup:              "SLEEP_COMPLETE",
	ResetLowPower:            "LOW_POWER_RESET",
	ResetWindowWatchdog:      "WWDG_RESET",
	ResetIndependentWatchdog: "IWDG_RESET",
	ResetSoftware:            "SOFTWARE_RESET",
	ResetPowerCycle:          "POWER_CYCLE",
	ResetExternalPin:         "EXTERNAL_RESET",
	ResetBrownout:            "BROWN_OUT_RESET",
}

func (c ResetCause) String() string {
	if c >= numResetCauses {
		return resetCauseNames[ResetUnknown]
	}
	return resetCauseNames[c]
}

// ResetFlags is the raw reset-flag snapshot taken from the power/clock block
// before peripheral init. The wiring layer fills in whatever the part
// exposes; flags it cannot read stay false.
type ResetFlags struct {
	LowPower            bool
	WindowWatchdog      bool
	IndependentWatchdog bool
	Software            bool
	PowerOn             bool
	ExternalPin         bool
	Brownout            bool
	StandbyWake         bool
}

// ClassifyReset maps a flag snapshot to a single cause, using the same
// precedence order as the boot ROM documentation. Callers clear the hardware
// flags after classification or they remain set until power is fully removed.
func ClassifyReset(f ResetFlags) ResetCause {
	switch {
	case f.LowPower:
		return ResetLowPower
	case f.WindowWatchdog:
		return ResetWindowWatchdog
	case f.IndependentWatchdog:
		return ResetIndependentWatchdog
	case f.Software:
		return ResetSoftware
	case f.PowerOn:
		return ResetPowerCycle
	case f.ExternalPin:
		return ResetExternalPin
	case f.Brownout:
		return ResetBrownout
	case f.StandbyWake:
		return ResetWakeup
	default:
		return ResetUnknown
	}
}
