package bringup

// Stage is the bring-up stage the interface has reached.
type Stage uint8

const (
	// StageIdle - nothing applied yet, or the last transition failed.
	StageIdle Stage = iota

	// StageScanMode - client-capable configuration started; scanning possible.
	StageScanMode

	// StageSetupAccessPoint - setup access point up alongside the client.
	StageSetupAccessPoint

	// StageClientAttempt - client configuration with credentials applied,
	// association in progress.
	StageClientAttempt

	// StageConnected - associated and addressed.
	StageConnected
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "IDLE"
	case StageScanMode:
		return "SCAN_MODE"
	case StageSetupAccessPoint:
		return "SETUP_ACCESS_POINT"
	case StageClientAttempt:
		return "CLIENT_ATTEMPT"
	case StageConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}
