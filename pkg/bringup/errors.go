package bringup

import (
	"errors"
	"fmt"
	"time"
)

// Bring-up errors.
var (
	// ErrWaitStart: the interface did not report started within StartTimeout.
	ErrWaitStart = errors.New("timed out waiting for interface start")

	// ErrWaitConnect: the link did not report connected with an assigned
	// address within ConnectTimeout.
	ErrWaitConnect = errors.New("timed out waiting for connection")

	// ErrConfigure: the radio rejected the configuration.
	ErrConfigure = errors.New("failed to apply configuration")

	// ErrStart: the radio failed to start.
	ErrStart = errors.New("failed to start interface")

	// ErrConnect: the radio failed to begin association.
	ErrConnect = errors.New("failed to connect")

	// ErrScan: the network scan failed.
	ErrScan = errors.New("failed to scan")
)

// WaitKind identifies which readiness wait timed out.
type WaitKind uint8

const (
	// WaitStart is the "interface started" wait.
	WaitStart WaitKind = iota + 1

	// WaitConnect is the "connected and addressed" wait.
	WaitConnect
)

// String returns the wait kind name.
func (k WaitKind) String() string {
	switch k {
	case WaitStart:
		return "WAIT_START"
	case WaitConnect:
		return "WAIT_CONNECT"
	default:
		return "UNKNOWN"
	}
}

// WaitError reports a readiness wait that ran out of time.
// It matches ErrWaitStart or ErrWaitConnect with errors.Is.
type WaitError struct {
	Kind    WaitKind
	Stage   Stage
	Timeout time.Duration

	// Connected and Addressed record the last observed status for
	// WaitConnect, to tell association failures from DHCP failures.
	Connected bool
	Addressed bool
}

func (e *WaitError) Error() string {
	switch e.Kind {
	case WaitConnect:
		return fmt.Sprintf("%s: %v after %s (connected=%t, addressed=%t)",
			e.Stage, ErrWaitConnect, e.Timeout, e.Connected, e.Addressed)
	default:
		return fmt.Sprintf("%s: %v after %s", e.Stage, ErrWaitStart, e.Timeout)
	}
}

// Is reports whether target is the sentinel for this wait kind.
func (e *WaitError) Is(target error) bool {
	switch e.Kind {
	case WaitStart:
		return target == ErrWaitStart
	case WaitConnect:
		return target == ErrWaitConnect
	default:
		return false
	}
}
