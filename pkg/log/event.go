package log

import (
	"time"
)

// Event represents a provisioning event captured at any component.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// CycleID correlates the events of one provisioning cycle (UUID).
	CycleID string `cbor:"2,keyasint,omitempty"`

	// Component that produced the event.
	Component Component `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Request     *RequestEvent     `cbor:"11,keyasint,omitempty"`
	Scan        *ScanEvent        `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Component identifies the part of the system that captured the event.
type Component uint8

const (
	// ComponentController is the provisioning loop.
	ComponentController Component = 0
	// ComponentBringUp is the network bring-up state machine.
	ComponentBringUp Component = 1
	// ComponentPortal is the setup portal HTTP server.
	ComponentPortal Component = 2
	// ComponentTime is the time service client.
	ComponentTime Component = 3
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentController:
		return "CONTROLLER"
	case ComponentBringUp:
		return "BRINGUP"
	case ComponentPortal:
		return "PORTAL"
	case ComponentTime:
		return "TIME"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryRequest indicates a portal request.
	CategoryRequest Category = 1
	// CategoryScan indicates a network scan.
	CategoryScan Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryRequest:
		return "REQUEST"
	case CategoryScan:
		return "SCAN"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures stage and lifecycle transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityStage indicates a bring-up stage change.
	StateEntityStage StateEntity = 0
	// StateEntityPortal indicates the portal started or stopped.
	StateEntityPortal StateEntity = 1
	// StateEntityCycle indicates a provisioning cycle began or ended.
	StateEntityCycle StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityStage:
		return "STAGE"
	case StateEntityPortal:
		return "PORTAL"
	case StateEntityCycle:
		return "CYCLE"
	default:
		return "UNKNOWN"
	}
}

// RequestEvent captures one portal request.
type RequestEvent struct {
	// Method is the HTTP method.
	Method string `cbor:"1,keyasint"`

	// Path is the request path.
	Path string `cbor:"2,keyasint"`

	// Status is the HTTP status written.
	Status int `cbor:"3,keyasint"`

	// RemoteAddr is the client address (IP:port).
	RemoteAddr string `cbor:"4,keyasint,omitempty"`

	// Duration from request receipt to response.
	// Stored as nanoseconds.
	Duration time.Duration `cbor:"5,keyasint,omitempty"`

	// Network is the submitted network name (submissions only).
	// The secret is never logged.
	Network string `cbor:"6,keyasint,omitempty"`
}

// ScanEvent captures a completed scan.
type ScanEvent struct {
	// Count is the number of networks found.
	Count int `cbor:"1,keyasint"`

	// Networks lists the SSIDs found, in scan order.
	Networks []string `cbor:"2,keyasint,omitempty"`

	// Duration of the scan.
	Duration time.Duration `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any component.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`

	// Fatal is set when the error aborted the provisioning cycle.
	Fatal bool `cbor:"3,keyasint,omitempty"`
}

// NewStateEvent builds a state change event stamped with the current time.
func NewStateEvent(cycleID string, c Component, entity StateEntity, oldState, newState, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		CycleID:   cycleID,
		Component: c,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}

// NewErrorEvent builds an error event stamped with the current time.
func NewErrorEvent(cycleID string, c Component, err error, context string, fatal bool) Event {
	return Event{
		Timestamp: time.Now(),
		CycleID:   cycleID,
		Component: c,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Message: err.Error(),
			Context: context,
			Fatal:   fatal,
		},
	}
}
