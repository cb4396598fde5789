// Package watchdog implements the serial-link safety monitor: prolonged
// silence from the host while the robot is moving forces an emergency stop.
package watchdog

import (
	"time"

	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/protocol"
)

// Timeout is the maximum silence tolerated on the command link before a
// trip is considered, measured from the last successfully decoded line.
const Timeout = 2 * time.Second

// ErrCodeTimeout is the wire code sent when the watchdog trips.
const ErrCodeTimeout = "TIMEOUT"

// Stopper is the slice of the motor controller the watchdog is allowed to
// act on. It deliberately has no authority over compartment locks: a stale
// link does not re-lock boxes, that call belongs to the host.
type Stopper interface {
	Stop(immediate bool)
	IsMoving() bool
}

// Monitor tracks time since the last valid inbound command.
type Monitor struct {
	motors  Stopper
	display hal.Display
	send    protocol.Sender

	lastValid time.Time
	tripped   bool
}

// NewMonitor builds a monitor armed at the given start time.
func NewMonitor(motors Stopper, display hal.Display, send protocol.Sender, start time.Time) *Monitor {
	return &Monitor{motors: motors, display: display, send: send, lastValid: start}
}

// Feed re-arms the monitor. Call for every successfully decoded inbound
// line; raw bytes and malformed lines do not count.
func (m *Monitor) Feed(now time.Time) {
	m.lastValid = now
	m.tripped = false
}

// Check trips the watchdog if the link has been silent past Timeout while
// the motors are moving: one immediate stop, one ERR:TIMEOUT, and an alarm
// on the display. A trip fires once; a fresh valid line is required before
// another can fire.
func (m *Monitor) Check(now time.Time) {
	if m.tripped || now.Sub(m.lastValid) <= Timeout {
		return
	}
	if !m.motors.IsMoving() {
		return
	}
	m.tripped = true
	m.motors.Stop(true)
	m.send.Send(protocol.EncodeErr(ErrCodeTimeout))
	m.display.Display(0, "ALARM: CMD LOST")
}

// State is the monitor's externally visible state.
type State struct {
	LastValidInput time.Time `json:"last_valid_input"`
	Tripped        bool      `json:"tripped"`
}

// Snapshot returns a copy of the current state for the debug surface.
func (m *Monitor) Snapshot() State {
	return State{LastValidInput: m.lastValid, Tripped: m.tripped}
}
