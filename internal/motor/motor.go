// Package motor owns the ramped PWM and direction state for the two drive
// wheels, including timed moves with an auto-stop deadline.
package motor

import (
	"time"

	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/protocol"
)

const (
	// RampInterval is the fixed period between single-unit PWM steps.
	// Stepping by exactly one unit per interval bounds acceleration
	// regardless of the requested speed and keeps inrush current down.
	RampInterval = 2 * time.Millisecond

	// MaxPWM is the full-scale duty value.
	MaxPWM = 255

	// EventMoveDone is emitted once when a timed move's deadline expires.
	EventMoveDone = "MOVE_DONE"
)

// Controller is the single owner of all motor state. Its methods must only
// be called from the control cycle goroutine.
type Controller struct {
	drv  hal.MotorDriver
	send protocol.Sender

	curL, curR int
	tgtL, tgtR int
	dirL, dirR int

	lastRamp time.Time
	deadline time.Time // zero when no timed move is armed
}

// NewController wires a controller to the H-bridge driver and the outbound
// line sender.
func NewController(drv hal.MotorDriver, send protocol.Sender) *Controller {
	return &Controller{drv: drv, send: send}
}

// Begin forces both wheels to the neutral, zero-duty state. Idempotent;
// call once at boot before the cycle starts.
func (c *Controller) Begin() {
	c.Stop(true)
}

// Move sets direction and target speed for both wheels. dirL/dirR are
// -1, 0 or 1. A positive duration arms an auto-stop deadline; zero means
// the move runs until superseded or stopped.
func (c *Controller) Move(dirL, dirR int, speed uint8, duration time.Duration, now time.Time) {
	c.dirL, c.dirR = clampDir(dirL), clampDir(dirR)
	c.tgtL, c.tgtR = int(speed), int(speed)
	if duration > 0 {
		c.deadline = now.Add(duration)
	} else {
		c.deadline = time.Time{}
	}
}

// Stop clears targets and any armed deadline. With immediate set, current
// duty and direction are zeroed and pushed to hardware synchronously,
// bypassing the ramp; this is the only path used for safety stops. Without
// it, the ramp decays the duty to zero over time.
func (c *Controller) Stop(immediate bool) {
	c.tgtL, c.tgtR = 0, 0
	c.deadline = time.Time{}

	if immediate {
		c.curL, c.curR = 0, 0
		c.dirL, c.dirR = 0, 0
		c.apply()
	}
}

// Update advances the deadline and ramp state machines. Call every cycle.
func (c *Controller) Update(now time.Time) {
	// A deadline only ever fires once: expiry begins a soft stop, which
	// also clears the deadline.
	if !c.deadline.IsZero() && !now.Before(c.deadline) {
		c.Stop(false)
		c.send.Send(protocol.EncodeEvent(EventMoveDone))
	}

	if now.Sub(c.lastRamp) >= RampInterval {
		c.lastRamp = now
		c.curL = step(c.curL, c.tgtL)
		c.curR = step(c.curR, c.tgtR)
		c.apply()
	}
}

// IsMoving reports whether either wheel currently has nonzero duty. The
// watchdog uses this to decide whether a host timeout is consequential.
func (c *Controller) IsMoving() bool {
	return c.curL > 0 || c.curR > 0
}

// State is a copy of the controller's externally visible state.
type State struct {
	CurrentL int       `json:"current_pwm_left"`
	CurrentR int       `json:"current_pwm_right"`
	TargetL  int       `json:"target_pwm_left"`
	TargetR  int       `json:"target_pwm_right"`
	DirL     int       `json:"dir_left"`
	DirR     int       `json:"dir_right"`
	Deadline time.Time `json:"move_deadline,omitzero"`
}

// Snapshot returns a copy of the current state for the debug surface.
func (c *Controller) Snapshot() State {
	return State{
		CurrentL: c.curL, CurrentR: c.curR,
		TargetL: c.tgtL, TargetR: c.tgtR,
		DirL: c.dirL, DirR: c.dirR,
		Deadline: c.deadline,
	}
}

func (c *Controller) apply() {
	c.drv.Apply(
		hal.Drive(c.dirL, uint8(c.curL)),
		hal.Drive(c.dirR, uint8(c.curR)),
	)
}

// step moves cur toward tgt by at most one unit.
func step(cur, tgt int) int {
	switch {
	case cur < tgt:
		return cur + 1
	case cur > tgt:
		return cur - 1
	}
	return cur
}

func clampDir(d int) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}
