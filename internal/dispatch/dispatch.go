// Package dispatch routes decoded host commands to the motor controller,
// the compartment manager, the display, or a direct protocol reply.
//
// Unknown kinds and actions are ignored rather than rejected so an older
// robot keeps working, minus the new verbs, against a newer host.
package dispatch

import (
	"strconv"
	"time"

	"github.com/courierbotics/trundle/internal/box"
	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/motor"
	"github.com/courierbotics/trundle/internal/protocol"
)

// DefaultSpeed is the fixed target PWM applied to every drive command.
// The host requests duration, not speed; see the protocol notes.
const DefaultSpeed uint8 = 200

// ValueOpen is the SRV value that releases a lock; any other value locks.
const ValueOpen = "OPEN"

// Dispatcher routes commands. It owns no state of its own and never
// reaches into component internals.
type Dispatcher struct {
	motors  *motor.Controller
	boxes   *box.Manager
	display hal.Display
	send    protocol.Sender
}

// New builds a dispatcher over the component set.
func New(motors *motor.Controller, boxes *box.Manager, display hal.Display, send protocol.Sender) *Dispatcher {
	return &Dispatcher{motors: motors, boxes: boxes, display: display, send: send}
}

// Dispatch routes one successfully decoded command. It is only called for
// lines that decoded cleanly; malformed input never reaches here.
func (d *Dispatcher) Dispatch(cmd protocol.Command, now time.Time) {
	switch cmd.Kind {
	case protocol.KindMove:
		d.handleMove(cmd, now)
	case protocol.KindServo:
		d.handleServo(cmd)
	case protocol.KindLCD:
		d.handleLCD(cmd)
	case protocol.KindSys:
		if cmd.Action == "PING" {
			d.send.Send(protocol.Pong())
		}
	}
}

// handleMove drives both wheels. The value field carries the move duration
// in milliseconds; zero or unparseable means run until stopped.
func (d *Dispatcher) handleMove(cmd protocol.Command, now time.Time) {
	duration := time.Duration(atoi(cmd.Value)) * time.Millisecond

	switch cmd.Action {
	case "FWD":
		d.motors.Move(1, 1, DefaultSpeed, duration, now)
	case "BCK":
		d.motors.Move(-1, -1, DefaultSpeed, duration, now)
	case "STP":
		d.motors.Stop(true)
	default:
		return
	}
	d.send.Send(protocol.EncodeAck(protocol.KindMove.String()))
}

// handleServo locks or unlocks a compartment. The action field is the box
// id; an out-of-range id is a no-op inside the manager but still acked, the
// host learns actual lock state from LMT events, not acks.
func (d *Dispatcher) handleServo(cmd protocol.Command) {
	id := atoi(cmd.Action)
	d.boxes.SetLock(id, cmd.Value != ValueOpen)
	d.send.Send(protocol.EncodeAck(protocol.KindServo.String()))
}

// handleLCD forwards display commands verbatim; no reply.
func (d *Dispatcher) handleLCD(cmd protocol.Command) {
	if cmd.Action == "CLS" {
		d.display.Clear()
		return
	}
	d.display.Display(atoi(cmd.Action), cmd.Value)
}

// atoi is the firmware-style lenient parse: garbage reads as zero.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
