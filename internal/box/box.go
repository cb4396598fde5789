// Package box manages the robot's storage compartments: lock state, door
// switch edge detection, and forced-open (tamper) reporting.
package box

import (
	"strconv"
	"time"

	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/protocol"
)

const (
	// EventLimit reports a door switch level change: EVT:LMT:<id>:<1|0>,
	// 1 when the door is open.
	EventLimit = "LMT"

	// EventAlarm carries the tamper signal: EVT:ALARM:BOX_FORCED:<id>.
	// It is emitted in addition to, and after, the LMT event so the host
	// can never mistake an intrusion for an ordinary open.
	EventAlarm  = "ALARM"
	AlarmForced = "BOX_FORCED"
)

// Box is one compartment. IDs are 1-indexed on the wire.
type Box struct {
	id         int
	lock       hal.Lock
	sensor     hal.DoorSensor
	locked     bool
	doorClosed bool
}

// Manager is the single owner of all compartment state.
type Manager struct {
	boxes []Box
	send  protocol.Sender
}

// NewManager builds a manager over parallel lock/sensor slices; box i+1 on
// the wire maps to locks[i] and sensors[i].
func NewManager(locks []hal.Lock, sensors []hal.DoorSensor, send protocol.Sender) *Manager {
	boxes := make([]Box, len(locks))
	for i := range boxes {
		boxes[i] = Box{id: i + 1, lock: locks[i], sensor: sensors[i]}
	}
	return &Manager{boxes: boxes, send: send}
}

// Begin locks every compartment and latches the initial door level, so the
// first Update only reports real transitions.
func (m *Manager) Begin() {
	for i := range m.boxes {
		b := &m.boxes[i]
		b.locked = true
		b.lock.Set(true)
		b.doorClosed = b.sensor.Closed()
	}
}

// SetLock locks or unlocks one compartment. Out-of-range ids are silently
// ignored: the host and the robot may disagree on compartment count across
// versions, and that must not fault the loop.
func (m *Manager) SetLock(id int, locked bool) {
	if id < 1 || id > len(m.boxes) {
		return
	}
	b := &m.boxes[id-1]
	b.locked = locked
	b.lock.Set(locked)
}

// Update re-reads every door sensor and reports level changes. A door going
// open while its lock is engaged additionally raises the forced-open alarm.
// Sampling rate is whatever the caller's cycle period is; no extra debounce
// here.
func (m *Manager) Update(now time.Time) {
	for i := range m.boxes {
		b := &m.boxes[i]
		closed := b.sensor.Closed()
		if closed == b.doorClosed {
			continue
		}
		b.doorClosed = closed

		open := "0"
		if !closed {
			open = "1"
		}
		m.send.Send(protocol.EncodeEvent(EventLimit, strconv.Itoa(b.id), open))

		if !closed && b.locked {
			m.send.Send(protocol.EncodeEvent(EventAlarm, AlarmForced, strconv.Itoa(b.id)))
		}
	}
}

// State is one compartment's externally visible state.
type State struct {
	ID         int  `json:"id"`
	Locked     bool `json:"locked"`
	DoorClosed bool `json:"door_closed"`
}

// Snapshot returns a copy of all compartment states for the debug surface.
func (m *Manager) Snapshot() []State {
	out := make([]State, len(m.boxes))
	for i := range m.boxes {
		b := &m.boxes[i]
		out[i] = State{ID: b.id, Locked: b.locked, DoorClosed: b.doorClosed}
	}
	return out
}
