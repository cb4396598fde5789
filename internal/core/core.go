// Package core runs the robot's control cycle: a single goroutine that
// drains inbound command lines, dispatches them, advances the motor and
// compartment state machines, polls the UI sensors, and checks the safety
// watchdog.
//
// All component state is mutated only inside this goroutine. Everything
// asynchronous (serial reception, HTTP command injection) feeds the one
// inbound channel and never touches component state directly.
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/courierbotics/trundle/internal/box"
	"github.com/courierbotics/trundle/internal/dispatch"
	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/monitoring"
	"github.com/courierbotics/trundle/internal/motor"
	"github.com/courierbotics/trundle/internal/protocol"
	"github.com/courierbotics/trundle/internal/timeutil"
	"github.com/courierbotics/trundle/internal/watchdog"
)

const (
	// TickInterval is the cycle period. Half the motor ramp interval so
	// ramp ticks are never starved by cycle granularity.
	TickInterval = time.Millisecond

	// inboundDepth bounds queued command lines. The host speaks one
	// command at a time in practice; the headroom absorbs bursts from
	// the debug surfaces.
	inboundDepth = 32

	// EventKey reports a keypad press: EVT:KEY:<char>.
	EventKey = "KEY"
	// EventRFID reports a scanned tag: EVT:RFD:<hex-dash-uid>.
	EventRFID = "RFD"
)

// Config wires the loop to its collaborators. All fields are required
// except Keypad and RFID, which may be nil when the hardware is absent.
type Config struct {
	Clock      timeutil.Clock
	Motors     *motor.Controller
	Boxes      *box.Manager
	Watchdog   *watchdog.Monitor
	Dispatcher *dispatch.Dispatcher
	Display    hal.Display
	Keypad     hal.Keypad
	RFID       hal.RFIDReader
	Sender     protocol.Sender
}

// Snapshot is a read-only copy of the core state published once per cycle
// for the debug surfaces.
type Snapshot struct {
	Motor     motor.State    `json:"motor"`
	Boxes     []box.State    `json:"boxes"`
	Watchdog  watchdog.State `json:"watchdog"`
	Cycles    uint64         `json:"cycles"`
	Malformed uint64         `json:"malformed_lines"`
}

// Loop is the control cycle.
type Loop struct {
	cfg   Config
	lines chan string

	cycles    uint64
	malformed uint64

	snapMu sync.Mutex
	snap   Snapshot
}

// NewLoop creates a loop; Run starts it.
func NewLoop(cfg Config) *Loop {
	return &Loop{
		cfg:   cfg,
		lines: make(chan string, inboundDepth),
	}
}

// Inject queues one inbound command line as if the host had sent it.
// It never blocks; a full queue drops the line and reports false.
func (l *Loop) Inject(line string) bool {
	select {
	case l.lines <- line:
		return true
	default:
		return false
	}
}

// Pump forwards lines from a subscription channel into the loop until the
// channel closes or the context is cancelled. Run in its own goroutine.
func (l *Loop) Pump(ctx context.Context, in <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-in:
			if !ok {
				return
			}
			if !l.Inject(line) {
				monitoring.Log.Warn().Str("line", line).Msg("inbound queue full, dropping command")
			}
		}
	}
}

// Run initializes the hardware-facing components and cycles until the
// context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.cfg.Motors.Begin()
	l.cfg.Boxes.Begin()
	l.cfg.Display.Display(0, "ROBOT ONLINE")

	ticker := l.cfg.Clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// leave the motors safe on the way out
			l.cfg.Motors.Stop(true)
			return ctx.Err()
		case now := <-ticker.C():
			l.Step(now)
		}
	}
}

// Step executes one control cycle at the given time. Exported so tests can
// drive the loop with a mock clock, one deterministic cycle at a time.
func (l *Loop) Step(now time.Time) {
	l.drainInbound(now)
	l.cfg.Motors.Update(now)
	l.cfg.Boxes.Update(now)
	l.pollUI()
	l.cfg.Watchdog.Check(now)

	l.cycles++
	l.publishSnapshot()
}

// drainInbound consumes every queued line without blocking. Only
// successfully decoded lines feed the watchdog; malformed ones are dropped
// silently per the protocol contract.
func (l *Loop) drainInbound(now time.Time) {
	for {
		select {
		case line := <-l.lines:
			cmd, err := protocol.Decode([]byte(line))
			if err != nil {
				l.malformed++
				monitoring.Log.Debug().Str("line", line).Msg("dropping malformed line")
				continue
			}
			l.cfg.Watchdog.Feed(now)
			l.cfg.Dispatcher.Dispatch(cmd, now)
		default:
			return
		}
	}
}

// pollUI forwards keypad and RFID activity to the host. The core attaches
// no meaning to either; routing decisions belong to the host controller.
func (l *Loop) pollUI() {
	if l.cfg.Keypad != nil {
		if key, ok := l.cfg.Keypad.Poll(); ok {
			l.cfg.Sender.Send(protocol.EncodeEvent(EventKey, string(key)))
		}
	}
	if l.cfg.RFID != nil {
		if uid, ok := l.cfg.RFID.Poll(); ok && len(uid) > 0 {
			l.cfg.Sender.Send(protocol.EncodeEvent(EventRFID, formatUID(uid)))
		}
	}
}

func (l *Loop) publishSnapshot() {
	snap := Snapshot{
		Motor:     l.cfg.Motors.Snapshot(),
		Boxes:     l.cfg.Boxes.Snapshot(),
		Watchdog:  l.cfg.Watchdog.Snapshot(),
		Cycles:    l.cycles,
		Malformed: l.malformed,
	}
	l.snapMu.Lock()
	l.snap = snap
	l.snapMu.Unlock()
}

// Snapshot returns the state published by the most recent cycle. Safe to
// call from any goroutine.
func (l *Loop) Snapshot() Snapshot {
	l.snapMu.Lock()
	defer l.snapMu.Unlock()
	return l.snap
}

// formatUID renders a tag UID as dash-joined uppercase hex, e.g.
// "DE-AD-BE-EF".
func formatUID(uid []byte) string {
	parts := make([]string, len(uid))
	for i, b := range uid {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, "-")
}
