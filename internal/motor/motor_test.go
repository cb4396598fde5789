package motor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/testutil"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestController() (*Controller, *hal.SimMotorDriver, *testutil.LineRecorder) {
	drv := &hal.SimMotorDriver{}
	rec := &testutil.LineRecorder{}
	c := NewController(drv, rec)
	c.Begin()
	return c, drv, rec
}

// run advances the controller one ramp interval at a time, n times,
// starting after base.
func run(c *Controller, n int) time.Time {
	now := base
	for i := 0; i < n; i++ {
		now = now.Add(RampInterval)
		c.Update(now)
	}
	return now
}

func TestBegin(t *testing.T) {
	t.Parallel()

	c, drv, rec := newTestController()
	left, right := drv.Last()
	assert.Equal(t, hal.DriveSignal{}, left)
	assert.Equal(t, hal.DriveSignal{}, right)
	assert.False(t, c.IsMoving())
	assert.Empty(t, rec.Lines())

	// idempotent
	c.Begin()
	assert.False(t, c.IsMoving())
	assert.Empty(t, rec.Lines())
}

func TestRamp(t *testing.T) {
	t.Parallel()

	t.Run("one unit per interval toward target", func(t *testing.T) {
		t.Parallel()
		c, _, _ := newTestController()
		c.Move(1, 1, 200, 0, base)

		run(c, 50)
		st := c.Snapshot()
		assert.Equal(t, 50, st.CurrentL)
		assert.Equal(t, 50, st.CurrentR)
		assert.True(t, c.IsMoving())
	})

	t.Run("never overshoots target", func(t *testing.T) {
		t.Parallel()
		c, drv, _ := newTestController()
		c.Move(1, 1, 10, 0, base)

		run(c, 500)
		st := c.Snapshot()
		assert.Equal(t, 10, st.CurrentL)
		assert.Equal(t, 10, st.CurrentR)
		left, _ := drv.Last()
		assert.Equal(t, uint8(10), left.Duty)
	})

	t.Run("updates faster than the interval do not step", func(t *testing.T) {
		t.Parallel()
		c, _, _ := newTestController()
		c.Move(1, 1, 200, 0, base)
		c.Update(base.Add(RampInterval)) // steps to 1

		// hammering within the same interval must not add steps
		for i := 0; i < 10; i++ {
			c.Update(base.Add(RampInterval + time.Duration(i)*100*time.Microsecond))
		}
		assert.Equal(t, 1, c.Snapshot().CurrentL)
	})

	t.Run("ramps back down after a soft stop", func(t *testing.T) {
		t.Parallel()
		c, _, _ := newTestController()
		c.Move(1, 1, 30, 0, base)
		now := run(c, 30)
		require.True(t, c.IsMoving())

		c.Stop(false)
		for i := 0; i < 30; i++ {
			now = now.Add(RampInterval)
			c.Update(now)
		}
		assert.False(t, c.IsMoving())
	})
}

func TestDirectionPins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dir  int
		want hal.DriveSignal
	}{
		{"forward", 1, hal.DriveSignal{In1: true, In2: false, Duty: 1}},
		{"backward", -1, hal.DriveSignal{In1: false, In2: true, Duty: 1}},
		{"coast", 0, hal.DriveSignal{In1: false, In2: false, Duty: 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, drv, _ := newTestController()
			c.Move(tt.dir, tt.dir, 1, 0, base)
			run(c, 1)
			left, right := drv.Last()
			assert.Equal(t, tt.want, left)
			assert.Equal(t, tt.want, right)
		})
	}
}

func TestTimedMove(t *testing.T) {
	t.Parallel()

	t.Run("deadline expiry soft-stops and reports once", func(t *testing.T) {
		t.Parallel()
		c, _, rec := newTestController()
		c.Move(1, 1, 200, 500*time.Millisecond, base)

		c.Update(base.Add(500 * time.Millisecond))
		st := c.Snapshot()
		assert.Equal(t, 0, st.TargetL)
		assert.Equal(t, 0, st.TargetR)
		assert.Equal(t, []string{"EVT:MOVE_DONE\n"}, rec.Lines())

		// no further events while ramping down or after
		c.Update(base.Add(600 * time.Millisecond))
		c.Update(base.Add(700 * time.Millisecond))
		assert.Equal(t, []string{"EVT:MOVE_DONE\n"}, rec.Lines())
	})

	t.Run("zero duration runs until stopped", func(t *testing.T) {
		t.Parallel()
		c, _, rec := newTestController()
		c.Move(1, 1, 200, 0, base)
		run(c, 5000)
		assert.True(t, c.IsMoving())
		assert.Empty(t, rec.Lines())
	})

	t.Run("new move supersedes a pending deadline", func(t *testing.T) {
		t.Parallel()
		c, _, rec := newTestController()
		c.Move(1, 1, 200, 100*time.Millisecond, base)
		c.Move(1, 1, 200, 0, base.Add(50*time.Millisecond))

		c.Update(base.Add(time.Second))
		assert.Empty(t, rec.Lines())
		assert.Equal(t, 200, c.Snapshot().TargetL)
	})
}

func TestStop(t *testing.T) {
	t.Parallel()

	t.Run("immediate stop bypasses the ramp", func(t *testing.T) {
		t.Parallel()
		c, drv, _ := newTestController()
		c.Move(1, 1, 200, 0, base)
		run(c, 100)
		require.True(t, c.IsMoving())

		c.Stop(true)
		assert.False(t, c.IsMoving())
		st := c.Snapshot()
		assert.Equal(t, 0, st.CurrentL)
		assert.Equal(t, 0, st.DirL)
		left, right := drv.Last()
		assert.Equal(t, hal.DriveSignal{}, left)
		assert.Equal(t, hal.DriveSignal{}, right)
	})

	t.Run("immediate stop is idempotent and silent", func(t *testing.T) {
		t.Parallel()
		c, _, rec := newTestController()
		c.Move(1, 1, 200, time.Second, base)
		run(c, 10)

		c.Stop(true)
		first := c.Snapshot()
		c.Stop(true)
		c.Stop(true)
		assert.Equal(t, first, c.Snapshot())
		assert.Empty(t, rec.Lines())
	})

	t.Run("stop clears an armed deadline", func(t *testing.T) {
		t.Parallel()
		c, _, rec := newTestController()
		c.Move(1, 1, 200, 100*time.Millisecond, base)
		c.Stop(true)

		c.Update(base.Add(time.Second))
		assert.Empty(t, rec.Lines())
	})
}
