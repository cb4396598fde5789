package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestMockClockNow(t *testing.T) {
	t.Parallel()

	c := NewMockClock(base)
	assert.Equal(t, base, c.Now())

	c.Set(base.Add(time.Minute))
	assert.Equal(t, base.Add(time.Minute), c.Now())
	assert.Equal(t, time.Minute, c.Since(base))
}

func TestMockClockAdvance(t *testing.T) {
	t.Parallel()

	c := NewMockClock(base)
	ticker := c.NewTicker(time.Millisecond)

	c.Advance(time.Millisecond)
	select {
	case now := <-ticker.C():
		assert.Equal(t, base.Add(time.Millisecond), now)
	default:
		t.Fatal("no tick delivered")
	}
}

func TestMockTickerCoalesces(t *testing.T) {
	t.Parallel()

	c := NewMockClock(base)
	ticker := c.NewTicker(time.Millisecond)

	// a slow receiver sees at most one buffered tick
	c.Advance(time.Millisecond)
	c.Advance(time.Millisecond)
	c.Advance(time.Millisecond)

	<-ticker.C()
	select {
	case <-ticker.C():
		t.Fatal("more than one tick buffered")
	default:
	}
}

func TestMockTickerPeriod(t *testing.T) {
	t.Parallel()

	c := NewMockClock(base)
	ticker := c.NewTicker(10 * time.Millisecond)

	// advances shorter than the period deliver nothing
	c.Advance(time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("tick before the period elapsed")
	default:
	}

	c.Advance(10 * time.Millisecond)
	require.NotNil(t, ticker.C())
	select {
	case <-ticker.C():
	default:
		t.Fatal("no tick after a full period")
	}
}

func TestMockTickerStop(t *testing.T) {
	t.Parallel()

	c := NewMockClock(base)
	ticker := c.NewTicker(time.Millisecond)
	ticker.Stop()

	c.Advance(time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker still ticking")
	default:
	}
}

func TestRealClock(t *testing.T) {
	t.Parallel()

	var c RealClock
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never ticked")
	}
}
