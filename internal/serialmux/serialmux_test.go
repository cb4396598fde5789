package serialmux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courierbotics/trundle/internal/testutil"
)

func recvLine(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case line, ok := <-ch:
		if !ok {
			t.Fatal("subscription channel closed")
		}
		return line
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
	}
	return ""
}

func TestSend(t *testing.T) {
	port := NewMockPort()
	mux := New(port)

	testutil.AssertNoError(t, mux.Send("ACK:MOV"))
	testutil.AssertNoError(t, mux.Send("EVT:MOVE_DONE\n"))

	want := "ACK:MOV\nEVT:MOVE_DONE\n"
	if got := port.Written(); got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestSendClosedPort(t *testing.T) {
	port := NewMockPort()
	mux := New(port)
	testutil.AssertNoError(t, port.Close())
	testutil.AssertError(t, mux.Send("ACK:MOV"))
}

func TestMonitorFanout(t *testing.T) {
	port := NewMockPort()
	mux := New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idA, chA := mux.Subscribe()
	_, chB := mux.Subscribe()

	monErr := make(chan error, 1)
	go func() { monErr <- mux.Monitor(ctx) }()

	port.FeedLine("MOV:FWD:1000")
	for _, ch := range []chan string{chA, chB} {
		if got := recvLine(t, ch); got != "MOV:FWD:1000" {
			t.Errorf("subscriber got %q, want %q", got, "MOV:FWD:1000")
		}
	}

	// after unsubscribing A, only B keeps receiving
	mux.Unsubscribe(idA)
	if _, ok := <-chA; ok {
		t.Error("unsubscribed channel not closed")
	}
	port.FeedLine("SYS:PING:0")
	if got := recvLine(t, chB); got != "SYS:PING:0" {
		t.Errorf("subscriber got %q, want %q", got, "SYS:PING:0")
	}

	cancel()
	if err := <-monErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Monitor returned %v, want context.Canceled", err)
	}
}

func TestMonitorPortEOF(t *testing.T) {
	port := NewMockPort()
	mux := New(port)

	monErr := make(chan error, 1)
	go func() { monErr <- mux.Monitor(context.Background()) }()

	port.FeedLine("SYS:PING:0")
	testutil.AssertNoError(t, port.Close())

	select {
	case err := <-monErr:
		testutil.AssertNoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return on port EOF")
	}
}

func TestClose(t *testing.T) {
	port := NewMockPort()
	mux := New(port)
	_, ch := mux.Subscribe()

	testutil.AssertNoError(t, mux.Close())
	if _, ok := <-ch; ok {
		t.Error("subscription channel not closed")
	}
	if _, err := port.Read(make([]byte, 1)); err == nil {
		t.Error("underlying port still open")
	}
}

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Subscribe()

	b.Send("EVT:LMT:1:1\n")
	if got := recvLine(t, ch); got != "EVT:LMT:1:1\n" {
		t.Errorf("observer got %q", got)
	}

	// a stalled observer misses lines instead of blocking the sender
	b.Send("EVT:KEY:A\n")
	b.Send("EVT:KEY:B\n")
	if got := recvLine(t, ch); got != "EVT:KEY:A\n" {
		t.Errorf("observer got %q, want the first buffered line", got)
	}
	select {
	case line := <-ch:
		t.Errorf("unexpected buffered line %q", line)
	default:
	}

	b.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("unsubscribed channel not closed")
	}

	// sending with no observers is fine
	b.Send("EVT:KEY:C\n")
	b.Close()
}
