// Package testutil provides shared test helpers.
package testutil

import (
	"sync"
	"testing"
)

// LineRecorder collects lines sent toward the host, for asserting on
// component output without a serial port.
type LineRecorder struct {
	mu    sync.Mutex
	lines []string
}

// Send implements protocol.Sender.
func (r *LineRecorder) Send(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of everything sent so far.
func (r *LineRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Reset discards recorded lines.
func (r *LineRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
