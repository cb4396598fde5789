package serialmux

import (
	"bytes"
	"io"
	"sync"
)

// MockPort implements Porter with script-able reads and captured writes.
// It backs dev mode and the mux tests.
type MockPort struct {
	mu sync.Mutex

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer
	closed   bool

	readCond *sync.Cond
}

// NewMockPort creates an open MockPort.
func NewMockPort() *MockPort {
	p := &MockPort{}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

// Read blocks until data has been fed with FeedLine or the port is closed,
// matching the blocking behaviour of a real serial port.
func (p *MockPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.closed && p.readBuf.Len() == 0 {
		p.readCond.Wait()
	}
	if p.closed && p.readBuf.Len() == 0 {
		return 0, io.EOF
	}
	return p.readBuf.Read(buf)
}

// Write captures outbound data.
func (p *MockPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.writeBuf.Write(buf)
}

// Close marks the port closed and wakes blocked readers.
func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.readCond.Broadcast()
	return nil
}

// FeedLine queues an inbound line, appending the newline terminator if
// missing, as if the host had sent it.
func (p *MockPort) FeedLine(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf.WriteString(line)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		p.readBuf.WriteByte('\n')
	}
	p.readCond.Signal()
}

// Written returns everything written to the port so far.
func (p *MockPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBuf.String()
}
