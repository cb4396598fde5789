// Package serialmux owns the serial link to the host controller: it reads
// newline-delimited command lines off the port, fans them out to
// subscribers, and serializes outbound event/ack lines onto the wire.
package serialmux

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/courierbotics/trundle/internal/monitoring"
)

// ErrWriteFailed indicates a short write to the serial port.
var ErrWriteFailed = fmt.Errorf("serialmux: short write to serial port")

// SerialMux multiplexes a single serial port: one writer, many line
// subscribers. The control loop is the primary subscriber; debug surfaces
// (HTTP tail) attach and detach freely.
type SerialMux struct {
	port Porter

	subscriberMu sync.Mutex
	subscribers  map[string]chan string

	writeMu sync.Mutex

	closingMu sync.Mutex
	closing   bool
}

// Mux is the interface consumed by the daemon and debug surfaces.
type Mux interface {
	// Subscribe creates a channel receiving every inbound line. The
	// returned ID identifies the subscription for Unsubscribe.
	Subscribe() (string, chan string)
	// Unsubscribe removes and closes a subscription channel.
	Unsubscribe(id string)
	// Send writes one line to the serial port, appending the newline
	// terminator if missing.
	Send(line string) error
	// Monitor reads lines from the port and fans them out until the
	// context is cancelled or the port fails.
	Monitor(ctx context.Context) error
	// Close closes all subscriptions and the underlying port.
	Close() error
}

// New creates a SerialMux over an open port.
func New(port Porter) *SerialMux {
	return &SerialMux{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// Subscribe registers a new line subscriber. Subscriber channels are
// buffered one line deep; a subscriber that falls behind misses lines
// rather than stalling the reader.
func (s *SerialMux) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, 1)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber.
func (s *SerialMux) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Send writes one line to the port. Writes are serialized so concurrent
// senders cannot interleave partial lines.
func (s *SerialMux) Send(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	n, err := s.port.Write([]byte(line))
	if err != nil {
		return err
	}
	if n != len(line) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads from the serial port and fans lines out to subscribers.
// The blocking scanner runs in its own goroutine so the select below stays
// responsive to cancellation.
func (s *SerialMux) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				// port EOF; scanner goroutine already reported any error
				return scan.Err()
			}

			s.closingMu.Lock()
			closing := s.closing
			s.closingMu.Unlock()
			if closing {
				return nil
			}

			s.subscriberMu.Lock()
			for _, ch := range s.subscribers {
				select {
				case ch <- line:
				default:
					monitoring.Log.Debug().Str("line", line).Msg("dropping line for slow subscriber")
				}
			}
			s.subscriberMu.Unlock()
		}
	}
}

// Close tears down all subscriptions and closes the port.
func (s *SerialMux) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}
