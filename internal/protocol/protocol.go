// Package protocol implements the newline-delimited ASCII line protocol
// spoken between the robot and the host controller.
//
// Host to robot:   TYPE:ACTION:VALUE\n
// Robot to host:   ACK:<TYPE>\n, EVT:<KIND>[:<data>...]\n, SYS:PONG\n, ERR:<CODE>\n
//
// All functions here are pure; framing and I/O live in serialmux.
package protocol

import (
	"bytes"
	"errors"
	"strings"
)

// ErrMalformed is returned for lines that do not carry both ':' delimiters
// or have an empty type token. Malformed lines are dropped by the caller
// without a reply.
var ErrMalformed = errors.New("protocol: malformed line")

const (
	// MaxLineLen is the longest accepted inbound line, excluding the
	// terminating newline. Longer lines are truncated before decoding.
	MaxLineLen = 63

	// MaxActionLen and MaxValueLen bound the decoded fields. Overlong
	// input is truncated, never an error, so a host speaking a newer
	// dialect cannot jam the parser.
	MaxActionLen = 11
	MaxValueLen  = 31
)

// Kind identifies the routing class of an inbound command.
type Kind int

const (
	KindUnknown Kind = iota
	KindMove         // MOV - drive motors
	KindServo        // SRV - compartment locks
	KindLCD          // LCD - display passthrough
	KindSys          // SYS - system queries
)

// String returns the wire token for the kind.
func (k Kind) String() string {
	switch k {
	case KindMove:
		return "MOV"
	case KindServo:
		return "SRV"
	case KindLCD:
		return "LCD"
	case KindSys:
		return "SYS"
	}
	return "UNKNOWN"
}

func parseKind(token string) Kind {
	switch token {
	case "MOV":
		return KindMove
	case "SRV":
		return KindServo
	case "LCD":
		return KindLCD
	case "SYS":
		return KindSys
	}
	return KindUnknown
}

// Command is one decoded host command. It is transient: created by Decode
// and consumed immediately by the dispatcher.
type Command struct {
	Kind   Kind
	Action string
	Value  string
}

// truncate bounds s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Decode parses a raw line (without the trailing newline) into a Command.
//
// The line is split on the first two ':' only; everything after the second
// delimiter, including further colons and spaces, becomes Value verbatim.
// Trailing CR from CRLF hosts is stripped.
func Decode(line []byte) (Command, error) {
	if len(line) > MaxLineLen {
		line = line[:MaxLineLen]
	}
	s := strings.TrimRight(string(bytes.TrimSuffix(line, []byte("\n"))), "\r")

	first := strings.IndexByte(s, ':')
	if first <= 0 {
		// missing delimiter, or empty kind token
		return Command{}, ErrMalformed
	}
	rest := s[first+1:]
	second := strings.IndexByte(rest, ':')
	if second < 0 {
		return Command{}, ErrMalformed
	}

	return Command{
		Kind:   parseKind(s[:first]),
		Action: truncate(rest[:second], MaxActionLen),
		Value:  truncate(rest[second+1:], MaxValueLen),
	}, nil
}

// EncodeEvent renders an EVT line: EVT:<kind>[:<data>...]\n.
func EncodeEvent(kind string, data ...string) string {
	var b strings.Builder
	b.WriteString("EVT:")
	b.WriteString(kind)
	for _, d := range data {
		b.WriteByte(':')
		b.WriteString(d)
	}
	b.WriteByte('\n')
	return b.String()
}

// EncodeAck renders an ACK line for a command type.
func EncodeAck(kind string) string {
	return "ACK:" + kind + "\n"
}

// EncodeErr renders an ERR line for an error code.
func EncodeErr(code string) string {
	return "ERR:" + code + "\n"
}

// Pong is the reply to SYS:PING.
func Pong() string {
	return "SYS:PONG\n"
}

// Sender consumes encoded lines bound for the host. Sends are
// fire-and-forget: the control cycle never blocks on output.
type Sender interface {
	Send(line string)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(line string)

// Send implements Sender.
func (f SenderFunc) Send(line string) { f(line) }

// MultiSender fans one line out to several senders in order.
type MultiSender []Sender

// Send implements Sender.
func (m MultiSender) Send(line string) {
	for _, s := range m {
		s.Send(line)
	}
}
