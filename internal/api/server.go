// Package api serves the debug/observability HTTP surface: a state
// snapshot, a live tail of the device-to-host line stream, and command
// injection. It observes the core and feeds its single inbound channel; it
// never mutates component state directly.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/courierbotics/trundle/internal/core"
	"github.com/courierbotics/trundle/internal/httputil"
	"github.com/courierbotics/trundle/internal/version"
)

// Tailer is the slice of the serial mux used for the live tail.
type Tailer interface {
	Subscribe() (string, chan string)
	Unsubscribe(id string)
}

// Server exposes the debug routes.
type Server struct {
	loop *core.Loop
	tail Tailer
}

// NewServer builds a server over the control loop and the outbound line
// stream.
func NewServer(loop *core.Loop, tail Tailer) *Server {
	return &Server{loop: loop, tail: tail}
}

// Router returns the chi router with all debug routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/tail", s.handleTail)
	r.Post("/api/command", s.handleCommand)
	return r
}

type statusResponse struct {
	Version  string        `json:"version"`
	GitSHA   string        `json:"git_sha"`
	Snapshot core.Snapshot `json:"snapshot"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, statusResponse{
		Version:  version.Version,
		GitSHA:   version.GitSHA,
		Snapshot: s.loop.Snapshot(),
	})
}

// handleCommand injects one command line into the core's inbound queue, as
// if the host had sent it over serial.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	line := strings.TrimSpace(r.FormValue("line"))
	if line == "" {
		httputil.BadRequest(w, "missing line")
		return
	}
	if !s.loop.Inject(line) {
		httputil.InternalServerError(w, "inbound queue full")
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"injected": line})
}

// handleTail streams device-to-host protocol lines as Server-Sent Events.
func (s *Server) handleTail(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, c := s.tail.Subscribe()
	defer s.tail.Unsubscribe(id)

	// initial comment establishes the stream for the client
	fmt.Fprint(w, ": ping\n\n")
	flusher.Flush()

	for {
		select {
		case line, ok := <-c:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", strings.TrimSuffix(line, "\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
