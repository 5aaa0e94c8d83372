package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/annotpipe/logger"
)

// DefaultKeepAlive stays below common proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// ErrStreamingUnsupported is returned when the writer cannot flush.
var ErrStreamingUnsupported = errors.New("sse: streaming not supported")

// Stream writes events to one client.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	log     *logger.Logger

	// KeepAlive is the idle period after which a comment line is sent.
	KeepAlive time.Duration
}

// Open writes the event-stream headers and lifts the server write deadline
// for the connection.
func Open(w http.ResponseWriter, log *logger.Logger) (*Stream, error) {
	if log == nil {
		log = logger.Nop()
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher, log: log, KeepAlive: DefaultKeepAlive}, nil
}

// Send writes one event with JSON-encoded data.
func (s *Stream) Send(ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("sse: encoding %s event: %w", ev.Name, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Comment writes a comment line, which clients ignore.
func (s *Stream) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Poll calls next immediately and then every interval, sending each event it
// returns, until next reports done or ctx ends. A keep-alive comment is sent
// when nothing else went out for KeepAlive.
func (s *Stream) Poll(ctx context.Context, interval time.Duration, next func(context.Context) (Event, bool)) error {
	keepAlive := s.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastWrite := time.Now()

	for {
		ev, done := next(ctx)
		if ev.Name != "" {
			if err := s.Send(ev); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			s.log.Debug("stream closed by client", logger.Fields("reason", ctx.Err().Error()))
			return ctx.Err()
		case <-ticker.C:
		}

		if time.Since(lastWrite) >= keepAlive {
			if err := s.Comment(fmt.Sprintf("keepalive %d", time.Now().Unix())); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
