package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// String renders the entry for the panel's log pane.
func (e Entry) String() string {
	s := fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), e.Level, e.Message)
	for k, v := range e.Attrs {
		s += " " + k + "=" + v
	}
	return s
}

// RingHandler is a slog.Handler that keeps the most recent records in memory
// so the panel can show them without fighting the terminal for stderr.
type RingHandler struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

var _ slog.Handler = (*RingHandler)(nil)

// NewRingHandler returns a handler retaining up to maxSize records.
func NewRingHandler(maxSize int) *RingHandler {
	if maxSize <= 0 {
		maxSize = 200
	}
	return &RingHandler{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
}

func (h *RingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *RingHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string)
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.String()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
	return nil
}

func (h *RingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *RingHandler) WithGroup(string) slog.Handler { return h }

// Tail returns the newest n entries, oldest first.
func (h *RingHandler) Tail(n int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}
