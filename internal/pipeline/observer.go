package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// EventKind names a diagnostic event.
type EventKind string

const (
	EventPageStarted   EventKind = "page_started"
	EventPageDone      EventKind = "page_done"
	EventPageFailed    EventKind = "page_failed"
	EventFallback      EventKind = "fallback"
	EventConfigFailed  EventKind = "config_failed"
	EventRegionDropped EventKind = "region_dropped"
	EventIndexMismatch EventKind = "index_mismatch"
)

// Event is a page-scoped diagnostic.
type Event struct {
	RunID  string    `json:"run_id,omitempty"`
	Page   int       `json:"page"`
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
	Err    error     `json:"-"`
}

// Observer receives events. Implementations must be safe for concurrent use
// because pages are processed in parallel.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// NopObserver discards every event.
type NopObserver struct{}

// Observe does nothing.
func (NopObserver) Observe(Event) {}

// SlogObserver writes events to a structured logger.
type SlogObserver struct {
	Logger *slog.Logger
}

// NewSlogObserver returns an observer logging to logger, or to
// slog.Default() when logger is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{Logger: logger}
}

// Observe logs e. Failures and dropped regions are warnings, path fallbacks
// are informational and progress is debug output.
func (o *SlogObserver) Observe(e Event) {
	attrs := []slog.Attr{
		slog.Int("page", e.Page),
	}
	if e.RunID != "" {
		attrs = append(attrs, slog.String("run_id", e.RunID))
	}
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	o.Logger.LogAttrs(context.Background(), eventLevel(e.Kind), string(e.Kind), attrs...)
}

func eventLevel(k EventKind) slog.Level {
	switch k {
	case EventPageFailed, EventConfigFailed, EventRegionDropped, EventIndexMismatch:
		return slog.LevelWarn
	case EventFallback:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Recorder keeps every event it observes.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe records e.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kind returns the recorded events of kind k.
func (r *Recorder) Kind(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans each event out to every observer in turn.
func Multi(observers ...Observer) Observer {
	return ObserverFunc(func(e Event) {
		for _, o := range observers {
			o.Observe(e)
		}
	})
}

// withRunID stamps events with a run identifier before forwarding them.
func withRunID(runID string, next Observer) Observer {
	return ObserverFunc(func(e Event) {
		e.RunID = runID
		next.Observe(e)
	})
}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
