package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			kind := EventPageStarted
			if i%2 == 0 {
				kind = EventPageDone
			}
			rec.Observe(Event{Page: i, Kind: kind})
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Events(), 10)
	assert.Len(t, rec.Kind(EventPageDone), 5)
	assert.Empty(t, rec.Kind(EventFallback))

	events := rec.Events()
	events[0].Page = 99
	assert.NotEqual(t, 99, rec.Events()[0].Page, "Events returns a copy")
}

func TestMultiAndRunID(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	obs := withRunID("run-42", Multi(a, b, NopObserver{}))

	obs.Observe(Event{Page: 1, Kind: EventFallback})

	for _, r := range []*Recorder{a, b} {
		require.Len(t, r.Events(), 1)
		assert.Equal(t, "run-42", r.Events()[0].RunID)
	}
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	obs := NewSlogObserver(logger)

	obs.Observe(Event{RunID: "r1", Page: 3, Kind: EventFallback, Detail: "no text detector"})
	obs.Observe(Event{Page: 3, Kind: EventRegionDropped, Err: errors.New("degenerate region")})
	obs.Observe(Event{Page: 3, Kind: EventPageStarted})

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=fallback page=3 run_id=r1")
	assert.Contains(t, out, `detail="no text detector"`)
	assert.Contains(t, out, "level=WARN msg=region_dropped")
	assert.Contains(t, out, `error="degenerate region"`)
	assert.NotContains(t, out, "page_started", "debug events are filtered at info level")
}

func TestEventLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, eventLevel(EventPageFailed))
	assert.Equal(t, slog.LevelWarn, eventLevel(EventConfigFailed))
	assert.Equal(t, slog.LevelWarn, eventLevel(EventIndexMismatch))
	assert.Equal(t, slog.LevelInfo, eventLevel(EventFallback))
	assert.Equal(t, slog.LevelDebug, eventLevel(EventPageDone))
}
