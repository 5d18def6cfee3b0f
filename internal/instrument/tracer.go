// Package instrument times splitter phases and reports them through zap.
package instrument

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SpanTracer logs the duration of each named span when it stops.
// It satisfies meshsplit.Tracer.
type SpanTracer struct {
	log *zap.Logger
	now func() time.Time

	mu      sync.Mutex
	started map[string]time.Time
	totals  map[string]time.Duration
}

// NewSpanTracer creates a tracer that writes to log. A nil log discards output.
func NewSpanTracer(log *zap.Logger) *SpanTracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SpanTracer{
		log:     log,
		now:     time.Now,
		started: make(map[string]time.Time),
		totals:  make(map[string]time.Duration),
	}
}

// Start marks the beginning of span name. Starting a running span restarts it.
func (t *SpanTracer) Start(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started[name] = t.now()
}

// Stop ends span name and logs its duration. Stopping a span that was never
// started is ignored.
func (t *SpanTracer) Stop(name string) {
	t.mu.Lock()
	start, ok := t.started[name]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.started, name)
	d := t.now().Sub(start)
	t.totals[name] += d
	t.mu.Unlock()

	t.log.Debug("span", zap.String("name", name), zap.Duration("elapsed", d))
}

// Total returns the accumulated duration of every completed span called name.
func (t *SpanTracer) Total(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals[name]
}
