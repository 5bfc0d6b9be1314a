package sessionlog

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// DefaultBufferSize is the record queue length used when none is given.
const DefaultBufferSize = 256

// #region logger
// Logger queues switch events for a background writer. Log never blocks:
// when the queue is full the record is dropped and counted.
type Logger struct {
	sessionID string
	catalog   *stimulus.Catalog
	sink      Sink

	mu      sync.RWMutex
	closed  bool
	seq     uint64
	records chan Record
	done    chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// Option configures a Logger.
type Option func(*Logger)

// WithBufferSize sets the queue length.
func WithBufferSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.records = make(chan Record, n)
		}
	}
}

// WithCatalog attaches motion params of the target stimulus to each record.
func WithCatalog(c *stimulus.Catalog) Option {
	return func(l *Logger) { l.catalog = c }
}

// NewLogger starts the writer goroutine.
func NewLogger(sessionID string, sink Sink, opts ...Option) *Logger {
	l := &Logger{
		sessionID: sessionID,
		sink:      sink,
		records:   make(chan Record, DefaultBufferSize),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.run()
	return l
}

// #endregion logger

// #region log
// Log enqueues ev. It is safe to call from the frame loop.
func (l *Logger) Log(ev controller.SwitchEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	l.seq++
	rec := Record{
		SessionID: l.sessionID,
		Seq:       l.seq,
		Time:      ev.Time,
		From:      string(ev.From),
		To:        string(ev.To),
		Trigger:   ev.TriggerValue(),
		Reason:    string(ev.Reason),
		Params:    l.params(ev.To),
	}
	select {
	case l.records <- rec:
	default:
		l.dropped.Add(1)
	}
}

func (l *Logger) params(id stimulus.ID) string {
	if l.catalog == nil {
		return ""
	}
	spec, err := l.catalog.Get(id)
	if err != nil {
		return ""
	}
	b, err := json.Marshal(spec.Motion)
	if err != nil {
		return ""
	}
	return string(b)
}

// #endregion log

// #region writer
func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.records {
		if err := l.sink.Write(rec); err != nil {
			l.failed.Add(1)
			log.Printf("session log write seq=%d: %v", rec.Seq, err)
			continue
		}
		l.written.Add(1)
	}
}

// Close drains queued records and closes the sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.records)
	l.mu.Unlock()

	<-l.done
	return l.sink.Close()
}

// Stats returns logger counters.
func (l *Logger) Stats() Stats {
	return Stats{
		Written: l.written.Load(),
		Dropped: l.dropped.Load(),
		Failed:  l.failed.Load(),
	}
}

// #endregion writer
