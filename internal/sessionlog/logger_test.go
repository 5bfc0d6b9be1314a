package sessionlog

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
	"github.com/danielpatrickdp/stimloop/internal/store"
	"github.com/danielpatrickdp/stimloop/internal/texture"
)

// #region fakes
type memSink struct {
	mu      sync.Mutex
	records []Record
	closed  bool
}

func (m *memSink) Write(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

// blockingSink holds the writer goroutine until release is closed.
type blockingSink struct {
	memSink
	release chan struct{}
}

func (b *blockingSink) Write(rec Record) error {
	<-b.release
	return b.memSink.Write(rec)
}

type failingSink struct{}

func (failingSink) Write(Record) error { return errors.New("disk full") }
func (failingSink) Close() error       { return nil }

// #endregion fakes

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func switchEvent(from, to, trigger string, at time.Time) controller.SwitchEvent {
	ev := controller.SwitchEvent{From: stimulus.ID(from), To: stimulus.ID(to), Time: at, Reason: controller.ReasonSignal}
	if trigger != "" {
		ev.Trigger = &signal.Signal{Label: trigger}
	}
	return ev
}

func TestLoggerWritesInOrder(t *testing.T) {
	sink := &memSink{}
	l := NewLogger("sess-1", sink)

	l.Log(switchEvent("", "A", "", t0))
	l.Log(switchEvent("A", "B", "1", t0.Add(time.Second)))
	l.Log(switchEvent("B", "A", "0", t0.Add(2*time.Second)))

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sink.closed {
		t.Error("expected sink closed")
	}
	if len(sink.records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(sink.records))
	}
	for i, rec := range sink.records {
		if rec.Seq != uint64(i+1) || rec.SessionID != "sess-1" {
			t.Errorf("record %d: unexpected seq/session %+v", i, rec)
		}
	}
	if sink.records[0].Trigger != "-" || sink.records[1].Trigger != "1" {
		t.Errorf("unexpected triggers: %q %q", sink.records[0].Trigger, sink.records[1].Trigger)
	}
	if st := l.Stats(); st.Written != 3 || st.Dropped != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestLogNeverBlocks(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	l := NewLogger("sess-1", sink, WithBufferSize(2))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			l.Log(switchEvent("A", "B", "1", t0))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Log blocked on a stalled sink")
	}

	close(sink.release)
	l.Close()

	st := l.Stats()
	if st.Dropped == 0 {
		t.Error("expected drops with a stalled sink and small buffer")
	}
	if st.Written+st.Dropped != 10 {
		t.Errorf("expected written+dropped=10, got %+v", st)
	}
}

func TestLogAfterCloseDropped(t *testing.T) {
	l := NewLogger("s", &memSink{})
	l.Close()
	l.Log(switchEvent("A", "B", "1", t0))
	if l.Stats().Dropped != 1 {
		t.Errorf("expected 1 drop, got %+v", l.Stats())
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSinkFailureCounted(t *testing.T) {
	l := NewLogger("s", failingSink{})
	l.Log(switchEvent("A", "B", "1", t0))
	l.Close()
	if l.Stats().Failed != 1 {
		t.Errorf("expected 1 failure, got %+v", l.Stats())
	}
}

func TestLoggerParamsFromCatalog(t *testing.T) {
	c := stimulus.NewCatalog()
	tex := texture.DefaultSpec()
	tex.Size = 8
	c.Register(stimulus.Spec{ID: "B", Texture: tex, Motion: stimulus.Motion{Velocity: 0.25, Angle: 90}})

	sink := &memSink{}
	l := NewLogger("s", sink, WithCatalog(c))
	l.Log(switchEvent("A", "B", "1", t0))
	l.Close()

	if !strings.Contains(sink.records[0].Params, `"velocity":0.25`) {
		t.Errorf("expected motion params in record, got %q", sink.records[0].Params)
	}
}

func TestTSVSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("s", NewTSVSink(&buf))
	l.Log(switchEvent("", "A", "", t0))
	l.Log(switchEvent("A", "B", "1", t0.Add(1500*time.Millisecond)))
	l.Close()

	want := "2026-03-01T12:00:00Z\t-\tA\t-\n" +
		"2026-03-01T12:00:01.5Z\tA\tB\t1\n"
	if buf.String() != want {
		t.Errorf("unexpected TSV:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestStoreSink(t *testing.T) {
	st, err := store.NewStore(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()
	sess, err := st.CreateSession(t0, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	l := NewLogger(sess.ID, NewStoreSink(st))
	l.Log(switchEvent("", "A", "", t0))
	l.Log(switchEvent("A", "B", "1", t0.Add(time.Second)))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows, err := st.ListSwitches(sess.ID)
	if err != nil {
		t.Fatalf("ListSwitches: %v", err)
	}
	if len(rows) != 2 || rows[1].To != "B" || rows[1].Trigger != "1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	m := MultiSink{a, failingSink{}, b}
	err := m.Write(Record{To: "A"})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(a.records) != 1 || len(b.records) != 1 {
		t.Error("healthy sinks should still receive the record")
	}
}
