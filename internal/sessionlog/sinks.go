package sessionlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/store"
)

// #region tsv
// TSVSink writes one line per record:
// <RFC3339Nano time>\t<from>\t<to>\t<trigger>
// An empty from is written as "-".
type TSVSink struct {
	w *bufio.Writer
	c io.Closer
}

// NewTSVSink writes to w, closing it on Close if it is an io.Closer.
func NewTSVSink(w io.Writer) *TSVSink {
	s := &TSVSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *TSVSink) Write(rec Record) error {
	from := rec.From
	if from == "" {
		from = "-"
	}
	if _, err := fmt.Fprintf(s.w, "%s\t%s\t%s\t%s\n",
		rec.Time.UTC().Format(time.RFC3339Nano), from, rec.To, rec.Trigger); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *TSVSink) Close() error {
	err := s.w.Flush()
	if s.c != nil {
		if cerr := s.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// #endregion tsv

// #region store
// StoreSink appends records to the SQLite switch_events table. The store
// itself is owned by the caller and not closed here.
type StoreSink struct {
	store *store.Store
}

// NewStoreSink wraps st.
func NewStoreSink(st *store.Store) *StoreSink {
	return &StoreSink{store: st}
}

func (s *StoreSink) Write(rec Record) error {
	return s.store.InsertSwitch(store.SwitchRow{
		SessionID:  rec.SessionID,
		Seq:        rec.Seq,
		Time:       rec.Time,
		From:       rec.From,
		To:         rec.To,
		Trigger:    rec.Trigger,
		Reason:     rec.Reason,
		ParamsJSON: rec.Params,
	})
}

func (s *StoreSink) Close() error { return nil }

// #endregion store

// #region multi
// MultiSink writes every record to each sink, continuing past failures.
type MultiSink []Sink

func (m MultiSink) Write(rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// #endregion multi
