// Package replay runs recorded signal sequences through the full session
// pipeline in memory: catalog, state machine, scheduler and a headless
// renderer, one frame at a time with a synthetic clock.
package replay

import (
	"fmt"
	"sort"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/render"
	"github.com/danielpatrickdp/stimloop/internal/scheduler"
	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// Epoch is the synthetic start time of every replay.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// #region types
// Switch is one switch observed during replay.
type Switch struct {
	Frame   int
	Time    time.Time
	From    stimulus.ID
	To      stimulus.ID
	Reason  controller.Reason
	Trigger string
}

// Result captures everything a replay run produced.
type Result struct {
	Switches []Switch
	Frames   int
	Signals  signal.Stats
	History  []stimulus.ID       // renderer attach order
	TimeIn   map[stimulus.ID]int // frames spent per stimulus
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Frames       int
	Switches     int
	BySignal     int
	ByExpiry     int
	Received     uint64
	Dropped      uint64
	DecodeErrors uint64
}

type recorder struct {
	frame    int
	switches []Switch
}

func (r *recorder) Log(ev controller.SwitchEvent) {
	r.switches = append(r.switches, Switch{
		Frame:   r.frame,
		Time:    ev.Time,
		From:    ev.From,
		To:      ev.To,
		Reason:  ev.Reason,
		Trigger: ev.TriggerValue(),
	})
}

// #endregion types

// #region replay
// Replay builds the session from f.Config and ticks f.Frames frames at the
// configured frame rate, injecting each signal before its frame.
func Replay(f *Fixture) (*Result, error) {
	catalog, err := f.Config.BuildCatalog()
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	decider, err := f.Config.BuildDecider()
	if err != nil {
		return nil, fmt.Errorf("build decider: %w", err)
	}

	dt := time.Second / time.Duration(f.Config.Session.FPS)
	now := Epoch
	rx := signal.NewReceiver(nil, signal.WithClock(func() time.Time { return now }))
	rec := &recorder{}
	renderer := render.NewHeadless()
	machine := controller.New(f.Config.ControllerConfig(), decider)
	sched := scheduler.New(catalog, machine, rx, renderer, rec,
		scheduler.WithClock(func() time.Time { return now }))

	if err := sched.Start(now); err != nil {
		return nil, err
	}

	byFrame := make(map[int][]string, len(f.Signals))
	for _, s := range f.Signals {
		byFrame[s.Frame] = append(byFrame[s.Frame], s.Payload)
	}

	timeIn := make(map[stimulus.ID]int)
	for frame := 1; frame <= f.Frames; frame++ {
		now = now.Add(dt)
		rec.frame = frame
		for _, p := range byFrame[frame] {
			// decode errors are counted by the receiver
			_ = rx.Inject([]byte(p))
		}
		if err := sched.Tick(now, dt); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
		timeIn[sched.Active()]++
	}

	return &Result{
		Switches: rec.switches,
		Frames:   f.Frames,
		Signals:  rx.Stats(),
		History:  renderer.History(),
		TimeIn:   timeIn,
	}, nil
}

// Compare lists every difference between the observed and expected
// switches. An empty slice means the run matched.
func Compare(got []Switch, want []FixtureSwitch) []string {
	var diffs []string
	n := len(got)
	if len(want) > n {
		n = len(want)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(got):
			w := want[i]
			diffs = append(diffs, fmt.Sprintf("switch %d: missing, want frame %d %s->%s (%s)", i, w.Frame, w.From, w.To, w.Reason))
		case i >= len(want):
			g := got[i]
			diffs = append(diffs, fmt.Sprintf("switch %d: unexpected frame %d %s->%s (%s)", i, g.Frame, g.From, g.To, g.Reason))
		default:
			g, w := got[i], want[i]
			if g.Frame != w.Frame || string(g.From) != w.From || string(g.To) != w.To || string(g.Reason) != w.Reason {
				diffs = append(diffs, fmt.Sprintf("switch %d: got frame %d %s->%s (%s), want frame %d %s->%s (%s)",
					i, g.Frame, g.From, g.To, g.Reason, w.Frame, w.From, w.To, w.Reason))
			}
		}
	}
	return diffs
}

// Summarize computes aggregate stats from a replay result.
func Summarize(r *Result) Summary {
	s := Summary{
		Frames:       r.Frames,
		Received:     r.Signals.Received,
		Dropped:      r.Signals.Dropped,
		DecodeErrors: r.Signals.DecodeErrors,
	}
	for _, sw := range r.Switches {
		switch sw.Reason {
		case controller.ReasonInitial:
			continue
		case controller.ReasonSignal:
			s.BySignal++
		case controller.ReasonExpired:
			s.ByExpiry++
		}
		s.Switches++
	}
	return s
}

// Stimuli returns the ids in r.TimeIn sorted by frames shown, most first.
func (r *Result) Stimuli() []stimulus.ID {
	ids := make([]stimulus.ID, 0, len(r.TimeIn))
	for id := range r.TimeIn {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if r.TimeIn[ids[i]] != r.TimeIn[ids[j]] {
			return r.TimeIn[ids[i]] > r.TimeIn[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// #endregion replay
