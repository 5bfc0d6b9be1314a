package controller

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// #region decider
// Decider maps a signal to the stimulus it implies. ok is false for
// unmapped signals, which the machine ignores.
type Decider interface {
	Decide(sig signal.Signal) (id stimulus.ID, ok bool)
	// Targets lists every id Decide can return, for startup validation.
	Targets() []stimulus.ID
}

// DeciderFunc adapts a function. Its targets must be listed explicitly.
type DeciderFunc struct {
	Fn  func(signal.Signal) (stimulus.ID, bool)
	IDs []stimulus.ID
}

func (d DeciderFunc) Decide(sig signal.Signal) (stimulus.ID, bool) { return d.Fn(sig) }
func (d DeciderFunc) Targets() []stimulus.ID                        { return d.IDs }

// #endregion decider

// #region table-decider
// TableDecider looks up the signal label.
type TableDecider map[string]stimulus.ID

func (t TableDecider) Decide(sig signal.Signal) (stimulus.ID, bool) {
	id, ok := t[sig.Label]
	return id, ok
}

func (t TableDecider) Targets() []stimulus.ID {
	seen := make(map[stimulus.ID]struct{}, len(t))
	out := make([]stimulus.ID, 0, len(t))
	for _, id := range t {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// #endregion table-decider

// #region threshold-decider
// Band selects Stimulus for values below Below. The last band of a
// ThresholdDecider may use +Inf.
type Band struct {
	Below    float64
	Stimulus stimulus.ID
}

// ThresholdDecider thresholds one numeric field of the signal. Bands must be
// sorted by Below; values at or above the last bound are unmapped.
type ThresholdDecider struct {
	Index int
	Bands []Band
}

// NewThresholdDecider checks band ordering.
func NewThresholdDecider(index int, bands []Band) (*ThresholdDecider, error) {
	if index < 0 {
		return nil, fmt.Errorf("threshold index must be non-negative, got %d", index)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("threshold decider needs at least one band")
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Below <= bands[i-1].Below {
			return nil, fmt.Errorf("band %d bound %.4f not above %.4f", i, bands[i].Below, bands[i-1].Below)
		}
	}
	return &ThresholdDecider{Index: index, Bands: bands}, nil
}

func (d *ThresholdDecider) Decide(sig signal.Signal) (stimulus.ID, bool) {
	v, ok := sig.Value(d.Index)
	if !ok {
		return "", false
	}
	for _, b := range d.Bands {
		if v < b.Below {
			return b.Stimulus, true
		}
	}
	return "", false
}

func (d *ThresholdDecider) Targets() []stimulus.ID {
	out := make([]stimulus.ID, 0, len(d.Bands))
	for _, b := range d.Bands {
		out = append(out, b.Stimulus)
	}
	return out
}

// #endregion threshold-decider
