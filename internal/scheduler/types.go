package scheduler

import (
	"time"

	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// #region collaborators
// Poller is the non-blocking signal source, normally *signal.Receiver.
type Poller interface {
	Poll() (signal.Signal, bool)
}

// EventLogger receives switch events. Log must not block.
type EventLogger interface {
	Log(ev controller.SwitchEvent)
}

// #endregion collaborators

// #region tick-stats
// TickStats is passed to the stats hook after every tick.
type TickStats struct {
	Frame    uint64
	Now      time.Time
	DT       time.Duration
	FPS      float64 // exponentially smoothed
	TickCost time.Duration
	Switched bool
	Signals  *signal.Stats // nil unless the poller exposes Stats
}

// #endregion tick-stats

// #region snapshot
// Snapshot is a copy of the scheduler state for readers outside the frame loop.
type Snapshot struct {
	Active     stimulus.ID   `json:"active"`
	Pending    stimulus.ID   `json:"pending,omitempty"`
	Streak     int           `json:"streak"`
	LastSwitch time.Time     `json:"last_switch"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Frames     uint64        `json:"frames"`
	Switches   int           `json:"switches"`
	FPS        float64       `json:"fps"`
}

// #endregion snapshot
