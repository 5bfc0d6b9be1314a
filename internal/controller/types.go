package controller

import (
	"time"

	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// #region config
// Config holds the decision policy knobs.
type Config struct {
	Default               stimulus.ID // active stimulus at session start
	RequiredDebounceCount int         // consecutive matching signals needed to switch
}

// DefaultConfig switches on the first signal that implies a new stimulus.
func DefaultConfig(def stimulus.ID) Config {
	return Config{
		Default:               def,
		RequiredDebounceCount: 1,
	}
}

// #endregion config

// #region state
// State is the machine's view of the session. Pending is empty when no
// candidate is accumulating.
type State struct {
	Active     stimulus.ID
	Pending    stimulus.ID
	Streak     int
	LastSwitch time.Time
}

// #endregion state

// #region switch-event
// Reason records why a switch happened.
type Reason string

const (
	ReasonInitial Reason = "initial"
	ReasonSignal  Reason = "signal"
	ReasonExpired Reason = "expired"
)

// SwitchEvent is emitted when the active stimulus changes. From is empty for
// the initial stimulus; Trigger is nil unless Reason is ReasonSignal.
type SwitchEvent struct {
	From    stimulus.ID
	To      stimulus.ID
	Time    time.Time
	Trigger *signal.Signal
	Reason  Reason
}

// TriggerValue returns the trigger label, or "-" when there is none.
func (e SwitchEvent) TriggerValue() string {
	if e.Trigger == nil {
		return "-"
	}
	return e.Trigger.Label
}

// #endregion switch-event
