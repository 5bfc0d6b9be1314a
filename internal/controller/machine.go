package controller

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// #region machine
// Machine is the closed-loop state machine. It is not safe for concurrent
// use; the frame loop owns it.
type Machine struct {
	config  Config
	decider Decider
	state   State
}

// New creates a machine in its initial state. A debounce count below 1 is
// treated as 1.
func New(config Config, decider Decider) *Machine {
	if config.RequiredDebounceCount < 1 {
		config.RequiredDebounceCount = 1
	}
	return &Machine{
		config:  config,
		decider: decider,
		state:   State{Active: config.Default},
	}
}

// State returns a snapshot of the machine state.
func (m *Machine) State() State {
	return m.state
}

// Config returns the configuration the machine was built with.
func (m *Machine) Config() Config {
	return m.config
}

// Restore puts the machine back into st. The scheduler uses it when a
// committed switch could not be shown.
func (m *Machine) Restore(st State) {
	m.state = st
}

// Reachable returns the default followed by every decider target.
func (m *Machine) Reachable() []stimulus.ID {
	return append([]stimulus.ID{m.config.Default}, m.decider.Targets()...)
}

// #endregion machine

// #region validate
// Validate checks that the default and every decider target exist in the
// catalog, so that no switch can reference an unknown stimulus mid-session.
func (m *Machine) Validate(catalog *stimulus.Catalog) error {
	if _, err := catalog.Get(m.config.Default); err != nil {
		return fmt.Errorf("default stimulus: %w", err)
	}
	for _, id := range m.decider.Targets() {
		if _, err := catalog.Get(id); err != nil {
			return fmt.Errorf("decision mapping: %w", err)
		}
	}
	return nil
}

// #endregion validate

// #region on-signal
// OnSignal applies one signal. A SwitchEvent is returned only when the
// active stimulus changes.
func (m *Machine) OnSignal(sig signal.Signal, now time.Time) (SwitchEvent, bool) {
	candidate, ok := m.decider.Decide(sig)
	if !ok {
		return SwitchEvent{}, false
	}

	if candidate == m.state.Active {
		m.state.Pending = ""
		m.state.Streak = 0
		return SwitchEvent{}, false
	}

	if candidate == m.state.Pending {
		m.state.Streak++
	} else {
		m.state.Pending = candidate
		m.state.Streak = 1
	}

	if m.state.Streak < m.config.RequiredDebounceCount {
		return SwitchEvent{}, false
	}

	trigger := sig
	return m.switchTo(candidate, now, ReasonSignal, &trigger), true
}

// #endregion on-signal

// #region force
// Force switches to id regardless of debounce, e.g. when a fixed-duration
// stimulus expires. Pending candidates are discarded either way.
func (m *Machine) Force(id stimulus.ID, now time.Time, reason Reason) (SwitchEvent, bool) {
	m.state.Pending = ""
	m.state.Streak = 0
	if id == m.state.Active {
		return SwitchEvent{}, false
	}
	return m.switchTo(id, now, reason, nil), true
}

func (m *Machine) switchTo(id stimulus.ID, now time.Time, reason Reason, trigger *signal.Signal) SwitchEvent {
	ev := SwitchEvent{
		From:    m.state.Active,
		To:      id,
		Time:    now,
		Trigger: trigger,
		Reason:  reason,
	}
	m.state = State{Active: id, LastSwitch: now}
	return ev
}

// #endregion force
