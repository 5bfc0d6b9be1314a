package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
	"github.com/danielpatrickdp/stimloop/internal/texture"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sig(label string) signal.Signal {
	return signal.Signal{Label: label, Raw: label}
}

func abMachine(debounce int) *Machine {
	cfg := DefaultConfig("A")
	cfg.RequiredDebounceCount = debounce
	return New(cfg, TableDecider{"0": "A", "1": "B"})
}

func abCatalog(t *testing.T, ids ...stimulus.ID) *stimulus.Catalog {
	t.Helper()
	c := stimulus.NewCatalog()
	for _, id := range ids {
		tex := texture.DefaultSpec()
		tex.Size = 8
		if err := c.Register(stimulus.Spec{ID: id, Texture: tex}); err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
	}
	return c
}

func TestInitialState(t *testing.T) {
	m := abMachine(1)
	st := m.State()
	if st.Active != "A" || st.Pending != "" || st.Streak != 0 {
		t.Fatalf("unexpected initial state: %+v", st)
	}
}

func TestImmediateSwitchWithDefaultDebounce(t *testing.T) {
	m := abMachine(1)
	ev, ok := m.OnSignal(sig("1"), t0)
	if !ok {
		t.Fatal("expected switch on first signal")
	}
	if ev.From != "A" || ev.To != "B" || !ev.Time.Equal(t0) || ev.Reason != ReasonSignal {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Trigger == nil || ev.Trigger.Label != "1" {
		t.Fatalf("expected trigger 1, got %+v", ev.Trigger)
	}
	if m.State().LastSwitch != t0 {
		t.Errorf("expected LastSwitch %v, got %v", t0, m.State().LastSwitch)
	}
}

func TestDebounceTwoConsecutive(t *testing.T) {
	m := abMachine(2)
	t1 := t0.Add(10 * time.Millisecond)

	if _, ok := m.OnSignal(sig("1"), t0); ok {
		t.Fatal("switched before debounce reached")
	}
	ev, ok := m.OnSignal(sig("1"), t1)
	if !ok {
		t.Fatal("expected switch on second matching signal")
	}
	if ev.From != "A" || ev.To != "B" || !ev.Time.Equal(t1) {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// Further identical signals do not re-emit.
	if _, ok := m.OnSignal(sig("1"), t1.Add(time.Millisecond)); ok {
		t.Fatal("emitted without a change of active stimulus")
	}
}

func TestDebounceResetByActiveSignal(t *testing.T) {
	m := abMachine(2)
	for i, s := range []string{"1", "0", "1"} {
		if _, ok := m.OnSignal(sig(s), t0.Add(time.Duration(i)*time.Millisecond)); ok {
			t.Fatalf("unexpected switch at step %d", i)
		}
	}
	st := m.State()
	if st.Active != "A" || st.Pending != "B" || st.Streak != 1 {
		t.Fatalf("unexpected state after [1,0,1]: %+v", st)
	}
}

func TestFiresExactlyOnKthSignal(t *testing.T) {
	for k := 1; k <= 6; k++ {
		m := abMachine(k)
		fired := 0
		firedAt := -1
		for i := 1; i <= k+3; i++ {
			if _, ok := m.OnSignal(sig("1"), t0.Add(time.Duration(i)*time.Millisecond)); ok {
				fired++
				firedAt = i
			}
		}
		if fired != 1 || firedAt != k {
			t.Errorf("k=%d: expected exactly one switch at signal %d, got %d switches (last at %d)", k, k, fired, firedAt)
		}
	}
}

func TestActiveSignalClearsPending(t *testing.T) {
	m := abMachine(3)
	m.OnSignal(sig("1"), t0)
	m.OnSignal(sig("1"), t0)
	if m.State().Streak != 2 {
		t.Fatalf("expected streak 2, got %d", m.State().Streak)
	}
	m.OnSignal(sig("0"), t0)
	st := m.State()
	if st.Pending != "" || st.Streak != 0 {
		t.Fatalf("expected pending cleared, got %+v", st)
	}
}

func TestCandidateChangeRestartsStreak(t *testing.T) {
	cfg := DefaultConfig("A")
	cfg.RequiredDebounceCount = 2
	m := New(cfg, TableDecider{"0": "A", "1": "B", "2": "C"})

	m.OnSignal(sig("1"), t0)
	m.OnSignal(sig("2"), t0)
	st := m.State()
	if st.Pending != "C" || st.Streak != 1 {
		t.Fatalf("expected pending C streak 1, got %+v", st)
	}
	ev, ok := m.OnSignal(sig("2"), t0)
	if !ok || ev.To != "C" {
		t.Fatalf("expected switch to C, got %+v %v", ev, ok)
	}
}

func TestUnmappedSignalIgnored(t *testing.T) {
	m := abMachine(2)
	m.OnSignal(sig("1"), t0)
	before := m.State()

	if _, ok := m.OnSignal(sig("x"), t0.Add(time.Second)); ok {
		t.Fatal("unmapped signal must not switch")
	}
	if m.State() != before {
		t.Fatalf("unmapped signal changed state: %+v -> %+v", before, m.State())
	}
}

func TestDebounceBelowOneTreatedAsOne(t *testing.T) {
	m := abMachine(0)
	if _, ok := m.OnSignal(sig("1"), t0); !ok {
		t.Fatal("expected immediate switch")
	}
}

func TestForce(t *testing.T) {
	m := abMachine(3)
	m.OnSignal(sig("1"), t0)

	ev, ok := m.Force("B", t0.Add(time.Second), ReasonExpired)
	if !ok || ev.From != "A" || ev.To != "B" || ev.Reason != ReasonExpired || ev.Trigger != nil {
		t.Fatalf("unexpected forced event: %+v %v", ev, ok)
	}
	if ev.TriggerValue() != "-" {
		t.Errorf("expected '-' trigger value, got %q", ev.TriggerValue())
	}
	if _, ok := m.Force("B", t0.Add(2*time.Second), ReasonExpired); ok {
		t.Fatal("forcing the active stimulus must not emit")
	}
}

func TestRestoreUndoesSwitch(t *testing.T) {
	m := abMachine(1)
	prev := m.State()
	if _, ok := m.OnSignal(sig("1"), t0); !ok {
		t.Fatal("expected switch")
	}
	m.Restore(prev)
	if st := m.State(); st != prev {
		t.Fatalf("expected %+v after restore, got %+v", prev, st)
	}
	if ev, ok := m.OnSignal(sig("1"), t0.Add(time.Second)); !ok || ev.From != "A" {
		t.Fatalf("expected a fresh switch from A, got %+v %v", ev, ok)
	}
}

func TestReachable(t *testing.T) {
	got := abMachine(1).Reachable()
	want := []stimulus.ID{"A", "A", "B"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	m := abMachine(1)

	if err := m.Validate(abCatalog(t, "A", "B")); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var unknown *stimulus.UnknownStimulusError
	err := m.Validate(abCatalog(t, "A"))
	if !errors.As(err, &unknown) || unknown.ID != "B" {
		t.Fatalf("expected unknown B, got %v", err)
	}

	err = m.Validate(abCatalog(t, "B"))
	if !errors.As(err, &unknown) || unknown.ID != "A" {
		t.Fatalf("expected unknown default A, got %v", err)
	}
}
