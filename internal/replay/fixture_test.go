package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// #region fixture-tests

// TestFixture_TwoChoice loads the two_choice fixture, runs Replay(), and
// compares every switch against the expected list. If debounce, expiry or
// decode handling drifts, this catches it.
func TestFixture_TwoChoice(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "two_choice.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	res, err := Replay(f)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	for _, d := range Compare(res.Switches, f.Expected) {
		t.Error(d)
	}

	want := f.Stats
	if want == nil {
		t.Fatal("fixture has no expected_signal_stats")
	}
	got := res.Signals
	if got.Received != want.Received || got.Dropped != want.Dropped || got.DecodeErrors != want.DecodeErrors {
		t.Errorf("signal stats = %+v, want %+v", got, *want)
	}

	wantHistory := []stimulus.ID{"blank", "left", "blank", "right"}
	if len(res.History) != len(wantHistory) {
		t.Fatalf("history = %v, want %v", res.History, wantHistory)
	}
	for i := range wantHistory {
		if res.History[i] != wantHistory[i] {
			t.Errorf("history[%d] = %s, want %s", i, res.History[i], wantHistory[i])
		}
	}

	wantTime := map[stimulus.ID]int{"blank": 14, "left": 7, "right": 39}
	for id, n := range wantTime {
		if res.TimeIn[id] != n {
			t.Errorf("frames in %s = %d, want %d", id, res.TimeIn[id], n)
		}
	}
	if ids := res.Stimuli(); ids[0] != "right" {
		t.Errorf("Stimuli() = %v, want right first", ids)
	}

	s := Summarize(res)
	if s.Switches != 3 || s.BySignal != 2 || s.ByExpiry != 1 {
		t.Errorf("summary = %+v", s)
	}
}

// TestLoadFixture_NotFound verifies error on missing file.
func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.json")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

// TestLoadFixture_Malformed verifies error on invalid JSON.
func TestLoadFixture_Malformed(t *testing.T) {
	path := writeFixture(t, "{not valid json}")
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

// TestLoadFixture_SignalOutOfRange rejects signals past the last frame.
func TestLoadFixture_SignalOutOfRange(t *testing.T) {
	path := writeFixture(t, `{
		"config": {
			"session": {"fps": 60, "default": "a"},
			"decision": {"table": {"1": "a"}},
			"stimuli": [{"id": "a"}]
		},
		"frames": 10,
		"signals": [{"frame": 11, "payload": "1"}]
	}`)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for out-of-range signal frame")
	}
}

// TestReplay_UnknownTarget fails before the first frame when the decision
// table names a stimulus the catalog lacks.
func TestReplay_UnknownTarget(t *testing.T) {
	path := writeFixture(t, `{
		"config": {
			"session": {"fps": 60, "default": "a"},
			"decision": {"table": {"1": "b"}},
			"stimuli": [{"id": "a"}]
		},
		"frames": 10
	}`)
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if _, err := Replay(f); err == nil {
		t.Fatal("expected Replay to fail on unknown target")
	}
}

// TestCompare_Mismatch reports missing and unexpected switches.
func TestCompare_Mismatch(t *testing.T) {
	got := []Switch{{Frame: 0, To: "a", Reason: "initial"}, {Frame: 3, From: "a", To: "b", Reason: "signal"}}
	want := []FixtureSwitch{{Frame: 0, To: "a", Reason: "initial"}}
	if d := Compare(got, want); len(d) != 1 {
		t.Fatalf("diffs = %v, want 1", d)
	}
	if d := Compare(got[:1], append(want, FixtureSwitch{Frame: 4})); len(d) != 1 {
		t.Fatalf("diffs = %v, want 1", d)
	}
	if d := Compare(got[:1], want); len(d) != 0 {
		t.Fatalf("diffs = %v, want none", d)
	}
}

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// #endregion fixture-tests
