package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/stimloop/internal/config"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string              `json:"description"`
	Config      config.File         `json:"config"`
	Frames      int                 `json:"frames"`
	Signals     []FixtureSignal     `json:"signals"`
	Expected    []FixtureSwitch     `json:"expected_switches"`
	Stats       *FixtureSignalStats `json:"expected_signal_stats,omitempty"`
}

// FixtureSignal is a raw payload delivered just before the given frame is
// ticked. Several payloads on one frame overwrite each other.
type FixtureSignal struct {
	Frame   int    `json:"frame"`
	Payload string `json:"payload"`
}

// FixtureSwitch is one expected switch. Frame 0 is the initial event.
type FixtureSwitch struct {
	Frame  int    `json:"frame"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// FixtureSignalStats are the expected receiver counters after the run.
type FixtureSignalStats struct {
	Received     uint64 `json:"received"`
	Dropped      uint64 `json:"dropped"`
	DecodeErrors uint64 `json:"decode_errors"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file. Config fields the file
// leaves out keep their defaults.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f := Fixture{Config: config.Defaults()}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Config.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	if f.Frames <= 0 {
		return nil, fmt.Errorf("fixture %s: frames must be positive", path)
	}
	for i, s := range f.Signals {
		if s.Frame < 1 || s.Frame > f.Frames {
			return nil, fmt.Errorf("fixture %s: signals[%d] frame %d outside 1..%d", path, i, s.Frame, f.Frames)
		}
	}
	return &f, nil
}

// #endregion fixture-loader
