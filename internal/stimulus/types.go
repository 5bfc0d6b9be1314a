package stimulus

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/texture"
)

// #region id
// ID names one configured stimulus. Unique within a catalog.
type ID string

// #endregion id

// #region duration-policy
// DurationPolicy selects how long a stimulus stays active without a signal.
type DurationPolicy string

const (
	Indefinite DurationPolicy = "indefinite"
	Fixed      DurationPolicy = "fixed"
)

// Duration bounds how long a stimulus is shown. With a Fixed policy the
// scheduler switches to Then once Length has elapsed.
type Duration struct {
	Policy DurationPolicy `json:"policy"`
	Length time.Duration  `json:"length"`
	Then   ID             `json:"then,omitempty"`
}

// #endregion duration-policy

// #region motion
// Motion holds the animation parameters of a stimulus.
type Motion struct {
	Angle          float64       `json:"angle"`           // degrees, positive is clockwise
	Velocity       float64       `json:"velocity"`        // texture widths per second
	Frequency      float64       `json:"frequency"`
	Contrast       float64       `json:"contrast"`
	StationaryTime time.Duration `json:"stationary_time"` // static lead-in before motion
}

// #endregion motion

// #region spec
// Spec is the full construction recipe for one stimulus.
type Spec struct {
	ID       ID           `json:"id"`
	Texture  texture.Spec `json:"texture"`
	Motion   Motion       `json:"motion"`
	Duration Duration     `json:"duration"`
}

// Validate checks the spec in isolation. Cross references (Duration.Then)
// are checked by Catalog.Validate.
func (s Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("stimulus id is empty")
	}
	if err := s.Texture.Validate(); err != nil {
		return fmt.Errorf("stimulus %s: %w", s.ID, err)
	}
	if s.Motion.StationaryTime < 0 {
		return fmt.Errorf("stimulus %s: negative stationary time", s.ID)
	}
	switch s.Duration.Policy {
	case "", Indefinite:
	case Fixed:
		if s.Duration.Length <= 0 {
			return fmt.Errorf("stimulus %s: fixed duration needs a positive length", s.ID)
		}
		if s.Duration.Then == "" {
			return fmt.Errorf("stimulus %s: fixed duration needs a follow-up stimulus", s.ID)
		}
	default:
		return fmt.Errorf("stimulus %s: unknown duration policy %q", s.ID, s.Duration.Policy)
	}
	return nil
}

// Expires reports whether the stimulus ends on its own.
func (s Spec) Expires() bool {
	return s.Duration.Policy == Fixed
}

// #endregion spec

// #region render-params
// RenderParams is the per-frame state of an animated stimulus.
type RenderParams struct {
	ID       ID
	Angle    float64 // texture rotation, degrees
	Position float64 // texture offset along u, in texture widths
	Contrast float64
	Elapsed  time.Duration // time since the stimulus became active
	Moving   bool
}

// #endregion render-params
