package texture

import "fmt"

// #region kind
// Kind tags which generator produces a texture.
type Kind string

const (
	KindGrating Kind = "grating"
	KindRadial  Kind = "radial"
	KindBlank   Kind = "blank"
	KindCustom  Kind = "custom"
)

// #endregion kind

// #region spec
// Spec describes a texture. Fields not used by Kind are ignored.
type Spec struct {
	Kind      Kind       `json:"kind"`
	Size      int        `json:"size"`           // pixels per side
	Frequency float32    `json:"frequency"`      // cycles per texture
	Contrast  float32    `json:"contrast"`       // 0-1
	Center    [2]float32 `json:"center"`         // radial center in [-1, 1]
	Value     uint8      `json:"value"`          // blank luminance
	Name      string     `json:"name,omitempty"`
}

// DefaultSpec returns a 512px full-contrast grating at 32 cycles.
func DefaultSpec() Spec {
	return Spec{
		Kind:      KindGrating,
		Size:      512,
		Frequency: 32,
		Contrast:  1,
	}
}

// Validate checks the fields required by the spec's kind.
func (s Spec) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("texture size must be positive, got %d", s.Size)
	}
	if s.Contrast < 0 || s.Contrast > 1 {
		return fmt.Errorf("texture contrast %.3f outside [0, 1]", s.Contrast)
	}
	switch s.Kind {
	case KindGrating, KindRadial:
		if s.Frequency < 0 {
			return fmt.Errorf("%s frequency must be non-negative, got %.3f", s.Kind, s.Frequency)
		}
	case KindBlank:
	case KindCustom:
		if s.Name == "" {
			return fmt.Errorf("custom texture requires a name")
		}
	default:
		return fmt.Errorf("unknown texture kind %q", s.Kind)
	}
	return nil
}

// #endregion spec

// #region texture
// Texture is a square luminance array, row-major.
type Texture struct {
	Size int
	Data []uint8
}

// At returns the luminance at column x, row y.
func (t *Texture) At(x, y int) uint8 {
	return t.Data[y*t.Size+x]
}

// #endregion texture
