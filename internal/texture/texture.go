package texture

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
)

// #region custom-registry
// Func fills a texture for a custom spec. u and v are in [-1, 1) and the
// returned intensity is in [-1, 1].
type Func func(spec Spec, u, v float32) float32

var (
	customMu sync.RWMutex
	custom   = map[string]Func{}
)

// RegisterCustom makes fn available to specs with Kind custom and the given name.
func RegisterCustom(name string, fn Func) {
	customMu.Lock()
	defer customMu.Unlock()
	custom[name] = fn
}

func lookupCustom(name string) (Func, bool) {
	customMu.RLock()
	defer customMu.RUnlock()
	fn, ok := custom[name]
	return fn, ok
}

// #endregion custom-registry

// #region generate
// Generate synthesizes the texture described by spec. It is a pure function
// of spec (and of the custom registry for custom kinds).
func Generate(spec Spec) (*Texture, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var fn Func
	switch spec.Kind {
	case KindGrating:
		fn = grating
	case KindRadial:
		fn = radial
	case KindBlank:
		data := make([]uint8, spec.Size*spec.Size)
		for i := range data {
			data[i] = spec.Value
		}
		return &Texture{Size: spec.Size, Data: data}, nil
	case KindCustom:
		var ok bool
		fn, ok = lookupCustom(spec.Name)
		if !ok {
			return nil, fmt.Errorf("custom texture %q not registered", spec.Name)
		}
	}

	tex := &Texture{Size: spec.Size, Data: make([]uint8, spec.Size*spec.Size)}
	step := 2 / float32(spec.Size)
	for y := 0; y < spec.Size; y++ {
		v := -1 + float32(y)*step
		for x := 0; x < spec.Size; x++ {
			u := -1 + float32(x)*step
			tex.Data[y*spec.Size+x] = toByte(fn(spec, u, v), spec.Contrast)
		}
	}
	return tex, nil
}

// #endregion generate

// #region generators
// grating varies along x only; frequency counts cycles across the texture.
func grating(spec Spec, u, _ float32) float32 {
	return math32.Sin(math32.Pi * spec.Frequency * u)
}

// radial is a concentric sine around spec.Center.
func radial(spec Spec, u, v float32) float32 {
	r := math32.Hypot(u-spec.Center[0], v-spec.Center[1])
	return math32.Sin(math32.Pi * spec.Frequency * r)
}

// toByte maps an intensity in [-1, 1] to [0, 255] around mid-grey.
func toByte(intensity, contrast float32) uint8 {
	if intensity > 1 {
		intensity = 1
	} else if intensity < -1 {
		intensity = -1
	}
	lum := 127.5 + 127.5*contrast*intensity
	return uint8(lum + 0.5)
}

// #endregion generators
