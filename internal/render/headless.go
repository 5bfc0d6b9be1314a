package render

import (
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/danielpatrickdp/stimloop/internal/stimulus"
	"github.com/danielpatrickdp/stimloop/internal/texture"
)

// #region card
// Card is the headless renderable: a textured quad with its latest params.
type Card struct {
	Spec     stimulus.Spec
	Texture  *texture.Texture
	Checksum uint32

	mu     sync.Mutex
	params stimulus.RenderParams
	frames int
}

// Apply records params for the next frame.
func (c *Card) Apply(params stimulus.RenderParams) {
	c.mu.Lock()
	c.params = params
	c.frames++
	c.mu.Unlock()
}

// Params returns the last applied params.
func (c *Card) Params() stimulus.RenderParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Frames counts Apply calls.
func (c *Card) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// #endregion card

// #region headless
// Headless renders nothing. It synthesizes textures, tracks which cards are
// attached and keeps the attach history, for tests, replays and dry runs.
type Headless struct {
	mu       sync.Mutex
	cache    map[texture.Spec]*texture.Texture
	attached []*Card
	history  []stimulus.ID
}

// NewHeadless returns an empty headless renderer.
func NewHeadless() *Headless {
	return &Headless{cache: make(map[texture.Spec]*texture.Texture)}
}

// Build generates (or reuses) the texture for spec.
func (h *Headless) Build(spec stimulus.Spec) (Renderable, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tex, ok := h.cache[spec.Texture]
	if !ok {
		var err error
		tex, err = texture.Generate(spec.Texture)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", spec.ID, err)
		}
		h.cache[spec.Texture] = tex
	}
	return &Card{Spec: spec, Texture: tex, Checksum: crc32.ChecksumIEEE(tex.Data)}, nil
}

// Attach shows r.
func (h *Headless) Attach(r Renderable) {
	card, ok := r.(*Card)
	if !ok {
		return
	}
	h.mu.Lock()
	h.attached = append(h.attached, card)
	h.history = append(h.history, card.Spec.ID)
	h.mu.Unlock()
}

// Detach hides r.
func (h *Headless) Detach(r Renderable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.attached {
		if Renderable(c) == r {
			h.attached = append(h.attached[:i], h.attached[i+1:]...)
			return
		}
	}
}

// Attached returns the cards currently shown.
func (h *Headless) Attached() []*Card {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Card, len(h.attached))
	copy(out, h.attached)
	return out
}

// History returns the ids in attach order.
func (h *Headless) History() []stimulus.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]stimulus.ID, len(h.history))
	copy(out, h.history)
	return out
}

// #endregion headless
