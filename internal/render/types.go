package render

import "github.com/danielpatrickdp/stimloop/internal/stimulus"

// #region renderer
// Renderable is the handle a renderer uses to draw one stimulus.
type Renderable interface {
	Apply(params stimulus.RenderParams)
}

// Renderer is the display boundary. Attach and Detach are called from the
// frame callback; the swap between them completes before the next frame.
type Renderer interface {
	Build(spec stimulus.Spec) (Renderable, error)
	Attach(r Renderable)
	Detach(r Renderable)
}

// #endregion renderer
