package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/stimulus"
	"github.com/danielpatrickdp/stimloop/internal/texture"
)

func spec(id stimulus.ID) stimulus.Spec {
	tex := texture.DefaultSpec()
	tex.Size = 8
	return stimulus.Spec{ID: id, Texture: tex}
}

func TestHeadlessAttachDetach(t *testing.T) {
	h := NewHeadless()
	a, err := h.Build(spec("A"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, _ := h.Build(spec("B"))

	h.Attach(a)
	h.Detach(a)
	h.Attach(b)

	attached := h.Attached()
	if len(attached) != 1 || attached[0].Spec.ID != "B" {
		t.Fatalf("expected only B attached, got %v", attached)
	}
	hist := h.History()
	if len(hist) != 2 || hist[0] != "A" || hist[1] != "B" {
		t.Fatalf("unexpected history: %v", hist)
	}
}

func TestHeadlessTextureCache(t *testing.T) {
	h := NewHeadless()
	a, _ := h.Build(spec("A"))
	b, _ := h.Build(spec("B"))
	if a.(*Card).Texture != b.(*Card).Texture {
		t.Error("identical texture specs should share a texture")
	}
}

func TestHeadlessBuildError(t *testing.T) {
	h := NewHeadless()
	bad := spec("bad")
	bad.Texture.Size = 0
	if _, err := h.Build(bad); err == nil {
		t.Fatal("expected error for invalid texture")
	}
}

func TestCardApply(t *testing.T) {
	h := NewHeadless()
	r, _ := h.Build(spec("A"))
	r.Apply(stimulus.RenderParams{ID: "A", Position: -0.5})
	card := r.(*Card)
	if card.Params().Position != -0.5 || card.Frames() != 1 {
		t.Errorf("unexpected card state: %+v frames=%d", card.Params(), card.Frames())
	}
}

func TestLoopRunsUntilCancelled(t *testing.T) {
	l, err := NewLoop(200)
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	var dts []time.Duration
	l.OnFrame(func(_ time.Time, dt time.Duration) error {
		dts = append(dts, dt)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dts) < 2 {
		t.Fatalf("expected several frames, got %d", len(dts))
	}
	if dts[0] != 0 {
		t.Errorf("first frame dt should be zero, got %v", dts[0])
	}
	if l.Frames() != uint64(len(dts)) {
		t.Errorf("frame count mismatch: %d vs %d", l.Frames(), len(dts))
	}
}

func TestLoopStopsOnError(t *testing.T) {
	l, _ := NewLoop(100)
	boom := errors.New("boom")
	l.OnFrame(func(time.Time, time.Duration) error { return boom })

	err := l.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestNewLoopInvalidFPS(t *testing.T) {
	if _, err := NewLoop(0); err == nil {
		t.Fatal("expected error for fps 0")
	}
}
