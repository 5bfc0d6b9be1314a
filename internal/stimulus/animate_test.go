package stimulus

import (
	"math"
	"testing"
	"time"
)

func TestAnimateDrift(t *testing.T) {
	spec := gratingSpec("A")
	spec.Motion.Velocity = 0.5
	spec.Motion.Angle = 30

	p := Animate(spec, 2*time.Second)
	if !p.Moving {
		t.Fatal("expected moving")
	}
	if math.Abs(p.Position-(-1.0)) > 1e-9 {
		t.Errorf("expected position -1.0, got %f", p.Position)
	}
	if p.Angle != 30 {
		t.Errorf("expected angle 30, got %f", p.Angle)
	}
}

func TestAnimateZeroElapsed(t *testing.T) {
	p := Animate(gratingSpec("A"), 0)
	if p.Moving || p.Position != 0 {
		t.Errorf("expected no motion at t=0, got %+v", p)
	}
}

func TestAnimateStationaryLeadIn(t *testing.T) {
	spec := gratingSpec("A")
	spec.Motion.Velocity = 1
	spec.Motion.StationaryTime = time.Second

	if p := Animate(spec, 500*time.Millisecond); p.Moving || p.Position != 0 {
		t.Errorf("expected stationary during lead-in, got %+v", p)
	}
	p := Animate(spec, 1500*time.Millisecond)
	if math.Abs(p.Position-(-0.5)) > 1e-9 {
		t.Errorf("expected position -0.5 after lead-in, got %f", p.Position)
	}
}

func TestAnimateStatic(t *testing.T) {
	spec := gratingSpec("A")
	spec.Motion.Velocity = 0
	if p := Animate(spec, time.Minute); p.Moving {
		t.Error("zero velocity stimulus must not move")
	}
}
