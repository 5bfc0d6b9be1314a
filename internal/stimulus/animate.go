package stimulus

import "time"

// Animate computes the render parameters of spec after it has been active
// for elapsed. Motion starts once the stationary lead-in has passed; the
// texture drifts at -Velocity texture widths per second.
func Animate(spec Spec, elapsed time.Duration) RenderParams {
	params := RenderParams{
		ID:       spec.ID,
		Angle:    spec.Motion.Angle,
		Contrast: spec.Motion.Contrast,
		Elapsed:  elapsed,
	}
	if spec.Motion.Velocity == 0 {
		return params
	}
	moving := elapsed - spec.Motion.StationaryTime
	if moving <= 0 {
		return params
	}
	params.Moving = true
	params.Position = -moving.Seconds() * spec.Motion.Velocity
	return params
}
