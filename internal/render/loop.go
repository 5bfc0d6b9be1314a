package render

import (
	"context"
	"fmt"
	"time"
)

// FrameFunc is invoked once per frame with the frame time and the time
// since the previous frame. Returning an error stops the loop.
type FrameFunc func(now time.Time, dt time.Duration) error

// #region loop
// Loop drives frame callbacks at a fixed rate, standing in for a renderer's
// frame clock.
type Loop struct {
	interval  time.Duration
	callbacks []FrameFunc
	frames    uint64
}

// NewLoop creates a loop running at fps frames per second.
func NewLoop(fps int) (*Loop, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	return &Loop{interval: time.Second / time.Duration(fps)}, nil
}

// OnFrame registers fn. Callbacks run in registration order.
func (l *Loop) OnFrame(fn FrameFunc) {
	l.callbacks = append(l.callbacks, fn)
}

// Frames returns the number of frames run so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Run ticks until ctx is cancelled or a callback fails. The first frame has
// dt zero.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	if err := l.frame(last, 0); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := l.frame(now, dt); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) frame(now time.Time, dt time.Duration) error {
	l.frames++
	for _, fn := range l.callbacks {
		if err := fn(now, dt); err != nil {
			return fmt.Errorf("frame %d: %w", l.frames, err)
		}
	}
	return nil
}

// #endregion loop
