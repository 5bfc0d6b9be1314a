package main

import (
	"fmt"
	"io"
	"time"

	"github.com/muesli/termenv"

	"github.com/danielpatrickdp/stimloop/internal/scheduler"
)

// overlay prints a one-line frame rate and signal summary at most once per
// interval. Slow frames are highlighted.
type overlay struct {
	out      *termenv.Output
	interval time.Duration
	last     time.Time
	slow     int
}

func newOverlay(w io.Writer, interval time.Duration) *overlay {
	return &overlay{out: termenv.NewOutput(w), interval: interval}
}

func (o *overlay) Update(ts scheduler.TickStats) {
	if ts.DT > 0 && ts.FPS > 0 {
		// a frame took more than 1.5x the smoothed frame time
		if float64(ts.DT) > 1.5*float64(time.Second)/ts.FPS {
			o.slow++
		}
	}
	if ts.Now.Sub(o.last) < o.interval {
		return
	}
	o.last = ts.Now

	fps := o.out.String(fmt.Sprintf("%6.1f fps", ts.FPS)).Foreground(o.out.Color("2"))
	if o.slow > 0 {
		fps = fps.Foreground(o.out.Color("3"))
	}
	line := fmt.Sprintf("%s  frame %d  tick %s  slow %d",
		fps.Bold(), ts.Frame, ts.TickCost.Round(time.Microsecond), o.slow)
	if ts.Signals != nil {
		line += fmt.Sprintf("  rx %d  dropped %d  bad %d",
			ts.Signals.Received, ts.Signals.Dropped, ts.Signals.DecodeErrors)
	}
	o.out.ClearLine()
	fmt.Fprint(o.out, "\r"+line)
	o.slow = 0
}
