package scheduler

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/render"
	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// ErrNotStarted is returned by Tick before Start.
var ErrNotStarted = errors.New("scheduler not started")

// fpsSmoothing weights the newest frame in the FPS estimate.
const fpsSmoothing = 0.1

// #region scheduler
// Scheduler is the per-frame callback. It animates the active stimulus,
// feeds polled signals to the machine and swaps renderables on switches.
// All methods run on the frame goroutine.
type Scheduler struct {
	catalog  *stimulus.Catalog
	machine  *controller.Machine
	poller   Poller
	renderer render.Renderer
	logger   EventLogger

	statsHook func(TickStats)
	clock     func() time.Time

	started  bool
	spec     stimulus.Spec
	active   render.Renderable
	elapsed  time.Duration
	frame    uint64
	fps      float64
	switches int

	snapshot atomic.Pointer[Snapshot]
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithStatsHook installs fn, called at the end of every tick.
func WithStatsHook(fn func(TickStats)) Option {
	return func(s *Scheduler) { s.statsHook = fn }
}

// WithClock overrides the clock used to measure tick cost.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.clock = now }
}

// New wires the scheduler. logger may be nil.
func New(catalog *stimulus.Catalog, machine *controller.Machine, poller Poller,
	renderer render.Renderer, logger EventLogger, opts ...Option) *Scheduler {
	s := &Scheduler{
		catalog:  catalog,
		machine:  machine,
		poller:   poller,
		renderer: renderer,
		logger:   logger,
		clock:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// #endregion scheduler

// #region start
// Start validates the configuration and shows the default stimulus. Any
// catalog inconsistency fails here, before the first frame.
func (s *Scheduler) Start(now time.Time) error {
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	if err := s.catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := s.machine.Validate(s.catalog); err != nil {
		return err
	}
	if err := s.prebuild(); err != nil {
		return err
	}
	s.catalog.Freeze()

	initial := s.machine.State().Active
	if err := s.show(initial); err != nil {
		return err
	}
	s.started = true
	s.log(controller.SwitchEvent{To: initial, Time: now, Reason: controller.ReasonInitial})
	s.publish()
	return nil
}

// prebuild builds every stimulus a session can reach: the default, each
// decision target and the expiry chain behind them. A stimulus that cannot
// be built would otherwise only fail mid-session.
func (s *Scheduler) prebuild() error {
	queue := s.machine.Reachable()
	seen := make(map[stimulus.ID]bool, len(queue))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		spec, err := s.catalog.Get(id)
		if err != nil {
			return err
		}
		if _, err := s.renderer.Build(spec); err != nil {
			return fmt.Errorf("stimulus %s: %w", id, err)
		}
		if spec.Expires() {
			queue = append(queue, spec.Duration.Then)
		}
	}
	return nil
}

// #endregion start

// #region tick
// Tick runs one frame. With no new signal only the animation advances, and
// dt zero leaves the animation where it was.
func (s *Scheduler) Tick(now time.Time, dt time.Duration) error {
	if !s.started {
		return ErrNotStarted
	}
	begin := s.clock()
	s.frame++
	if dt < 0 {
		dt = 0
	}

	// 1. animate
	s.elapsed += dt
	s.active.Apply(stimulus.Animate(s.spec, s.elapsed))

	// 2. poll and decide
	switched := false
	prev := s.machine.State()
	if sig, ok := s.poller.Poll(); ok {
		if ev, ok := s.machine.OnSignal(sig, now); ok {
			if err := s.apply(ev, prev); err != nil {
				return err
			}
			switched = true
		}
	}

	// 3. fixed-duration expiry
	if !switched && s.spec.Expires() && s.elapsed >= s.spec.Duration.Length {
		if ev, ok := s.machine.Force(s.spec.Duration.Then, now, controller.ReasonExpired); ok {
			if err := s.apply(ev, prev); err != nil {
				return err
			}
			switched = true
		}
	}

	s.report(now, dt, begin, switched)
	return nil
}

// #endregion tick

// #region swap
// apply shows the target of ev. If it cannot be shown the machine is put
// back to prev so it keeps agreeing with what is on screen.
func (s *Scheduler) apply(ev controller.SwitchEvent, prev controller.State) error {
	if err := s.show(ev.To); err != nil {
		s.machine.Restore(prev)
		return err
	}
	s.switches++
	s.log(ev)
	return nil
}

// show builds the renderable for id and swaps it in within the same frame.
func (s *Scheduler) show(id stimulus.ID) error {
	spec, err := s.catalog.Get(id)
	if err != nil {
		return err
	}
	next, err := s.renderer.Build(spec)
	if err != nil {
		return fmt.Errorf("build renderable: %w", err)
	}
	next.Apply(stimulus.Animate(spec, 0))
	if s.active != nil {
		s.renderer.Detach(s.active)
	}
	s.renderer.Attach(next)
	s.active = next
	s.spec = spec
	s.elapsed = 0
	return nil
}

func (s *Scheduler) log(ev controller.SwitchEvent) {
	if s.logger != nil {
		s.logger.Log(ev)
	}
}

// #endregion swap

// #region stats
func (s *Scheduler) report(now time.Time, dt time.Duration, begin time.Time, switched bool) {
	if dt > 0 {
		inst := float64(time.Second) / float64(dt)
		if s.fps == 0 {
			s.fps = inst
		} else {
			s.fps += fpsSmoothing * (inst - s.fps)
		}
	}
	s.publish()
	if s.statsHook == nil {
		return
	}
	st := TickStats{
		Frame:    s.frame,
		Now:      now,
		DT:       dt,
		FPS:      s.fps,
		TickCost: s.clock().Sub(begin),
		Switched: switched,
	}
	if src, ok := s.poller.(interface{ Stats() signal.Stats }); ok {
		sigStats := src.Stats()
		st.Signals = &sigStats
	}
	s.statsHook(st)
}

func (s *Scheduler) publish() {
	st := s.machine.State()
	s.snapshot.Store(&Snapshot{
		Active:     s.spec.ID,
		Pending:    st.Pending,
		Streak:     st.Streak,
		LastSwitch: st.LastSwitch,
		Elapsed:    s.elapsed,
		Frames:     s.frame,
		Switches:   s.switches,
		FPS:        s.fps,
	})
}

// Snapshot returns the state published after the latest tick. Unlike the
// other accessors it is safe to call from any goroutine.
func (s *Scheduler) Snapshot() Snapshot {
	if p := s.snapshot.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}

// Active returns the id currently shown.
func (s *Scheduler) Active() stimulus.ID {
	return s.spec.ID
}

// Elapsed returns how long the active stimulus has been shown.
func (s *Scheduler) Elapsed() time.Duration {
	return s.elapsed
}

// Switches counts switches since Start, excluding the initial stimulus.
func (s *Scheduler) Switches() int {
	return s.switches
}

// Frames counts ticks since Start.
func (s *Scheduler) Frames() uint64 {
	return s.frame
}

// #endregion stats
