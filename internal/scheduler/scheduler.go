package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/example/classpick/internal/logger"
	"github.com/example/classpick/internal/outcomes"
	"github.com/example/classpick/internal/registration"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultInterval is the pause between attempts for one target.
	DefaultInterval = 500 * time.Millisecond
	// DefaultAttemptTimeout bounds one check-then-register cycle.
	DefaultAttemptTimeout = 10 * time.Second

	recordTimeout = 5 * time.Second
)

// State of one target's loop.
type State string

const (
	StatePolling State = "polling"
	StateDone    State = "done"
	StateStopped State = "stopped"
)

// Scheduler polls every target on its own loop until the portal accepts the
// registration. All loops share one Session.
type Scheduler struct {
	Session  registration.Session
	Recorder outcomes.Recorder

	Interval       time.Duration
	AttemptTimeout time.Duration
	RunID          string

	Now func() time.Time
	Log *logger.Logger

	mu    sync.Mutex
	order []registration.Target
	tasks map[registration.Target]*task
}

type task struct {
	target registration.Target
	cancel context.CancelFunc

	state         State
	inFlight      bool
	attempts      int
	last          *registration.Outcome
	lastAttemptAt time.Time
}

// Run starts one loop per distinct target and blocks until every loop has
// registered its target or ctx is cancelled. It returns ctx's error when it
// was cancelled before every target registered.
func (s *Scheduler) Run(ctx context.Context, targets []registration.Target) error {
	targets = registration.Unique(targets)
	if len(targets) == 0 {
		return registration.ErrNoTargets
	}

	s.mu.Lock()
	s.order = targets
	s.tasks = make(map[registration.Target]*task, len(targets))
	ctxs := make(map[registration.Target]context.Context, len(targets))
	for _, t := range targets {
		tctx, cancel := context.WithCancel(ctx)
		s.tasks[t] = &task{target: t, cancel: cancel, state: StatePolling}
		ctxs[t] = tctx
	}
	s.mu.Unlock()

	s.log().Info().Int("targets", len(targets)).Dur("interval", s.interval()).Msg("polling started")

	var g errgroup.Group
	for _, t := range targets {
		tk := s.tasks[t]
		tctx := ctxs[t]
		g.Go(func() error {
			defer tk.cancel()
			s.loop(tctx, tk)
			return nil
		})
	}
	_ = g.Wait()

	if s.allDone() {
		s.log().Info().Msg("all classes registered")
		return nil
	}
	if err := ctx.Err(); err != nil {
		s.log().Info().Err(err).Msg("polling stopped")
		return err
	}
	return nil
}

// Cancel stops the loop for t without touching other loops. It reports
// false when t is unknown or its loop already ended.
func (s *Scheduler) Cancel(t registration.Target) bool {
	s.mu.Lock()
	tk, ok := s.tasks[t]
	if !ok || tk.state != StatePolling {
		s.mu.Unlock()
		return false
	}
	cancel := tk.cancel
	s.mu.Unlock()

	cancel()
	return true
}

func (s *Scheduler) loop(ctx context.Context, tk *task) {
	log := s.log().With().Str("target", tk.target.String()).Logger()
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			s.setState(tk, StateStopped)
			log.Debug().Msg("loop stopped")
			return
		}
		if s.attempt(ctx, tk) {
			log.Info().Msg("registered")
			return
		}
		// A tick that fires during a slow attempt is buffered at most once,
		// so attempts for one target never overlap.
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

// attempt runs one cycle and records it. The cycle is detached from ctx so
// an attempt that has started always finishes and is logged. Recording gets
// its own deadline: an attempt that ran out of time is still recorded.
func (s *Scheduler) attempt(ctx context.Context, tk *task) bool {
	detached := context.WithoutCancel(ctx)
	actx, cancel := context.WithTimeout(detached, s.attemptTimeout())
	defer cancel()

	s.mu.Lock()
	tk.inFlight = true
	s.mu.Unlock()

	out := registration.Attempt(actx, s.Session, tk.target)
	at := s.now()

	rec := outcomes.FromOutcome(s.RunID, out, at)
	rctx, rcancel := context.WithTimeout(detached, recordTimeout)
	err := s.recorder().Record(rctx, rec)
	rcancel()
	if err != nil {
		s.log().Warn().Err(err).Str("target", tk.target.String()).Msg("record outcome")
	}
	if out.Err != nil {
		s.log().Debug().Err(out.Err).Str("target", tk.target.String()).Str("kind", out.Kind.String()).Msg("attempt failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tk.inFlight = false
	tk.attempts++
	tk.last = &out
	tk.lastAttemptAt = at
	if out.Done() {
		tk.state = StateDone
	}
	return out.Done()
}

func (s *Scheduler) setState(tk *task, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tk.state == StatePolling {
		tk.state = st
	}
}

func (s *Scheduler) allDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.tasks {
		if tk.state != StateDone {
			return false
		}
	}
	return true
}

func (s *Scheduler) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

func (s *Scheduler) attemptTimeout() time.Duration {
	if s.AttemptTimeout <= 0 {
		return DefaultAttemptTimeout
	}
	return s.AttemptTimeout
}

func (s *Scheduler) recorder() outcomes.Recorder {
	if s.Recorder == nil {
		return outcomes.Discard
	}
	return s.Recorder
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) log() *logger.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logger.Named("scheduler")
}
