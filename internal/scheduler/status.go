package scheduler

import (
	"time"

	"github.com/example/classpick/internal/registration"
)

// Status is a point-in-time view of one target's loop.
type Status struct {
	Target        registration.Target `json:"target"`
	State         State               `json:"state"`
	InFlight      bool                `json:"in_flight"`
	Attempts      int                 `json:"attempts"`
	LastOutcome   string              `json:"last_outcome,omitempty"`
	LastMessage   string              `json:"last_message,omitempty"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// Snapshot lists every target in the order Run received them.
func (s *Scheduler) Snapshot() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.tasks[t].status())
	}
	return out
}

// Lookup returns the status of one target.
func (s *Scheduler) Lookup(t registration.Target) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tk, ok := s.tasks[t]
	if !ok {
		return Status{}, false
	}
	return tk.status(), true
}

func (tk *task) status() Status {
	st := Status{
		Target:   tk.target,
		State:    tk.state,
		InFlight: tk.inFlight,
		Attempts: tk.attempts,
	}
	if tk.last != nil {
		st.LastOutcome = tk.last.Kind.String()
		st.LastMessage = tk.last.Message
		at := tk.lastAttemptAt
		st.LastAttemptAt = &at
	}
	return st
}
