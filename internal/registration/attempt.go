package registration

import (
	"context"
	"fmt"
)

// Kind classifies one attempt.
type Kind int

const (
	// Registered means the class had room and the portal accepted the registration.
	Registered Kind = iota
	// Full means the class had no room; no registration call was made.
	Full
	// RegistrationFailed means the class had room but the portal refused or
	// the call errored, e.g. someone else took the last seat.
	RegistrationFailed
	// CheckFailed means the availability check itself failed.
	CheckFailed
)

func (k Kind) String() string {
	switch k {
	case Registered:
		return "registered"
	case Full:
		return "full"
	case RegistrationFailed:
		return "registration_failed"
	case CheckFailed:
		return "check_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is what one check-then-maybe-register cycle produced.
type Outcome struct {
	Kind   Kind
	Target Target

	// Capacity and Registered are copied verbatim from the availability
	// snapshot. HasCounts is false when no snapshot was obtained.
	Capacity   int
	Registered int
	HasCounts  bool

	Message string
	Detail  string
	Err     error
}

// Done reports whether the target needs no further attempts.
func (o Outcome) Done() bool { return o.Kind == Registered }

// Attempt checks availability for t and registers only when a seat is free.
// The registration call's own answer is authoritative: a snapshot can go
// stale between the check and the registration.
func Attempt(ctx context.Context, s Session, t Target) (out Outcome) {
	out.Target = t
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Kind:    CheckFailed,
				Target:  t,
				Message: fmt.Sprintf("attempt for class %s panicked", t),
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	avail, err := s.CheckAvailability(ctx, t)
	if err != nil {
		out.Kind = CheckFailed
		out.Message = fmt.Sprintf("Could not check class with id %s", t)
		out.Detail = err.Error()
		out.Err = err
		return out
	}
	if !avail.Success {
		out.Kind = CheckFailed
		if avail.HasCounts {
			out.Capacity, out.Registered, out.HasCounts = avail.Capacity, avail.Registered, true
		}
		out.Message = avail.Message
		if out.Message == "" {
			out.Message = fmt.Sprintf("Could not check class with id %s", t)
		}
		out.Detail = avail.Detail
		return out
	}

	out.Capacity, out.Registered, out.HasCounts = avail.Capacity, avail.Registered, true
	if !avail.HasCapacity() {
		out.Kind = Full
		out.Message = fmt.Sprintf("Class with id %s is full", t)
		out.Detail = avail.Detail
		return out
	}

	res, err := s.Register(ctx, t)
	if err != nil {
		out.Kind = RegistrationFailed
		out.Message = fmt.Sprintf("Could not register to class: %s", t)
		out.Detail = err.Error()
		out.Err = err
		return out
	}
	if !res.Success {
		out.Kind = RegistrationFailed
		out.Message = res.Message
		if out.Message == "" {
			out.Message = fmt.Sprintf("Could not register to class: %s", t)
		}
		out.Detail = res.Detail
		return out
	}

	out.Kind = Registered
	out.Message = res.Message
	out.Detail = res.Detail
	return out
}
