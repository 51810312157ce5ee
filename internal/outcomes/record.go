// Package outcomes records the result of every registration attempt.
package outcomes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/example/classpick/internal/registration"
)

// Status of a recorded attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Record is one attempt outcome. Records are never modified once written.
type Record struct {
	RunID  string
	Target registration.Target
	At     time.Time
	Status Status
	Kind   registration.Kind

	Capacity   int
	Registered int
	HasCounts  bool

	Message string
	Detail  string
}

// Recorder appends records to a destination. Implementations must accept
// concurrent calls from several target loops.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// FromOutcome converts an attempt outcome into a record stamped with at.
func FromOutcome(runID string, o registration.Outcome, at time.Time) Record {
	r := Record{
		RunID:      runID,
		Target:     o.Target,
		At:         at,
		Status:     StatusFailure,
		Kind:       o.Kind,
		Capacity:   o.Capacity,
		Registered: o.Registered,
		HasCounts:  o.HasCounts,
		Message:    o.Message,
		Detail:     o.Detail,
	}
	if o.Done() {
		r.Status = StatusSuccess
	}
	return r
}

// Timestamp renders t as Y.M.D H:m:s without zero padding.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d %d:%d:%d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Line renders r in the success or failure log format, without a newline.
func Line(r Record) string {
	if r.Status == StatusSuccess {
		return Timestamp(r.At) + " - Registered for class with id " + r.Target.String()
	}
	return Timestamp(r.At) + " - " + failureMessage(r)
}

func failureMessage(r Record) string {
	capacity, registered := "n/a", "n/a"
	if r.HasCounts {
		capacity = strconv.Itoa(r.Capacity)
		registered = strconv.Itoa(r.Registered)
	}
	msg := "Capacity: " + capacity + " Registered: " + registered + " " + r.Message
	if r.Detail != "" {
		msg += " " + r.Detail
	}
	return msg
}
