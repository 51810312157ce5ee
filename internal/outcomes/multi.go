package outcomes

import (
	"context"
	"errors"
)

// Multi fans a record out to every sink. Each sink sees the record even when
// an earlier one failed.
type Multi []Recorder

var _ Recorder = Multi(nil)

func (m Multi) Record(ctx context.Context, r Record) error {
	var errs []error
	for _, rec := range m {
		if rec == nil {
			continue
		}
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Record(context.Context, Record) error { return nil }

// Discard drops every record.
var Discard Recorder = discard{}
