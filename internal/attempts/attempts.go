// Package attempts mirrors outcome records into Postgres. Rows are only ever
// inserted; the polling engine never reads them back.
package attempts

import (
	"context"
	"time"

	"github.com/example/classpick/internal/db"
	"github.com/example/classpick/internal/outcomes"
	"github.com/example/classpick/internal/registration"
)

// Querier is the subset of *db.DB the repo uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
}

type Attempt struct {
	ID          int64
	RunID       string
	ClassID     string
	Status      string
	Kind        string
	Capacity    *int
	Registered  *int
	Message     string
	Detail      string
	AttemptedAt time.Time
}

type Repo struct{ db Querier }

var _ outcomes.Recorder = (*Repo)(nil)

func NewRepo(d Querier) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, rec outcomes.Record) error {
	var capacity, registered *int
	if rec.HasCounts {
		c, n := rec.Capacity, rec.Registered
		capacity, registered = &c, &n
	}
	err := r.db.Exec(ctx, `
INSERT INTO attempts(run_id, class_id, status, kind, capacity, registered, message, detail, attempted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.RunID, rec.Target.String(), string(rec.Status), rec.Kind.String(), capacity, registered, rec.Message, rec.Detail, rec.At.UTC(),
	)
	return db.Wrap(err)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	RunID   string
	ClassID registration.Target
	Limit   int
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Attempt, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id,run_id,class_id,status,kind,capacity,registered,message,detail,attempted_at
FROM attempts
WHERE ($1 = '' OR run_id = $1)
  AND ($2 = '' OR class_id = $2)
ORDER BY attempted_at DESC, id DESC
LIMIT $3`, f.RunID, f.ClassID.String(), limit)
	if err != nil {
		return nil, db.Wrap(err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.RunID, &a.ClassID, &a.Status, &a.Kind, &a.Capacity, &a.Registered, &a.Message, &a.Detail, &a.AttemptedAt); err != nil {
			return nil, db.Wrap(err)
		}
		out = append(out, a)
	}
	return out, db.Wrap(rows.Err())
}
