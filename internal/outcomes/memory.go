package outcomes

import (
	"context"
	"sync"

	"github.com/example/classpick/internal/registration"
)

// Memory keeps records in process.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

var _ Recorder = (*Memory)(nil)

func (m *Memory) Record(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

// Records returns a copy of everything recorded so far, in write order.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// For returns the records written for one target.
func (m *Memory) For(t registration.Target) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.Target == t {
			out = append(out, r)
		}
	}
	return out
}
