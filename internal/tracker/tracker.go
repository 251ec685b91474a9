// Package tracker holds in-memory state for generation jobs. Entries live for
// the process lifetime; a restart loses in-flight and unfetched results,
// which is a documented limitation of the service.
package tracker

import (
	"sync"

	"github.com/google/uuid"

	"coinforge/internal/domain"
)

// Status enumerates job lifecycle states.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Snapshot is a read-only view of one job.
type Snapshot struct {
	Status   Status
	Percent  int
	Artifact string
}

type entry struct {
	status   Status
	percent  int
	artifact string
}

func (e *entry) terminal() bool {
	return e.status == StatusDone || e.status == StatusFailed
}

// Tracker is a concurrency-safe job registry.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

func New() *Tracker {
	return &Tracker{jobs: make(map[string]*entry)}
}

// Create allocates a fresh job id and installs a pending entry. The id is a
// random UUID and doubles as the bearer token for retrieving the result.
func (t *Tracker) Create() string {
	id := uuid.NewString()
	t.mu.Lock()
	t.jobs[id] = &entry{status: StatusPending}
	t.mu.Unlock()
	return id
}

// SetProgress advances the completion percentage of a running job. Percent
// never moves backwards and terminal jobs are left untouched.
func (t *Tracker) SetProgress(id string, percent int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.terminal() {
		return domain.ErrJobTerminal
	}
	e.status = StatusRunning
	if percent > 100 {
		percent = 100
	}
	if percent > e.percent {
		e.percent = percent
	}
	return nil
}

// Complete marks a job done and stores its artifact. The artifact is set at
// most once; completing a terminal job is an error.
func (t *Tracker) Complete(id, artifact string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.terminal() {
		return domain.ErrJobTerminal
	}
	e.status = StatusDone
	e.percent = 100
	e.artifact = artifact
	return nil
}

// Fail marks a job failed. The artifact stays empty.
func (t *Tracker) Fail(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.terminal() {
		return domain.ErrJobTerminal
	}
	e.status = StatusFailed
	e.percent = 100
	return nil
}

// Get returns a copy of the job state.
func (t *Tracker) Get(id string) (Snapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.jobs[id]
	if !ok {
		return Snapshot{}, domain.ErrNotFound
	}
	return Snapshot{Status: e.status, Percent: e.percent, Artifact: e.artifact}, nil
}

// Len reports how many jobs the tracker currently holds.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}
