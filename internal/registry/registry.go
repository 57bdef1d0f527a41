// Package registry tracks the in-process timer for each pending reminder.
// The table is ephemeral: it is rebuilt from the store on startup and a
// timer handle is never persisted.
package registry

import (
	"sync"
	"time"
)

type JobRegistry struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func New() *JobRegistry {
	return &JobRegistry{timers: make(map[int64]*time.Timer)}
}

// Register stores the timer for a reminder id. At most one timer exists per
// id; registering over an existing entry stops the old timer first.
func (r *JobRegistry) Register(id int64, t *time.Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.timers[id]; ok {
		old.Stop()
	}
	r.timers[id] = t
}

// Cancel stops the timer for id, if any, and removes the entry. It reports
// whether an entry existed. Stopping is best-effort: a timer whose callback
// is already running cannot be recalled here.
func (r *JobRegistry) Cancel(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, id)
	return true
}

// Remove drops the entry without stopping the timer. Used after a timer has
// already fired.
func (r *JobRegistry) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.timers, id)
}

func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.timers)
}
