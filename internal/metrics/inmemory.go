package metrics

import "sync/atomic"

// InMemoryRecorder implements Recorder with atomic counters.
// Useful for tests and local inspection.
type InMemoryRecorder struct {
	usersCreated    atomic.Int64
	usersUpdated    atomic.Int64
	usersDeleted    atomic.Int64
	eventsPublished atomic.Int64
	eventsDropped   atomic.Int64
}

// NewInMemory returns a Recorder backed by in-process counters.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	UsersCreated    int64 `json:"users_created"`
	UsersUpdated    int64 `json:"users_updated"`
	UsersDeleted    int64 `json:"users_deleted"`
	EventsPublished int64 `json:"events_published"`
	EventsDropped   int64 `json:"events_dropped"`
}

// IncUserCreated increments the created-user counter.
func (r *InMemoryRecorder) IncUserCreated() {
	r.usersCreated.Add(1)
}

// IncUserUpdated increments the updated-user counter.
func (r *InMemoryRecorder) IncUserUpdated() {
	r.usersUpdated.Add(1)
}

// IncUserDeleted increments the deleted-user counter.
func (r *InMemoryRecorder) IncUserDeleted() {
	r.usersDeleted.Add(1)
}

// IncEventPublished records an event publish outcome.
func (r *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		r.eventsPublished.Add(1)
		return
	}
	r.eventsDropped.Add(1)
}

// Snapshot returns the current counter values.
func (r *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:    r.usersCreated.Load(),
		UsersUpdated:    r.usersUpdated.Load(),
		UsersDeleted:    r.usersDeleted.Load(),
		EventsPublished: r.eventsPublished.Load(),
		EventsDropped:   r.eventsDropped.Load(),
	}
}
