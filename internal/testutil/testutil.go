// Package testutil provides shared helpers and fakes for tests.
package testutil

import (
	"context"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stalker/stalker/internal/model"
	"github.com/stalker/stalker/internal/store"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// OpenTestStore connects to the Redis instance named by REDIS_URL and
// flushes its database, skipping the test when REDIS_URL is unset.
// The connection is closed when the test finishes.
func OpenTestStore(t testing.TB) *store.Store {
	t.Helper()

	redisURL := RequireEnv(t, "REDIS_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := store.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Client().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return st
}

// MemStore is an in-memory implementation of the service store contract.
// It mirrors the Redis store's semantics: ids are sequential numeric
// strings, timestamps are set on write, and reads return copies so
// callers cannot mutate stored state.
type MemStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int64

	// ForcedErr, when set, is returned by every operation.
	ForcedErr error
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]*model.User)}
}

// Create assigns the next id and timestamps, then stores the record.
func (m *MemStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	m.nextID++
	now := time.Now().UTC().Truncate(time.Second)
	user.ID = strconv.FormatInt(m.nextID, 10)
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

// Get returns the record or store.ErrUserNotFound.
func (m *MemStore) Get(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// Find returns every record whose attributes exactly match the filter.
func (m *MemStore) Find(ctx context.Context, filter map[string]string) ([]*model.User, error) {
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.User, 0, len(all))
	for _, user := range all {
		ok := true
		for field, want := range filter {
			if user.Field(field) != want {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

// Update rewrites an existing record, bumping UpdatedAt.
func (m *MemStore) Update(ctx context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	if _, ok := m.users[user.ID]; !ok {
		return nil, store.ErrUserNotFound
	}

	user.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	m.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

// Destroy removes a record or returns store.ErrUserNotFound.
func (m *MemStore) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// All returns every record ordered by numeric id.
func (m *MemStore) All(ctx context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	users := make([]*model.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		a, _ := strconv.ParseInt(users[i].ID, 10, 64)
		b, _ := strconv.ParseInt(users[j].ID, 10, 64)
		return a < b
	})
	return users, nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

// PublishedEvent is one event captured by RecordingPublisher.
type PublishedEvent struct {
	Name string
	User *model.User
}

// RecordingPublisher captures published events for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent

	// ForcedErr, when set, is returned by Publish.
	ForcedErr error
}

// Publish records the event.
func (p *RecordingPublisher) Publish(ctx context.Context, name string, user *model.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ForcedErr != nil {
		return p.ForcedErr
	}
	p.events = append(p.events, PublishedEvent{Name: name, User: cloneUser(user)})
	return nil
}

// Events returns a copy of the captured events.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}
