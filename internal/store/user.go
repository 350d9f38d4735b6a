package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stalker/stalker/internal/model"
)

// redisMapCmd pairs a queued pipeline command with the id it was issued for.
type redisMapCmd struct {
	id  string
	cmd *redis.MapStringStringCmd
}

// Key layout for the users namespace.
const (
	userKeyPrefix = "users:"
	userIDCounter = "users:id"
	userIDSetKey  = "users:ids"
)

// Common store errors.
var (
	ErrUserNotFound = errors.New("user not found")
)

func userKey(id string) string {
	return userKeyPrefix + id
}

// Create persists a new user. The id is assigned by the store and the
// timestamps are set to the time of the write. Returns the stored record.
func (s *Store) Create(ctx context.Context, user *model.User) (*model.User, error) {
	id, err := s.client.Incr(ctx, userIDCounter).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate user id: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.ID = strconv.FormatInt(id, 10)
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.writeUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Get retrieves a user by id. Returns ErrUserNotFound if absent.
func (s *Store) Get(ctx context.Context, id string) (*model.User, error) {
	result, err := s.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrUserNotFound
	}

	return hashToUser(id, result), nil
}

// Find returns every user whose attributes exactly match the filter.
// Only exact field equality is supported.
func (s *Store) Find(ctx context.Context, filter map[string]string) ([]*model.User, error) {
	users, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.User, 0, len(users))
	for _, user := range users {
		if matchesFilter(user, filter) {
			matched = append(matched, user)
		}
	}

	return matched, nil
}

// Update rewrites an existing user record and bumps its UpdatedAt timestamp.
// Returns ErrUserNotFound if the id has never been assigned or was destroyed.
func (s *Store) Update(ctx context.Context, user *model.User) (*model.User, error) {
	member, err := s.client.SIsMember(ctx, userIDSetKey, user.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check user id: %w", err)
	}
	if !member {
		return nil, ErrUserNotFound
	}

	user.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	if err := s.writeUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Destroy removes a user record. Hard delete, no tombstone.
// Returns ErrUserNotFound if the id is absent.
func (s *Store) Destroy(ctx context.Context, id string) error {
	removed, err := s.client.SRem(ctx, userIDSetKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to remove user id: %w", err)
	}
	if removed == 0 {
		return ErrUserNotFound
	}

	if err := s.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// All returns every user record, ordered by numeric id.
func (s *Store) All(ctx context.Context) ([]*model.User, error) {
	ids, err := s.client.SMembers(ctx, userIDSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.ParseInt(ids[i], 10, 64)
		b, _ := strconv.ParseInt(ids[j], 10, 64)
		return a < b
	})

	pipe := s.client.Pipeline()
	cmds := make([]*redisMapCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, &redisMapCmd{id: id, cmd: pipe.HGetAll(ctx, userKey(id))})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	users := make([]*model.User, 0, len(ids))
	for _, c := range cmds {
		fields, err := c.cmd.Result()
		if err != nil || len(fields) == 0 {
			// Id set and hash can briefly disagree around a destroy.
			continue
		}
		users = append(users, hashToUser(c.id, fields))
	}

	return users, nil
}

func (s *Store) writeUser(ctx context.Context, user *model.User) error {
	stored := user.ToStoredUser()

	fields := map[string]any{
		"name":       stored.Name,
		"avatar":     stored.Avatar,
		"location":   stored.Location,
		"returning":  stored.Returning,
		"created_at": stored.CreatedAt,
		"updated_at": stored.UpdatedAt,
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, userKey(user.ID), fields)
	pipe.SAdd(ctx, userIDSetKey, user.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write user: %w", err)
	}

	return nil
}

func hashToUser(id string, fields map[string]string) *model.User {
	stored := &model.StoredUser{
		Name:      fields["name"],
		Avatar:    fields["avatar"],
		Location:  fields["location"],
		Returning: fields["returning"],
		CreatedAt: fields["created_at"],
		UpdatedAt: fields["updated_at"],
	}
	return stored.ToUser(id)
}

func matchesFilter(user *model.User, filter map[string]string) bool {
	for field, want := range filter {
		if user.Field(field) != want {
			return false
		}
	}
	return true
}
