// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stalker/stalker/internal/event"
	"github.com/stalker/stalker/internal/metrics"
	"github.com/stalker/stalker/internal/model"
	"github.com/stalker/stalker/internal/store"
)

// Service errors.
var (
	ErrNameRequired = errors.New("name is required")
	ErrNameTaken    = errors.New("name is taken")
	ErrUserNotFound = errors.New("user not found")
	ErrEmptyUpdate  = errors.New("no updatable fields supplied")
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Find(ctx context.Context, filter map[string]string) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
	Destroy(ctx context.Context, id string) error
	All(ctx context.Context) ([]*model.User, error)
}

// EventPublisher broadcasts model events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, name string, user *model.User) error
}

// UserService handles user business logic.
type UserService struct {
	store   Store
	events  EventPublisher
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(st Store, events EventPublisher, logger *slog.Logger, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   st,
		events:  events,
		logger:  logger,
		metrics: recorder,
	}
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Name   string
	Avatar string
}

// Create validates and persists a new user, then emits a user:save event.
// The name is lowercased before the uniqueness check and before storage.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	name := strings.ToLower(input.Name)

	if err := s.validateName(ctx, name, ""); err != nil {
		return nil, err
	}

	avatar := input.Avatar
	if avatar == "" {
		avatar = model.DefaultAvatarURL
	}

	user := &model.User{
		Name:   name,
		Avatar: avatar,
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserCreated()
	s.emit(ctx, event.UserSave, created)

	return created, nil
}

// UpdateUserInput defines input for updating a user.
// Nil fields are left untouched; non-nil fields are applied verbatim,
// including explicit empty strings for Location and Returning.
type UpdateUserInput struct {
	Name      *string
	Avatar    *string
	Location  *string
	Returning *string
}

// Empty reports whether no fields were supplied.
func (in UpdateUserInput) Empty() bool {
	return in.Name == nil && in.Avatar == nil && in.Location == nil && in.Returning == nil
}

// Update merges the supplied fields into an existing user, re-validating
// name uniqueness when the name changes, then emits a user:update event.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*model.User, error) {
	if input.Empty() {
		return nil, ErrEmptyUpdate
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.ToLower(*input.Name)
		if name != user.Name {
			if err := s.validateName(ctx, name, user.ID); err != nil {
				return nil, err
			}
		}
		user.Name = name
	}

	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Location != nil {
		user.Location = *input.Location
	}
	if input.Returning != nil {
		user.Returning = *input.Returning
	}

	updated, err := s.store.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.IncUserUpdated()
	s.emit(ctx, event.UserUpdate, updated)

	return updated, nil
}

// Get retrieves a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// FindByName retrieves the user with the given name, normalized to
// lowercase first. Returns ErrUserNotFound when no user has the name.
func (s *UserService) FindByName(ctx context.Context, name string) (*model.User, error) {
	users, err := s.store.Find(ctx, map[string]string{"name": strings.ToLower(name)})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

// List retrieves every user.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.store.All(ctx)
}

// Delete removes a user by id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.store.Destroy(ctx, id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.metrics.IncUserDeleted()

	return nil
}

// validateName enforces the uniqueness invariant for a normalized name.
// excludeID allows a record to keep its own name on update. The check and
// the subsequent write are separate store round-trips, so two concurrent
// writes with the same name can both pass; there is no store-level
// constraint backing this up.
func (s *UserService) validateName(ctx context.Context, name, excludeID string) error {
	matches, err := s.store.Find(ctx, map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("uniqueness check failed: %w", err)
	}

	for _, match := range matches {
		if match.ID != excludeID {
			return ErrNameTaken
		}
	}

	return nil
}

// emit publishes a model event. Publish failures are logged and dropped;
// a slow or unreachable event channel must never fail the write path.
func (s *UserService) emit(ctx context.Context, name string, user *model.User) {
	if s.events == nil {
		return
	}

	if err := s.events.Publish(ctx, name, user); err != nil {
		s.logger.Warn("failed to publish event",
			"event", name,
			"user_id", user.ID,
			"error", err,
		)
		s.metrics.IncEventPublished("dropped")
		return
	}

	s.metrics.IncEventPublished("success")
}
