// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// DefaultAvatarURL is assigned when a user is created without an avatar.
const DefaultAvatarURL = "http://www.9ori.com/en/media/images/718ccfedf6.jpg"

// User represents a tracked visitor.
// The JSON field names match the original public API, including "_id".
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Location  string    `json:"location"`
	Returning string    `json:"returning"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoredUser represents user data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type StoredUser struct {
	Name      string `redis:"name"`
	Avatar    string `redis:"avatar"`
	Location  string `redis:"location"`
	Returning string `redis:"returning"`
	CreatedAt string `redis:"created_at"` // Unix timestamp
	UpdatedAt string `redis:"updated_at"` // Unix timestamp
}

// ToUser converts StoredUser to the User domain model.
func (s *StoredUser) ToUser(id string) *User {
	user := &User{
		ID:        id,
		Name:      s.Name,
		Avatar:    s.Avatar,
		Location:  s.Location,
		Returning: s.Returning,
	}

	if s.CreatedAt != "" {
		if ts, err := strconv.ParseInt(s.CreatedAt, 10, 64); err == nil {
			user.CreatedAt = time.Unix(ts, 0).UTC()
		}
	}

	if s.UpdatedAt != "" {
		if ts, err := strconv.ParseInt(s.UpdatedAt, 10, 64); err == nil {
			user.UpdatedAt = time.Unix(ts, 0).UTC()
		}
	}

	return user
}

// ToStoredUser converts the User domain model to its Redis hash form.
func (u *User) ToStoredUser() *StoredUser {
	stored := &StoredUser{
		Name:      u.Name,
		Avatar:    u.Avatar,
		Location:  u.Location,
		Returning: u.Returning,
	}

	if !u.CreatedAt.IsZero() {
		stored.CreatedAt = strconv.FormatInt(u.CreatedAt.Unix(), 10)
	}
	if !u.UpdatedAt.IsZero() {
		stored.UpdatedAt = strconv.FormatInt(u.UpdatedAt.Unix(), 10)
	}

	return stored
}

// Field returns the value of a named attribute, used for exact-match queries.
// Unknown fields return an empty string.
func (u *User) Field(name string) string {
	switch name {
	case "name":
		return u.Name
	case "avatar":
		return u.Avatar
	case "location":
		return u.Location
	case "returning":
		return u.Returning
	default:
		return ""
	}
}
