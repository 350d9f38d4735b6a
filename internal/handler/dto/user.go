// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// UpdateUserRequest represents the request body for updating a user.
// Pointer fields distinguish "key omitted" from "key supplied with an
// empty value"; an explicit empty string is a valid value to apply.
type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Location  *string `json:"location,omitempty"`
	Returning *string `json:"returning,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
