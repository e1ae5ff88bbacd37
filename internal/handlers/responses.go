package handlers

import (
	"github.com/venturelink/venturelink/internal/domain"
)

// UserResponse is the public shape of a user. The password hash and other
// internals never leave the API.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NewUserResponse creates a UserResponse from a domain.User.
func NewUserResponse(user *domain.User) *UserResponse {
	resp := &UserResponse{
		ID:    user.ParticipantID(),
		Email: user.Email,
	}
	if user.Name != nil {
		resp.Name = *user.Name
	}
	return resp
}
