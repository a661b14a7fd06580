// Profile endpoints, including the sign-in enrichment round-trip.
package services

import (
	"context"
	"fmt"

	"github.com/lyrelabs/lyre/internal/shared"
)

// UpdateProfileRequest is the payload for updating the caller's own profile.
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// SyncUserRequest upserts an application user from a provider profile. The
// backend creates the user record on first sign-in and returns it together
// with its role assignments.
type SyncUserRequest struct {
	Auth0UserID string `json:"auth0_user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	URLAvatar   string `json:"url_avatar,omitempty"`
}

// ProfileService handles the caller's own profile and the Auth0 sync endpoint.
type ProfileService struct {
	api *Client
}

// NewProfileService creates a [ProfileService] over the shared API client.
func NewProfileService(api *Client) *ProfileService {
	return &ProfileService{api: api}
}

// Get retrieves the authenticated caller's profile.
func (s *ProfileService) Get(ctx context.Context) (*User, error) {
	resp, err := s.api.Get(ctx, "/profile")
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates the authenticated caller's profile.
func (s *ProfileService) Update(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	resp, err := s.api.Put(ctx, "/profile", req)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SyncFromAuth0 upserts the user behind a provider profile and returns the
// application record carrying its roles. Runs once per sign-in.
func (s *ProfileService) SyncFromAuth0(ctx context.Context, req SyncUserRequest) (*User, error) {
	if req.Auth0UserID == "" {
		return nil, fmt.Errorf("%w: auth0 user id", shared.ErrMissingArgument)
	}

	resp, err := s.api.Post(ctx, "/profile/auth0", req)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
