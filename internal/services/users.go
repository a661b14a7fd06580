// User administration endpoints.
package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/lyrelabs/lyre/internal/shared"
)

// UserFilter narrows and pages user searches.
type UserFilter struct {
	Search          string
	Page            int
	Size            int
	SortBy          string
	OrderBy         string
	Status          *bool
	CreatedDateFrom string
	CreatedDateTo   string
}

// Values encodes the filter as URL query parameters, omitting zero values.
func (f UserFilter) Values() url.Values {
	values := url.Values{}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		values.Set("size", strconv.Itoa(f.Size))
	}
	if f.SortBy != "" {
		values.Set("sortBy", f.SortBy)
	}
	if f.OrderBy != "" {
		values.Set("orderBy", f.OrderBy)
	}
	if f.Status != nil {
		values.Set("status", strconv.FormatBool(*f.Status))
	}
	if f.CreatedDateFrom != "" {
		values.Set("createdDateFrom", f.CreatedDateFrom)
	}
	if f.CreatedDateTo != "" {
		values.Set("createdDateTo", f.CreatedDateTo)
	}
	return values
}

// CreateUserRequest is the payload for creating a user account.
type CreateUserRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	RoleIDs  []string `json:"role_ids,omitempty"`
}

// UserService handles all user-related API calls.
type UserService struct {
	api *Client
}

// NewUserService creates a [UserService] over the shared API client.
func NewUserService(api *Client) *UserService {
	return &UserService{api: api}
}

// Search retrieves a page of users matching the filter.
func (s *UserService) Search(ctx context.Context, filter UserFilter) (*Page[User], error) {
	resp, err := s.api.Get(ctx, "/users", WithQuery(filter.Values()))
	if err != nil {
		return nil, err
	}

	page, err := unwrap[Page[User]](resp)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	resp, err := s.api.Get(ctx, "/users/"+userID)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user account. Requires the ADMIN role server-side.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	resp, err := s.api.Post(ctx, "/users", req)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRoles replaces the role assignments of a user.
func (s *UserService) UpdateRoles(ctx context.Context, userID string, roleIDs []string) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	body := map[string][]string{"role_ids": roleIDs}
	resp, err := s.api.Put(ctx, "/users/role/"+userID, body)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	resp, err := s.api.Delete(ctx, "/users/"+userID)
	if err != nil {
		return err
	}

	_, err = unwrap[any](resp)
	return err
}

// SetActivated activates or deactivates a user account.
func (s *UserService) SetActivated(ctx context.Context, userID string, activated bool) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	body := map[string]bool{"activated": activated}
	resp, err := s.api.Put(ctx, "/users/"+userID+"/activate", body)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar uploads a user's avatar image, reporting progress in percent.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename string, file io.Reader, onProgress func(percent int)) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	var progress func(sent, total int64)
	if onProgress != nil {
		progress = func(sent, total int64) {
			if total > 0 {
				onProgress(int(sent * 100 / total))
			}
		}
	}

	resp, err := s.api.Upload(ctx, "/users/"+userID+"/avatar", "avatar", filename, file, progress)
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// PublicProfile retrieves a public user profile without credentials.
func (s *UserService) PublicProfile(ctx context.Context, username string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	resp, err := s.api.Get(ctx, "/users/public/"+username, AsPublic())
	if err != nil {
		return nil, err
	}

	user, err := unwrap[User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
