// Role administration endpoints.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lyrelabs/lyre/internal/shared"
)

// RoleFilter narrows and pages role searches.
type RoleFilter struct {
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
func (f RoleFilter) Values() url.Values {
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

// CreateRoleRequest is the payload for creating a role.
type CreateRoleRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RoleService handles all role-related API calls.
type RoleService struct {
	api *Client
}

// NewRoleService creates a [RoleService] over the shared API client.
func NewRoleService(api *Client) *RoleService {
	return &RoleService{api: api}
}

// Search retrieves a page of roles matching the filter.
func (s *RoleService) Search(ctx context.Context, filter RoleFilter) (*Page[Role], error) {
	resp, err := s.api.Get(ctx, "/roles", WithQuery(filter.Values()))
	if err != nil {
		return nil, err
	}

	page, err := unwrap[Page[Role]](resp)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single role by ID.
func (s *RoleService) Get(ctx context.Context, roleID string) (*Role, error) {
	if strings.TrimSpace(roleID) == "" {
		return nil, fmt.Errorf("%w: role id", shared.ErrMissingArgument)
	}

	resp, err := s.api.Get(ctx, "/roles/"+roleID)
	if err != nil {
		return nil, err
	}

	role, err := unwrap[Role](resp)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Create creates a new role.
func (s *RoleService) Create(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, fmt.Errorf("%w: role code", shared.ErrMissingArgument)
	}

	resp, err := s.api.Post(ctx, "/roles", req)
	if err != nil {
		return nil, err
	}

	role, err := unwrap[Role](resp)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateDescription updates a role's description.
func (s *RoleService) UpdateDescription(ctx context.Context, roleID, description string) (*Role, error) {
	if strings.TrimSpace(roleID) == "" {
		return nil, fmt.Errorf("%w: role id", shared.ErrMissingArgument)
	}

	body := map[string]string{"description": description}
	resp, err := s.api.Put(ctx, "/roles/"+roleID, body)
	if err != nil {
		return nil, err
	}

	role, err := unwrap[Role](resp)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Delete removes a role.
func (s *RoleService) Delete(ctx context.Context, roleID string) error {
	if strings.TrimSpace(roleID) == "" {
		return fmt.Errorf("%w: role id", shared.ErrMissingArgument)
	}

	resp, err := s.api.Delete(ctx, "/roles/"+roleID)
	if err != nil {
		return err
	}

	_, err = unwrap[any](resp)
	return err
}

// BulkDelete removes multiple roles in one backend call.
func (s *RoleService) BulkDelete(ctx context.Context, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return fmt.Errorf("%w: role ids", shared.ErrMissingArgument)
	}

	body := map[string][]string{"ids": roleIDs}
	resp, err := s.api.Post(ctx, "/roles/bulk-delete", body)
	if err != nil {
		return err
	}

	_, err = unwrap[any](resp)
	return err
}
