package tasks

import (
	"context"
	"fmt"

	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
)

// UserDirectory is the slice of the user service the engine reads.
type UserDirectory interface {
	Search(ctx context.Context, filter services.UserFilter) (*services.Page[services.User], error)
}

// RoleDirectory is the slice of the role service the engine uses.
type RoleDirectory interface {
	Search(ctx context.Context, filter services.RoleFilter) (*services.Page[services.Role], error)
	Delete(ctx context.Context, roleID string) error
}

// ProfileReader fetches the authenticated caller's profile.
type ProfileReader interface {
	Get(ctx context.Context) (*services.User, error)
}

// RolePurgeResult contains the outcome of a role purge operation.
type RolePurgeResult struct {
	TotalRoles   int           // Roles requested for deletion
	DeletedCount int           // Roles removed successfully
	FailedCount  int           // Roles that could not be removed
	Failures     []RoleFailure // Per-role failure details
}

// RoleFailure records a single role that could not be deleted.
type RoleFailure struct {
	RoleID string
	Error  error
}

// EndpointResult represents the result of fetching data from a single admin endpoint.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// SnapshotResult contains the admin overview fetched by Snapshot.
type SnapshotResult struct {
	Profile *services.User                // The caller's own profile
	Users   *services.Page[services.User] // First page of the user directory
	Roles   *services.Page[services.Role] // First page of the role directory
	Errors  []EndpointResult              // Failed endpoint fetches
}

// AdminEngine defines long-running operations over the backend admin surface.
type AdminEngine interface {
	// BulkExportUsers pages through the user directory and writes every page to disk in the requested format.
	BulkExportUsers(ctx context.Context, progress chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error)

	// ExportRoles pages through the role listing and writes it to a single CSV file.
	ExportRoles(ctx context.Context, progress chan<- ProgressUpdate, opts RoleExportOpts) (*RoleExportResult, error)

	// PurgeRoles deletes the given roles one by one, collecting partial failures.
	PurgeRoles(ctx context.Context, progress chan<- ProgressUpdate, roleIDs []string) (*RolePurgeResult, error)

	// Snapshot fetches the caller profile plus the first page of users and roles.
	Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error)
}

// Engine implements AdminEngine over the typed backend services.
type Engine struct {
	users   UserDirectory
	roles   RoleDirectory
	profile ProfileReader
}

// NewEngine creates a new Engine with the provided service dependencies.
func NewEngine(users UserDirectory, roles RoleDirectory, profile ProfileReader) *Engine {
	return &Engine{
		users:   users,
		roles:   roles,
		profile: profile,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// PurgeRoles deletes each role in turn. A failed deletion is recorded and the
// purge continues; only a cancelled context aborts the loop.
func (e *Engine) PurgeRoles(ctx context.Context, progress chan<- ProgressUpdate, roleIDs []string) (*RolePurgeResult, error) {
	if e.roles == nil {
		return nil, fmt.Errorf("%w: role service not initialized", shared.ErrServiceUnavailable)
	}
	if len(roleIDs) == 0 {
		return nil, fmt.Errorf("%w: role ids", shared.ErrMissingArgument)
	}

	result := &RolePurgeResult{
		TotalRoles: len(roleIDs),
		Failures:   []RoleFailure{},
	}

	for i, roleID := range roleIDs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		e.sendProgress(progress, deleteRoleUpdate(i+1, len(roleIDs), roleID))

		if err := e.roles.Delete(ctx, roleID); err != nil {
			result.FailedCount++
			result.Failures = append(result.Failures, RoleFailure{RoleID: roleID, Error: err})
			e.sendProgress(progress, deleteRoleFailedUpdate(i+1, len(roleIDs), roleID, err))
			continue
		}

		result.DeletedCount++
	}

	return result, nil
}

// Snapshot fetches the admin overview. Endpoint failures are collected rather
// than aborting the whole snapshot.
func (e *Engine) Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error) {
	if e.users == nil || e.roles == nil || e.profile == nil {
		return nil, fmt.Errorf("%w: services not initialized", shared.ErrServiceUnavailable)
	}

	result := &SnapshotResult{
		Errors: []EndpointResult{},
	}

	e.sendProgress(progress, fetchProfileUpdate(1, 3))
	profile, err := e.profile.Get(ctx)
	if err != nil {
		result.Errors = append(result.Errors, EndpointResult{Endpoint: "/profile", Error: err})
	} else {
		result.Profile = profile
	}

	e.sendProgress(progress, fetchUsersUpdate(2, 3, 1))
	users, err := e.users.Search(ctx, services.UserFilter{Page: 1})
	if err != nil {
		result.Errors = append(result.Errors, EndpointResult{Endpoint: "/users", Error: err})
	} else {
		result.Users = users
	}

	e.sendProgress(progress, fetchRolesUpdate(3, 3))
	roles, err := e.roles.Search(ctx, services.RoleFilter{Page: 1})
	if err != nil {
		result.Errors = append(result.Errors, EndpointResult{Endpoint: "/roles", Error: err})
	} else {
		result.Roles = roles
	}

	return result, nil
}
