package main

import (
	"context"
	"fmt"

	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/lyrelabs/lyre/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ProfileShow displays the caller's own profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	user, err := r.profile.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writeUser(user)
	return nil
}

// ProfileUpdate updates the caller's display name or password.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	user, err := r.profile.Update(ctx, services.UpdateProfileRequest{
		Name:     cmd.String("name"),
		Password: cmd.String("password"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Profile updated\n")
	r.writeUser(user)
	return nil
}

// ProfileSnapshot fetches the admin overview: the caller's profile plus the
// first page of users and roles.
func (r *Runner) ProfileSnapshot(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: admin engine not initialized", shared.ErrServiceUnavailable)
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debugf("snapshot: %s", update.Message)
		}
	}()

	result, err := r.engine.Snapshot(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Admin Snapshot")

	if result.Profile != nil {
		r.writePlain("Profile: %s (%s)\n", result.Profile.Email, result.Profile.Name)
	}
	if result.Users != nil {
		r.writePlain("Users: %d total\n", result.Users.TotalElements)
	}
	if result.Roles != nil {
		r.writePlain("Roles: %d total\n", result.Roles.TotalElements)
		for _, role := range result.Roles.Content {
			r.writePlain("  • %s\n", role.Code)
		}
	}
	for _, failed := range result.Errors {
		r.writePlain("✗ %s: %v\n", failed.Endpoint, failed.Error)
	}

	return nil
}
