package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/lyrelabs/lyre/internal/tasks"
	"github.com/urfave/cli/v3"
)

// UsersSearch lists a page of the user directory.
func (r *Runner) UsersSearch(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	filter := services.UserFilter{
		Search: cmd.String("search"),
		Page:   cmd.Int("page"),
		Size:   cmd.Int("size"),
	}

	r.logger.Infof("searching users page %v", filter.Page)

	page, err := r.users.Search(ctx, filter)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(page, pretty)
	}

	r.writePlain("Found %d users (page %d of %d):\n\n", page.TotalElements, page.Page, page.TotalPages)
	for i, user := range page.Content {
		r.writePlain("%d. ", i+1)
		r.writeUser(&user)
		r.writePlain("\n")
	}

	return nil
}

// UsersGet shows a single user by ID.
func (r *Runner) UsersGet(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("id")
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	user, err := r.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writeUser(user)
	return nil
}

// UsersCreate creates a user account.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	req := services.CreateUserRequest{
		Email:    cmd.String("email"),
		Name:     cmd.String("name"),
		Password: cmd.String("password"),
		RoleIDs:  cmd.StringSlice("role"),
	}

	r.logger.Infof("creating user %v", req.Email)

	user, err := r.users.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ User created\n")
	r.writeUser(user)
	return nil
}

// UsersRoles replaces a user's role assignments.
func (r *Runner) UsersRoles(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("id")
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	user, err := r.users.UpdateRoles(ctx, userID, cmd.StringSlice("role"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Roles updated\n")
	r.writeUser(user)
	return nil
}

// UsersActivate activates a user account.
func (r *Runner) UsersActivate(ctx context.Context, cmd *cli.Command) error {
	return r.setUserActivated(ctx, cmd.StringArg("id"), true)
}

// UsersDeactivate deactivates a user account.
func (r *Runner) UsersDeactivate(ctx context.Context, cmd *cli.Command) error {
	return r.setUserActivated(ctx, cmd.StringArg("id"), false)
}

func (r *Runner) setUserActivated(ctx context.Context, userID string, activated bool) error {
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	user, err := r.users.SetActivated(ctx, userID, activated)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if activated {
		r.writePlain("✓ User activated\n")
	} else {
		r.writePlain("✓ User deactivated\n")
	}
	r.writeUser(user)
	return nil
}

// UsersDelete deletes a user account.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("id")
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	r.logger.Infof("deleting user %v", userID)

	if err := r.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ User %s deleted\n", userID)
}

// UsersAvatar uploads an avatar image for a user, reporting progress.
func (r *Runner) UsersAvatar(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("id")
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	filePath := cmd.String("file")
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open avatar file: %w", err)
	}
	defer file.Close()

	user, err := r.users.UploadAvatar(ctx, userID, filepath.Base(filePath), file, func(percent int) {
		r.writePlain("\rUploading... %d%%", percent)
	})
	if err != nil {
		r.writePlain("\n")
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("\n✓ Avatar uploaded for %s\n", user.Email)
	return nil
}

// UsersPublic shows a public profile without sending credentials.
func (r *Runner) UsersPublic(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	user, err := r.users.PublicProfile(ctx, username)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writeUser(user)
	return nil
}

// UsersExport exports the whole user directory to disk, page by page.
func (r *Runner) UsersExport(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: admin engine not initialized", shared.ErrServiceUnavailable)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		PageSize:   cmd.Int("page-size"),
		Filter:     services.UserFilter{Search: cmd.String("search")},
	}

	r.writePlainHeader("User Directory Export")

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("  [%s] %s\n", update.Phase, update.Message)
		}
	}()

	result, err := r.engine.BulkExportUsers(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("✓ Export complete")
	r.writePlain("  Users: %d across %d pages\n", result.TotalUsers, result.TotalPages)
	r.writePlain("  Written: %d pages, failed: %d\n", result.SuccessfulExports, result.FailedExports)
	r.writePlain("  Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("  Manifest: %s\n", result.ManifestPath)
	}

	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ page %d: %v\n", res.Page, res.Error)
		}
	}

	return nil
}
