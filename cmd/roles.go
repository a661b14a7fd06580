package main

import (
	"context"
	"fmt"

	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/lyrelabs/lyre/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RolesList lists a page of roles.
func (r *Runner) RolesList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	filter := services.RoleFilter{
		Search: cmd.String("search"),
		Page:   cmd.Int("page"),
		Size:   cmd.Int("size"),
	}

	page, err := r.roles.Search(ctx, filter)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(page, pretty)
	}

	r.writePlain("Found %d roles (page %d of %d):\n\n", page.TotalElements, page.Page, page.TotalPages)
	for i, role := range page.Content {
		r.writePlain("%d. %s\n", i+1, role.Code)
		if role.Description != "" {
			r.writePlain("   Description: %s\n", role.Description)
		}
		r.writePlain("   ID: %s\n", role.ID)
	}

	return nil
}

// RolesCreate creates a role.
func (r *Runner) RolesCreate(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: role code", shared.ErrMissingArgument)
	}

	role, err := r.roles.Create(ctx, services.CreateRoleRequest{
		Code:        code,
		Description: cmd.String("description"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Role %s created\n", role.Code)
	r.writePlain("  ID: %s\n", role.ID)
	return nil
}

// RolesUpdate updates a role's description.
func (r *Runner) RolesUpdate(ctx context.Context, cmd *cli.Command) error {
	roleID := cmd.StringArg("id")
	if roleID == "" {
		return fmt.Errorf("%w: role id", shared.ErrMissingArgument)
	}

	role, err := r.roles.UpdateDescription(ctx, roleID, cmd.String("description"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Role %s updated\n", role.Code)
	return nil
}

// RolesDelete deletes a single role.
func (r *Runner) RolesDelete(ctx context.Context, cmd *cli.Command) error {
	roleID := cmd.StringArg("id")
	if roleID == "" {
		return fmt.Errorf("%w: role id", shared.ErrMissingArgument)
	}

	r.logger.Infof("deleting role %v", roleID)

	if err := r.roles.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Role %s deleted\n", roleID)
}

// RolesExport writes the full role listing to a single CSV file through the
// admin engine.
func (r *Runner) RolesExport(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: admin engine not initialized", shared.ErrServiceUnavailable)
	}

	opts := tasks.RoleExportOpts{
		OutputPath: cmd.String("output"),
		RateLimit:  cmd.Float("rate"),
		PageSize:   cmd.Int("page-size"),
		Filter:     services.RoleFilter{Search: cmd.String("search")},
	}

	r.writePlainHeader("Role Export")

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("  [%s] %s\n", update.Phase, update.Message)
		}
	}()

	result, err := r.engine.ExportRoles(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlain("✓ Exported %d roles (%d pages) to %s\n", result.TotalRoles, result.TotalPages, result.OutputPath)
	return nil
}

// RolesPurge deletes roles one by one through the admin engine, continuing
// past individual failures.
func (r *Runner) RolesPurge(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: admin engine not initialized", shared.ErrServiceUnavailable)
	}

	roleIDs := cmd.StringSlice("id")

	r.writePlainHeader("Role Purge")

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := r.engine.PurgeRoles(ctx, progress, roleIDs)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	r.writePlainln("Purge finished")
	r.writePlain("  Deleted: %d of %d\n", result.DeletedCount, result.TotalRoles)
	for _, failure := range result.Failures {
		r.writePlain("  ✗ %s: %v\n", failure.RoleID, failure.Error)
	}

	return nil
}

// RolesBulkDelete deletes roles in a single backend call.
func (r *Runner) RolesBulkDelete(ctx context.Context, cmd *cli.Command) error {
	roleIDs := cmd.StringSlice("id")

	if err := r.roles.BulkDelete(ctx, roleIDs); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Deleted %d roles\n", len(roleIDs))
}
