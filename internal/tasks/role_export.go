package tasks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/lyrelabs/lyre/internal/formatter"
	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
)

// RoleExportOpts contains configuration for a full role-listing export.
type RoleExportOpts struct {
	OutputPath string              // Destination CSV file (default: lyre_roles_{epoch}.csv)
	RateLimit  float64             // Requests per second (default: 5)
	PageSize   int                 // Roles fetched per backend page (default: 50)
	Filter     services.RoleFilter // Base search filter; paging fields are overwritten
}

// RoleExportResult summarizes a role export.
type RoleExportResult struct {
	TotalRoles int
	TotalPages int
	OutputPath string
}

// ExportRoles pages through the whole role listing under the rate limit,
// accumulates every page, and writes a single CSV file. The role directory is
// small compared to the user directory, so pages are fetched sequentially and
// any fetch failure aborts the export.
func (e *Engine) ExportRoles(ctx context.Context, prog chan<- ProgressUpdate, opts RoleExportOpts) (*RoleExportResult, error) {
	if e.roles == nil {
		return nil, fmt.Errorf("%w: role service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputPath == "" {
		opts.OutputPath = fmt.Sprintf("lyre_roles_%d.csv", time.Now().Unix())
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	filter := opts.Filter
	filter.Page = 1
	filter.Size = opts.PageSize

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	e.sendProgress(prog, fetchRolesUpdate(1, 1))
	first, err := e.roles.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch roles: %v", shared.ErrAPIRequest, err)
	}

	totalPages := first.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	all := append([]services.Role{}, first.Content...)

	for page := 2; page <= totalPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("export cancelled: %w", err)
		}

		e.sendProgress(prog, fetchRolesUpdate(page, totalPages))

		pageFilter := filter
		pageFilter.Page = page
		pageResult, err := e.roles.Search(ctx, pageFilter)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch roles page %d: %v", shared.ErrAPIRequest, page, err)
		}
		all = append(all, pageResult.Content...)
	}

	export := &formatter.RoleExport{Title: "Roles", Roles: all}
	written, err := formatter.WriteRolesCSVExport(export, opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to write role export: %w", err)
	}

	return &RoleExportResult{
		TotalRoles: len(all),
		TotalPages: totalPages,
		OutputPath: written,
	}, nil
}
