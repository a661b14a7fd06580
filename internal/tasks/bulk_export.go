package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lyrelabs/lyre/internal/formatter"
	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
)

// BulkExportOpts contains configuration for bulk user directory exports.
type BulkExportOpts struct {
	Format     string              // Export format: json, csv, markdown, txt
	OutputDir  string              // Base output directory (default: lyre_users_{epoch})
	NumWorkers int                 // Concurrent writers (default: 5)
	RateLimit  float64             // Requests per second (default: 5)
	PageSize   int                 // Users fetched per backend page (default: 50)
	Filter     services.UserFilter // Base search filter; paging fields are overwritten
}

// PageExportJob carries one fetched page to the writer pool.
type PageExportJob struct {
	Page  int
	Users []services.User
}

// PageExportResult records the outcome of exporting a single page.
type PageExportResult struct {
	Page    int
	Success bool
	Files   []string
	Error   error
}

// BulkExportResult summarizes a bulk user export.
type BulkExportResult struct {
	TotalPages        int
	TotalUsers        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PageExportResult
}

// BulkExportUsers exports the whole user directory page by page.
//
// Pages are fetched sequentially under the rate limit and handed to a bounded
// worker pool for formatting and file writes. Partial failures are recorded
// per page; a manifest file summarizing the run is written at the end.
func (e *Engine) BulkExportUsers(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.users == nil {
		return nil, fmt.Errorf("%w: user service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("lyre_users_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	filter := opts.Filter
	filter.Page = 1
	filter.Size = opts.PageSize

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	e.sendProgress(prog, fetchUsersUpdate(1, 1, 1))
	first, err := e.users.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch users: %v", shared.ErrAPIRequest, err)
	}

	totalPages := first.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	result := &BulkExportResult{
		TotalPages:      totalPages,
		TotalUsers:      first.TotalElements,
		OutputDirectory: opts.OutputDir,
		Results:         make([]PageExportResult, 0, totalPages),
	}

	jobs := make(chan PageExportJob, totalPages)
	results := make(chan PageExportResult, totalPages)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)

		jobs <- PageExportJob{Page: 1, Users: first.Content}

		for page := 2; page <= totalPages; page++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchUsersUpdate(page, totalPages, page))

			pageFilter := filter
			pageFilter.Page = page
			pageResult, err := e.users.Search(ctx, pageFilter)
			if err != nil {
				results <- PageExportResult{
					Page:    page,
					Success: false,
					Error:   fmt.Errorf("failed to fetch page: %w", err),
				}
				continue
			}

			jobs <- PageExportJob{Page: page, Users: pageResult.Content}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, totalPages, res.Page, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, totalPages, res.Page, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	manifest, err := formatter.ToMetadataJSON(result)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to build manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, manifest, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes pages from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PageExportJob,
	results chan<- PageExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSinglePage(job, opts)
	}
}

// exportSinglePage writes a single page of users in the requested format.
func (e *Engine) exportSinglePage(j PageExportJob, opts BulkExportOpts) PageExportResult {
	result := PageExportResult{
		Page:    j.Page,
		Success: false,
		Files:   []string{},
	}

	export := &formatter.UserExport{
		Title: fmt.Sprintf("Users (page %d)", j.Page),
		Users: j.Users,
	}

	switch opts.Format {
	case "csv":
		baseFilepath := filepath.Join(opts.OutputDir, fmt.Sprintf("page_%d", j.Page))
		csvRes, err := formatter.WriteUsersCSVExport(export, baseFilepath)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.RecordsFile, csvRes.MetadataFile}
		result.Success = true

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, fmt.Sprintf("page_%d", j.Page))
		mdRes, err := formatter.WriteUsersMarkdownExport(export, outputDir, true)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("page_%d_users.txt", j.Page))
		written, err := formatter.WriteUsersTextExport(export, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("page_%d.json", j.Page))
		data, err := formatter.ToMetadataJSON(export)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}
