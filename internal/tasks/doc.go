// Package tasks orchestrates long-running admin operations against the Lyre
// backend with real-time progress reporting.
//
// # Core Operations
//
// The [AdminEngine] interface defines three operations:
//
//  1. [AdminEngine.BulkExportUsers] : Export the full user directory
//     - Pages through the user search endpoint under a rate limit
//     - Writes each page through a bounded worker pool
//     - Generates a manifest file summarizing the export
//
//  2. [AdminEngine.PurgeRoles] : Delete a set of roles one by one
//     - Reports per-role progress and collects partial failures
//
//  3. [AdminEngine.Snapshot] : Fetch an admin overview in one pass
//     - Retrieves the caller's profile plus the first page of users and roles
//     - Collects per-endpoint errors instead of aborting
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default to
// prevent blocking.
//
// # Implementation
//
// [Engine] implements [AdminEngine] with dependencies on the typed backend
// services ([services.UserService], [services.RoleService],
// [services.ProfileService]), accepted as narrow interfaces so tests can
// substitute fakes.
package tasks
