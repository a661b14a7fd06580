// Package ui implements an interactive admin terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for user administration:
//  1. [UserListView] : Browse and search the user directory
//  2. [UserDetailView] : Inspect a single account and its role assignments
//  3. [ConfirmView] : Confirm a directory export
//  4. [ExportView] : Monitor real-time export progress
//  5. [ResultView] : Display export results and partial failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the admin Engine, providing non-blocking status reporting during exports.
// Directory fetches carry a sequence number so a slow response for an old search can never overwrite a newer one.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
