package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProfile Phase = iota
	FetchUsers
	FetchRoles
	ExportUsers
	DeleteRole
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchUsers:
		return "fetch_users"
	case FetchRoles:
		return "fetch_roles"
	case ExportUsers:
		return "export_users"
	case DeleteRole:
		return "delete_role"
	default:
		return ""
	}
}

func fetchProfileUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    step,
		Total:   total,
		Message: "Fetching profile...",
	}
}

func fetchUsersUpdate(step, total, page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUsers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching users (page %d)...", page),
	}
}

func fetchRolesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRoles,
		Step:    step,
		Total:   total,
		Message: "Fetching roles...",
	}
}

func deleteRoleUpdate(step, total int, roleID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteRole,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Deleting role %s...", step, total, roleID),
	}
}

func deleteRoleFailedUpdate(step, total int, roleID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteRole,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, roleID, err),
	}
}

func exportCompletedUpdate(step, total, page, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportUsers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ page %d (%d files)", step, total, page, filesCount),
	}
}

func exportFailedUpdate(step, total, page int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportUsers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ page %d: %v", step, total, page, err),
	}
}
