// package services contains typed clients for the Lyre backend REST API.
//
// Every response from the backend arrives inside a uniform envelope
// ({isSuccess, data, message}); the shared [Client] handles transport,
// credentials, and error classification, while the typed services
// ([UserService], [RoleService], [ProfileService]) own endpoint paths and
// payload shapes.
package services

import "fmt"

// Envelope is the uniform wrapper around every backend response body.
// An HTTP 2xx with IsSuccess=false is still a failed operation.
type Envelope[T any] struct {
	IsSuccess bool   `json:"isSuccess"`
	Data      T      `json:"data"`
	Message   string `json:"message,omitempty"`
}

// Page is the backend's paginated collection shape.
type Page[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// RoleBase is the compact role reference embedded in user payloads.
type RoleBase struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// Role represents an application role.
type Role struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Description      string `json:"description"`
	CreatedBy        string `json:"createdBy,omitempty"`
	CreatedDate      string `json:"createdDate,omitempty"`
	LastModifiedDate string `json:"lastModifiedDate,omitempty"`
	IsDelete         bool   `json:"isDelete,omitempty"`
}

// User represents a user account as returned by the backend.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Auth0UserID      string     `json:"auth0_user_id"`
	Name             string     `json:"name"`
	Activated        bool       `json:"activated"`
	URLAvatar        string     `json:"url_avatar,omitempty"`
	Roles            []RoleBase `json:"roles"`
	CreatedBy        string     `json:"created_by,omitempty"`
	CreatedDate      string     `json:"created_date,omitempty"`
	LastModifiedBy   string     `json:"last_modified_by,omitempty"`
	LastModifiedDate string     `json:"last_modified_date,omitempty"`
	IsDelete         bool       `json:"is_delete,omitempty"`
}

// RoleCodes returns the user's role codes in declaration order.
func (u *User) RoleCodes() []string {
	codes := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		codes = append(codes, r.Code)
	}
	return codes
}

// unwrap decodes an enveloped response body and surfaces envelope-level
// failures as errors carrying the backend message.
func unwrap[T any](resp *Response) (T, error) {
	var envelope Envelope[T]
	if err := resp.Decode(&envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}

	if !envelope.IsSuccess {
		var zero T
		if envelope.Message != "" {
			return zero, fmt.Errorf("backend rejected request: %s", envelope.Message)
		}
		return zero, fmt.Errorf("backend rejected request")
	}

	return envelope.Data, nil
}
