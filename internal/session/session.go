// package session materializes application sessions from the Auth0
// authorization-code flow.
//
// A [Session] is stateless: it lives entirely inside a signed JWT issued by
// [Codec], so every request re-derives it from the cookie rather than from
// server-side state. The [Gateway] is the only writer of auth state (token
// store, session cookie); everything else reads.
package session

// Session carries the identity and authorization data for a signed-in user.
type Session struct {
	SubjectID   string   `json:"subject_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"access_token"`
	IDToken     string   `json:"id_token"`
}

// HasRole reports whether the session's role set contains the given code.
// Comparison is exact and case-sensitive.
func (s *Session) HasRole(code string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == code {
			return true
		}
	}
	return false
}

// RoleCodes returns the raw role codes. Never nil.
func (s *Session) RoleCodes() []string {
	if s == nil || s.Roles == nil {
		return []string{}
	}
	return s.Roles
}
