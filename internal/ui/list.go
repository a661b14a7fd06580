package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/lyrelabs/lyre/internal/services"
)

var (
	_ list.Item = userItem{}
	_ list.Item = roleItem{}
)

// userItem wraps [services.User] to implement [list.Item].
type userItem struct {
	user services.User
}

func (i userItem) FilterValue() string { return i.user.Email }
func (i userItem) Title() string {
	if i.user.Name != "" {
		return i.user.Name
	}
	return i.user.Username
}
func (i userItem) Description() string {
	desc := i.user.Email
	if codes := i.user.RoleCodes(); len(codes) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(codes, ", "))
	}
	if !i.user.Activated {
		desc = fmt.Sprintf("%s • deactivated", desc)
	}
	return desc
}

// roleItem wraps [services.RoleBase] to implement [list.Item].
type roleItem struct {
	role services.RoleBase
}

func (i roleItem) FilterValue() string { return i.role.Code }
func (i roleItem) Title() string       { return i.role.Code }
func (i roleItem) Description() string { return i.role.ID }
