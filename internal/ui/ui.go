package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	UserListView ViewState = iota
	UserDetailView
	ConfirmView
	ExportView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	directory    tasks.UserDirectory
	engine       *tasks.Engine
	width        int
	height       int
	userList     list.Model
	users        []services.User
	selectedUser *services.User
	roleList     list.Model
	fetchSeq     int
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.BulkExportResult
	exportFormat string
	err          error
	help         help.Model
	keys         keyMap
}

type usersFetchedMsg struct {
	seq  int
	page *services.Page[services.User]
	err  error
}

type progressUpdateMsg tasks.ProgressUpdate

type exportCompleteMsg struct {
	result *tasks.BulkExportResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, directory tasks.UserDirectory, engine *tasks.Engine, exportFormat string) *Model {
	if exportFormat == "" {
		exportFormat = "json"
	}
	return &Model{
		ctx:          ctx,
		view:         UserListView,
		directory:    directory,
		engine:       engine,
		exportFormat: exportFormat,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching the first page of the user directory.
func (m *Model) Init() tea.Cmd {
	m.fetchSeq++
	return m.fetchUsers(m.fetchSeq)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.userList.Width() == 0 {
			m.userList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.roleList.Width() == 0 {
			m.roleList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case UserListView:
			return m.handleUserListKeys(msg)
		case UserDetailView:
			return m.handleUserDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case usersFetchedMsg:
		// Drop responses from superseded fetches so a slow reply for an old
		// refresh can never overwrite newer data.
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.users = msg.page.Content
		items := make([]list.Item, len(m.users))
		for i, user := range m.users {
			items[i] = userItem{user: user}
		}
		m.userList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.userList.Title = fmt.Sprintf("Users (%d total)", msg.page.TotalElements)
		m.userList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case exportCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case UserListView:
		return m.renderUserList()
	case UserDetailView:
		return m.renderUserDetail()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleUserListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't steal keys while the list's fuzzy filter is active.
	if m.userList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.userList, cmd = m.userList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.fetchSeq++
		return m, m.fetchUsers(m.fetchSeq)
	case "e":
		m.view = ConfirmView
		return m, nil
	case "enter":
		selected := m.userList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(userItem); ok {
				user := item.user
				m.selectedUser = &user
				items := make([]list.Item, len(user.Roles))
				for i, role := range user.Roles {
					items[i] = roleItem{role: role}
				}
				m.roleList = list.New(items, list.NewDefaultDelegate(), 0, 0)
				m.roleList.Title = fmt.Sprintf("Roles for %s", user.Email)
				m.roleList.SetSize(m.width-4, m.height-8)
				m.view = UserDetailView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.userList, cmd = m.userList.Update(msg)
	return m, cmd
}

func (m *Model) handleUserDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = UserListView
		return m, nil
	}

	var cmd tea.Cmd
	m.roleList, cmd = m.roleList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = UserListView
		return m, nil
	case "y":
		m.view = ExportView
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = UserListView
		m.result = nil
		m.err = nil
		m.fetchSeq++
		return m, m.fetchUsers(m.fetchSeq)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case UserListView:
		m.userList, cmd = m.userList.Update(msg)
	case UserDetailView:
		m.roleList, cmd = m.roleList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchUsers(seq int) tea.Cmd {
	return func() tea.Msg {
		page, err := m.directory.Search(m.ctx, services.UserFilter{Page: 1, Size: 50})
		return usersFetchedMsg{seq: seq, page: page, err: err}
	}
}

func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		result, err := m.engine.BulkExportUsers(m.ctx, progressChan, tasks.BulkExportOpts{
			Format: m.exportFormat,
		})
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return exportCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return exportCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderUserList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.export, m.keys.search, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.userList.View(), helpView)
}

func (m *Model) renderUserDetail() string {
	state := "active"
	if !m.selectedUser.Activated {
		state = "deactivated"
	}
	header := styles.title.Render(fmt.Sprintf("%s (%s)", m.selectedUser.Email, state))

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", header, m.roleList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Export the user directory as %s?", strings.ToUpper(m.exportFormat)))
	info := fmt.Sprintf("\nUsers loaded: %d\nFormat: %s\n", len(m.users), m.exportFormat)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting User Directory")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchUsers:
		phase = fmt.Sprintf("Fetching pages (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ExportUsers:
		phase = fmt.Sprintf("Writing pages (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf(
		"\nUsers: %d across %d pages\nWritten: %d pages\nOutput: %s",
		m.result.TotalUsers,
		m.result.TotalPages,
		m.result.SuccessfulExports,
		m.result.OutputDirectory,
	)

	var failed string
	if m.result.FailedExports > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to export %d pages:", m.result.FailedExports)))
		for _, res := range m.result.Results {
			if !res.Success {
				failed += fmt.Sprintf("\n  • page %d: %v", res.Page, res.Error)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
