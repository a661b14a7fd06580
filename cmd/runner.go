package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/session"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/lyrelabs/lyre/internal/tasks"
	"github.com/lyrelabs/lyre/internal/tokenstore"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.Client
	users      *services.UserService
	roles      *services.RoleService
	profile    *services.ProfileService
	gateway    *session.Gateway
	store      *tokenstore.Store
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.Client
	Users      *services.UserService
	Roles      *services.RoleService
	Profile    *services.ProfileService
	Gateway    *session.Gateway
	Store      *tokenstore.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	var engine *tasks.Engine
	if opts.Users != nil && opts.Roles != nil && opts.Profile != nil {
		engine = tasks.NewEngine(opts.Users, opts.Roles, opts.Profile)
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		users:      opts.Users,
		roles:      opts.Roles,
		profile:    opts.Profile,
		gateway:    opts.Gateway,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     engine,
	}
}

// SetLogger swaps the runner's logger, used to redirect logs to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, usersCommand, rolesCommand, profileCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeUser prints a user record in the standard plain-text layout.
func (r *Runner) writeUser(user *services.User) {
	r.writePlain("%s", user.Email)
	if user.Name != "" {
		r.writePlain(" (%s)", user.Name)
	}
	r.writePlain("\n  ID: %s\n", user.ID)
	if user.Username != "" {
		r.writePlain("  Username: %s\n", user.Username)
	}
	if codes := user.RoleCodes(); len(codes) > 0 {
		r.writePlain("  Roles: %v\n", codes)
	}
	if user.Activated {
		r.writePlain("  Status: active\n")
	} else {
		r.writePlain("  Status: deactivated\n")
	}
}
