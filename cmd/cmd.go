// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles sign-in, sign-out, and session inspection
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in through Auth0 using the browser",
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear local credentials and end the provider session",
				Action: r.AuthLogout,
			},
			{
				Name:    "whoami",
				Aliases: []string{"status"},
				Usage:   "Show the authenticated profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.AuthWhoami,
			},
		},
	}
}

// usersCommand handles user directory administration
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "users",
		Aliases: []string{"user", "u"},
		Usage:   "User directory operations",
		Commands: []*cli.Command{
			{
				Name:    "search",
				Aliases: []string{"list", "ls"},
				Usage:   "Search the user directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by email or name",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Page size",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.UsersSearch,
			},
			{
				Name:  "get",
				Usage: "Show a single user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.UsersGet,
			},
			{
				Name:  "create",
				Usage: "Create a user account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Initial password",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "role",
						Usage: "Role ID to assign (repeatable)",
					},
				},
				Action: r.UsersCreate,
			},
			{
				Name:  "roles",
				Usage: "Replace a user's role assignments",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "role",
						Usage: "Role ID to assign (repeatable)",
					},
				},
				Action: r.UsersRoles,
			},
			{
				Name:  "activate",
				Usage: "Activate a user account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.UsersActivate,
			},
			{
				Name:  "deactivate",
				Usage: "Deactivate a user account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.UsersDeactivate,
			},
			{
				Name:  "delete",
				Usage: "Delete a user account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.UsersDelete,
			},
			{
				Name:  "avatar",
				Usage: "Upload a user's avatar image",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the image file",
						Required: true,
					},
				},
				Action: r.UsersAvatar,
			},
			{
				Name:  "public",
				Usage: "Show a public profile without credentials",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.UsersPublic,
			},
			{
				Name:  "export",
				Usage: "Export the whole user directory to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: lyre_users_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent page writers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Backend requests per second",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Users fetched per page",
						Value: 50,
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by email or name",
					},
				},
				Action: r.UsersExport,
			},
		},
	}
}

// rolesCommand handles role administration
func rolesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "roles",
		Aliases: []string{"role"},
		Usage:   "Role administration",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"search", "ls"},
				Usage:   "List roles",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by code",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Page size",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.RolesList,
			},
			{
				Name:  "create",
				Usage: "Create a role",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Role description",
					},
				},
				Action: r.RolesCreate,
			},
			{
				Name:  "update",
				Usage: "Update a role's description",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "description",
						Aliases:  []string{"d"},
						Usage:    "New description",
						Required: true,
					},
				},
				Action: r.RolesUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a single role",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RolesDelete,
			},
			{
				Name:  "export",
				Usage: "Export the whole role listing to a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: lyre_roles_{timestamp}.csv)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Backend requests per second",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Roles fetched per page",
						Value: 50,
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by code",
					},
				},
				Action: r.RolesExport,
			},
			{
				Name:  "purge",
				Usage: "Delete roles one by one, continuing past failures",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Role ID to delete (repeatable)",
						Required: true,
					},
				},
				Action: r.RolesPurge,
			},
			{
				Name:  "bulk-delete",
				Usage: "Delete roles in one backend call",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Role ID to delete (repeatable)",
						Required: true,
					},
				},
				Action: r.RolesBulkDelete,
			},
		},
	}
}

// profileCommand handles the caller's own profile
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage your own profile",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show your profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Update your display name or password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "New display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "New password",
					},
				},
				Action: r.ProfileUpdate,
			},
			{
				Name:  "snapshot",
				Usage: "Fetch an admin overview (profile, users, roles)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ProfileSnapshot,
			},
		},
	}
}

// serveCommand runs the access gateway HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the access gateway HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive user administration.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for user administration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format used by the TUI (json, csv, markdown, txt)",
				Value:   "json",
			},
		},
		Action: r.TUI,
	}
}

// setupCommand handles database initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
