package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lyrelabs/lyre/internal/policy"
	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/session"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/lyrelabs/lyre/internal/tokenstore"
	"github.com/urfave/cli/v3"
)

// clientHooks builds the CLI reactions to classified client failures. The
// gateway redirects browsers to the fixed destinations; the CLI logs where a
// browser session would have landed instead.
func clientHooks(logger *log.Logger) (onForbidden, onNetworkError func()) {
	onForbidden = func() {
		logger.Warnf("access denied by the backend, a gateway session would be sent to %s", policy.AccessDeniedPath)
	}
	onNetworkError = func() {
		logger.Warnf("backend unreachable, a gateway session would be sent to %s", policy.NetworkErrorPath)
	}
	return onForbidden, onNetworkError
}

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	// The token store degrades to a no-op when the database is missing, so
	// commands that don't need credentials still work before setup has run.
	var store *tokenstore.Store
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		store = tokenstore.NewStore(db, logger)
	} else {
		logger.Warnf("local store unavailable, run 'lyre setup' to create it: %v", err)
		store = tokenstore.NewStore(nil, logger)
	}

	onForbidden, onNetworkError := clientHooks(logger)
	api := services.NewClient(services.ClientOpts{
		BaseURL:        config.API.BaseURL,
		Tokens:         store,
		RateLimit:      config.API.RateLimit,
		Logger:         logger,
		OnForbidden:    onForbidden,
		OnNetworkError: onNetworkError,
	})

	userService := services.NewUserService(api)
	roleService := services.NewRoleService(api)
	profileService := services.NewProfileService(api)

	var gateway *session.Gateway
	if g, err := session.NewGateway(config.Auth0, profileService, store, logger); err == nil {
		gateway = g
	} else {
		logger.Warnf("sign-in unavailable: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		API:     api,
		Users:   userService,
		Roles:   roleService,
		Profile: profileService,
		Gateway: gateway,
		Store:   store,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "lyre",
		Usage:    "Access gateway & admin CLI for the Lyre music service",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
