package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lyrelabs/lyre/internal/server"
	"github.com/lyrelabs/lyre/internal/session"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the access gateway: the route guard in front of the page shell
// plus the sign-in endpoints, on the configured host and port.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.gateway == nil {
		return fmt.Errorf("%w: sign-in gateway not initialized, check auth0 credentials in config.toml", shared.ErrServiceUnavailable)
	}

	cfg := r.config.Gateway
	if cfg.SessionSecret == "" {
		return fmt.Errorf("%w: gateway session_secret must be set in config.toml", shared.ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "lyre_session"
	}

	host := cfg.Host
	if cmd.String("host") != "" {
		host = cmd.String("host")
	}
	port := cfg.Port
	if cmd.Int("port") != 0 {
		port = cmd.Int("port")
	}

	ttl := time.Duration(cfg.SessionTTL) * time.Minute
	codec, err := session.NewCodec([]byte(cfg.SessionSecret), r.config.Auth0.Issuer, ttl)
	if err != nil {
		return fmt.Errorf("failed to create session codec: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.NewGuard(codec, cfg.CookieName, r.logger))
	router.Handler(server.NewAuthHandler(server.AuthHandlerOpts{
		Gateway:    r.gateway,
		Codec:      codec,
		CookieName: cfg.CookieName,
		PublicURL:  cfg.PublicURL,
		SessionTTL: ttl,
		Logger:     r.logger,
	}))
	router.Handler(server.NewPageHandler())

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("gateway listening at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	r.writePlain("✓ Gateway running at http://%s\n", addr)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-notifyCtx.Done():
	}

	r.logger.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	return nil
}
