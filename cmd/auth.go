package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lyrelabs/lyre/internal/server"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser-based authorization-code flow.
//
// Starts a loopback HTTP server on the configured redirect URI, opens the
// browser for sign-in, and waits for the callback to establish the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.gateway == nil {
		return fmt.Errorf("%w: sign-in gateway not initialized, check auth0 credentials in config.toml", shared.ErrServiceUnavailable)
	}

	redirect, err := url.Parse(r.config.Auth0.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: auth0 redirect_uri is not a valid URL", shared.ErrInvalidConfig)
	}

	state := shared.GenerateState()
	handler := server.NewLoopbackHandler(r.gateway, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    redirect.Host,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("waiting for sign-in callback at %v", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	authURL := r.gateway.AuthCodeURL(state)
	r.writePlain("→ Opening browser for sign-in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.LoopbackResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("sign-in failed: %w", result.Error())
	}

	sess := result.Session
	r.writePlainln("✓ Signed in")
	r.writePlain("  Subject: %s\n", sess.SubjectID)
	if sess.Email != "" {
		r.writePlain("  Email: %s\n", sess.Email)
	}
	if codes := sess.RoleCodes(); len(codes) > 0 {
		r.writePlain("  Roles: %s\n", strings.Join(codes, ", "))
	}

	return nil
}

// AuthLogout clears locally persisted credentials and hands the browser to the
// provider's federated logout so the Auth0 SSO cookie dies too.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.gateway == nil {
		return fmt.Errorf("%w: sign-in gateway not initialized", shared.ErrServiceUnavailable)
	}

	logoutURL, err := r.gateway.SignOut(r.config.Gateway.PublicURL)
	if err != nil {
		return fmt.Errorf("sign-out failed: %w", err)
	}

	r.writePlain("✓ Local credentials cleared\n")

	if err := shared.OpenBrowser(logoutURL); err != nil {
		r.writePlain("Open this URL to end the provider session:\n%s\n", logoutURL)
	} else {
		r.writePlain("→ Opening browser to end the provider session...\n")
	}

	return nil
}

// AuthWhoami fetches the authenticated profile from the backend.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.store == nil || r.store.Token() == "" {
		return fmt.Errorf("%w: run 'lyre auth login' first", shared.ErrNotAuthenticated)
	}

	user, err := r.profile.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(user, pretty)
	}

	r.writeUser(user)
	return nil
}
