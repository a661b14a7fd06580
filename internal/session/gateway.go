package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/lyrelabs/lyre/internal/services"
	"github.com/lyrelabs/lyre/internal/shared"
)

// Enricher resolves the application-side user record (and its roles) for a
// provider profile. Implemented by [services.ProfileService].
type Enricher interface {
	SyncFromAuth0(ctx context.Context, req services.SyncUserRequest) (*services.User, error)
}

// TokenWriter is the slice of the token store the gateway mutates.
type TokenWriter interface {
	SetToken(token string) error
	ClearAuth() error
}

// Gateway orchestrates the OAuth2 authorization-code flow with Auth0 and
// materializes application sessions.
//
// Sign-in fails closed: when the role-enrichment round-trip fails for any
// reason, no session is produced and nothing is written to the token store.
type Gateway struct {
	oauth    *oauth2.Config
	issuer   string
	clientID string
	audience string
	enricher Enricher
	tokens   TokenWriter
	logger   *log.Logger
}

// NewGateway creates a [Gateway] from provider credentials.
func NewGateway(cfg shared.Auth0Config, enricher Enricher, tokens TokenWriter, logger *log.Logger) (*Gateway, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("%w: auth0 issuer", shared.ErrMissingCredentials)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: auth0 client id and secret", shared.ErrMissingCredentials)
	}

	issuer := strings.TrimRight(cfg.Issuer, "/")
	oauth := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  issuer + "/authorize",
			TokenURL: issuer + "/oauth/token",
		},
	}

	return &Gateway{
		oauth:    oauth,
		issuer:   issuer,
		clientID: cfg.ClientID,
		audience: cfg.Audience,
		enricher: enricher,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

// OAuthConfig returns the underlying OAuth2 config for callback handlers.
func (g *Gateway) OAuthConfig() *oauth2.Config {
	return g.oauth
}

// AuthCodeURL returns the provider authorization URL for the given state.
func (g *Gateway) AuthCodeURL(state string) string {
	opts := []oauth2.AuthCodeOption{}
	if g.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", g.audience))
	}
	return g.oauth.AuthCodeURL(state, opts...)
}

// SignIn exchanges an authorization code for provider tokens, enriches the
// session with application roles, persists the access token, and returns the
// materialized session.
func (g *Gateway) SignIn(ctx context.Context, code string) (*Session, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}

	return g.Establish(ctx, token)
}

// Establish materializes a session from an already-exchanged provider token.
func (g *Gateway) Establish(ctx context.Context, token *oauth2.Token) (*Session, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("%w: provider response missing id_token", shared.ErrAuthFailed)
	}

	profile, err := parseIDToken(idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	// Enrichment runs exactly once per sign-in. A failure here aborts the
	// whole sign-in rather than granting an authenticated session with an
	// empty role set.
	user, err := g.enricher.SyncFromAuth0(ctx, services.SyncUserRequest{
		Auth0UserID: profile.subject,
		Email:       profile.email,
		Name:        profile.name,
		URLAvatar:   profile.picture,
	})
	if err != nil {
		g.warnf("sign-in aborted, role enrichment failed for %s: %v", profile.subject, err)
		return nil, fmt.Errorf("%w: %v", shared.ErrEnrichmentFailed, err)
	}

	if g.tokens != nil {
		if err := g.tokens.SetToken(token.AccessToken); err != nil {
			g.warnf("failed to persist access token: %v", err)
		}
	}

	return &Session{
		SubjectID:   profile.subject,
		Email:       profile.email,
		Name:        profile.name,
		AvatarURL:   profile.picture,
		Roles:       user.RoleCodes(),
		AccessToken: token.AccessToken,
		IDToken:     idToken,
	}, nil
}

// SignOut clears locally persisted auth state and returns the provider
// logout URL that also terminates the Auth0 SSO session.
func (g *Gateway) SignOut(returnTo string) (string, error) {
	if g.tokens != nil {
		if err := g.tokens.ClearAuth(); err != nil {
			return "", fmt.Errorf("failed to clear auth state: %w", err)
		}
	}
	return g.LogoutURL(returnTo), nil
}

// LogoutURL builds the provider's federated logout endpoint. Without this
// redirect the SSO cookie survives and the next sign-in auto-completes.
func (g *Gateway) LogoutURL(returnTo string) string {
	logout, _ := url.Parse(g.issuer + "/v2/logout")
	query := logout.Query()
	query.Set("client_id", g.clientID)
	query.Set("returnTo", returnTo)
	logout.RawQuery = query.Encode()
	return logout.String()
}

func (g *Gateway) warnf(format string, args ...any) {
	if g.logger != nil {
		g.logger.Warnf(format, args...)
	}
}

// idProfile is the subset of OIDC claims the gateway consumes.
type idProfile struct {
	subject string
	email   string
	name    string
	picture string
}

// parseIDToken extracts profile claims from the provider ID token. The token
// arrives directly from the provider's token endpoint over TLS, so claims are
// read without a JWKS round-trip.
func parseIDToken(raw string) (*idProfile, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("malformed id_token: %w", err)
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, fmt.Errorf("id_token missing sub claim")
	}

	profile := &idProfile{subject: subject}
	profile.email, _ = claims["email"].(string)
	profile.name, _ = claims["name"].(string)
	profile.picture, _ = claims["picture"].(string)

	return profile, nil
}
