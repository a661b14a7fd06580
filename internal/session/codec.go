package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lyrelabs/lyre/internal/shared"
)

// Claims is the JWT claim set carried by the gateway session cookie.
type Claims struct {
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"at,omitempty"`
	IDToken     string   `json:"idt,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the stateless session JWT (HS256).
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewCodec creates a session codec. The secret must be non-empty; the TTL
// bounds how long an issued session cookie stays valid.
func NewCodec(secret []byte, issuer string, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: session secret is required", shared.ErrInvalidConfig)
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Codec{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Encode serializes the session as a signed JWT.
func (c *Codec) Encode(s *Session) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: nil session", shared.ErrSessionInvalid)
	}

	now := time.Now()
	claims := Claims{
		Email:       s.Email,
		Name:        s.Name,
		AvatarURL:   s.AvatarURL,
		Roles:       s.RoleCodes(),
		AccessToken: s.AccessToken,
		IDToken:     s.IDToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.SubjectID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}

	return signed, nil
}

// Decode verifies a signed session JWT and reconstructs the session.
// Any verification failure (signature, method, expiry) is an error; callers
// treat errors as "unauthenticated".
func (c *Codec) Decode(raw string) (*Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSessionInvalid, err)
	}
	if !token.Valid {
		return nil, shared.ErrSessionInvalid
	}

	return &Session{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		AvatarURL:   claims.AvatarURL,
		Roles:       claims.Roles,
		AccessToken: claims.AccessToken,
		IDToken:     claims.IDToken,
	}, nil
}
