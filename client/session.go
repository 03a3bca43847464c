package client

import (
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// ErrNoToken is returned when the session has no bearer token. Callers
// tolerate it: unauthenticated requests are attempted and the server decides.
var ErrNoToken = errors.New("no session token")

// Identity is the acting dashboard user as described by the session token.
type Identity struct {
	Subject string
	Name    string
	Email   string
}

// Session holds the bearer token handed over by the identity provider. With
// a JWKS configured the token's signature, audience and issuer are verified;
// without one the claims are read as-is, since the provider issued the token
// directly to this session.
type Session struct {
	token    string
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	parser   *jwt.Parser
}

// NewSession builds a session from a raw or "Bearer "-prefixed token. jwks
// may be nil.
func NewSession(token string, jwks *keyfunc.JWKS, audience, issuer string) *Session {
	trimmed := strings.TrimSpace(token)
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "Bearer "))
	return &Session{
		token:    trimmed,
		jwks:     jwks,
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "HS256"})),
	}
}

// Token returns the bearer token, empty when the session is unauthenticated.
func (s *Session) Token() string {
	return s.token
}

// Identity extracts the acting user from the session token.
func (s *Session) Identity() (Identity, error) {
	if s.token == "" {
		return Identity{}, ErrNoToken
	}

	var claims jwt.MapClaims
	if s.jwks != nil {
		parsed, err := s.parser.Parse(s.token, s.jwks.Keyfunc)
		if err != nil {
			return Identity{}, err
		}
		mapped, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return Identity{}, errors.New("invalid claims")
		}
		now := time.Now().Unix()
		if !mapped.VerifyExpiresAt(now, false) {
			return Identity{}, errors.New("token expired")
		}
		if s.audience != "" && !mapped.VerifyAudience(s.audience, false) {
			return Identity{}, errors.New("invalid audience")
		}
		if s.issuer != "" && !mapped.VerifyIssuer(s.issuer, false) {
			return Identity{}, errors.New("invalid issuer")
		}
		claims = mapped
	} else {
		parsed, _, err := jwt.NewParser().ParseUnverified(s.token, jwt.MapClaims{})
		if err != nil {
			return Identity{}, err
		}
		mapped, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return Identity{}, errors.New("invalid claims")
		}
		claims = mapped
	}

	identity := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.Subject = sub
	}
	if identity.Subject == "" {
		return Identity{}, errors.New("missing sub claim")
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}
