package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
	errTokenRevoked         = errors.New("token revoked")
)

const bearerPrefix = "Bearer "

// Revocations is where logged out token ids are kept
type Revocations interface {
	RevokeToken(jti string, expiresAt time.Time) error
	IsTokenRevoked(jti string) (bool, error)
}

// Auth issues and validates HS256 bearer tokens
type Auth struct {
	secret  []byte
	ttl     time.Duration
	revoked Revocations
	parser  *jwt.Parser
	now     func() time.Time
}

// NewAuth creates an Auth signing with secret. Tokens live for ttl.
func NewAuth(secret string, ttl time.Duration, revoked Revocations) *Auth {
	if secret == "" {
		panic("server.NewAuth: empty signing secret")
	}
	return &Auth{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:     time.Now,
	}
}

// Issue signs a token for userID with a fresh token id
func (a *Auth) Issue(userID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a raw token and checks its signature, expiry and revocation
func (a *Auth) Verify(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("token has no expiry")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing sub")
	}
	if claims.ID != "" && a.revoked != nil {
		revoked, err := a.revoked.IsTokenRevoked(claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errTokenRevoked
		}
	}
	return claims, nil
}

// Revoke invalidates the token described by claims
func (a *Auth) Revoke(claims *jwt.RegisteredClaims) error {
	if claims.ID == "" || a.revoked == nil {
		return nil
	}
	return a.revoked.RevokeToken(claims.ID, claims.ExpiresAt.Time)
}

func bearerTokenFromString(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingAuthorization
	}
	if len(raw) <= len(bearerPrefix) || !strings.HasPrefix(raw, bearerPrefix) {
		return "", errBadAuthorization
	}
	token := raw[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

const claimsKey = "claims"

// RequireAuth rejects requests without a valid bearer token and stores the
// claims on the context for handlers
func (a *Auth) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerTokenFromString(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			claims, err := a.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) *jwt.RegisteredClaims {
	claims, _ := c.Get(claimsKey).(*jwt.RegisteredClaims)
	return claims
}

func userIDFrom(c echo.Context) string {
	if claims := claimsFrom(c); claims != nil {
		return claims.Subject
	}
	return ""
}
