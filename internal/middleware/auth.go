// Package middleware provides authentication, logging, rate limiting and tracing middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionCookieName is the HttpOnly cookie carrying the session token.
	SessionCookieName = "photoshare_session"

	tokenIssuer   = "photoshare-api"
	tokenAudience = "photoshare-client"
)

// ErrTokenRevoked is returned for tokens whose jti was revoked at logout.
var ErrTokenRevoked = errors.New("token has been revoked")

// SessionClaims is the JWT payload of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the canonical identity carried in the subject claim.
func (c *SessionClaims) UserID() (models.ID, error) {
	return models.ParseID(c.Subject)
}

// Sessions issues, verifies and revokes session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

// NewSessions builds a session manager. rdb may be nil, in which case
// revocation is not tracked.
func NewSessions(cfg *config.Config, rdb *redis.Client) *Sessions {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Sessions{secret: []byte(cfg.JWTSecret), ttl: ttl, rdb: rdb}
}

// TTL is the lifetime of issued tokens.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for userID.
func (s *Sessions) Issue(userID models.ID) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies signature, issuer, audience, expiry and revocation.
func (s *Sessions) Parse(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.ID != "" && s.rdb != nil {
		revoked, err := s.rdb.Exists(ctx, revocationKey(claims.ID)).Result()
		if err == nil && revoked > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists the token's jti until it would have expired anyway.
func (s *Sessions) Revoke(ctx context.Context, claims *SessionClaims) error {
	if s.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := s.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revocationKey(claims.ID), "1", ttl).Err()
}

func revocationKey(jti string) string {
	return "blacklist:" + jti
}

// TokenFromRequest reads the session token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookieName)
}

// authenticate resolves the caller, storing identity and claims in locals.
func (s *Sessions) authenticate(c *fiber.Ctx) error {
	tokenString := TokenFromRequest(c)
	if tokenString == "" {
		return models.NewUnauthenticatedError("Authentication required")
	}

	claims, err := s.Parse(c.UserContext(), tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return models.NewUnauthenticatedError("Token has been revoked")
		}
		return models.NewUnauthenticatedError("Invalid or expired token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.NewUnauthenticatedError("Invalid subject claim")
	}

	c.Locals("userID", userID)
	c.Locals("session", claims)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
	return nil
}

// RequireAuth rejects requests without a valid session with 401.
func (s *Sessions) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.authenticate(c); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

// OptionalAuth resolves the caller when a valid session is presented and
// otherwise continues anonymously.
func (s *Sessions) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if TokenFromRequest(c) != "" {
			_ = s.authenticate(c)
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated identity stored by the auth middleware.
func CurrentUserID(c *fiber.Ctx) (models.ID, bool) {
	id, ok := c.Locals("userID").(models.ID)
	if !ok || id.IsZero() {
		return "", false
	}
	return id, true
}

// CurrentSession returns the verified claims of the current request, if any.
func CurrentSession(c *fiber.Ctx) *SessionClaims {
	claims, _ := c.Locals("session").(*SessionClaims)
	return claims
}
