package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courier-track/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken    = errors.New("authorization token is missing")
	ErrMalformedHeader = errors.New("authorization header must be of form 'Bearer <token>'")
	ErrInvalidToken    = errors.New("token is invalid or expired")
	ErrForbiddenRole   = errors.New("role is not allowed to perform this action")
)

type ctxKey string

const claimsContextKey ctxKey = "couriertrack_claims"

// Manager signs and verifies tokens with a single HS256 secret.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// IssueUserToken creates a signed token for an end user.
func (m *Manager) IssueUserToken(userID string, role user.Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issue token: empty user id")
	}
	if !role.Valid() {
		return "", fmt.Errorf("issue token: %w", user.ErrInvalidRole)
	}
	claims := NewUserClaims(userID, role, ttl)
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies the signature, expiry and role of a raw token.
func (m *Manager) ParseAndValidate(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwtlib.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromAuthorization extracts and validates a token from an
// "Authorization: Bearer <token>" header value.
func (m *Manager) FromAuthorization(header string) (*Claims, error) {
	if header == "" {
		return nil, ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, ErrMalformedHeader
	}
	return m.ParseAndValidate(parts[1])
}

// RoleAllowed reports whether the claims' role is in the allowed set.
// An empty allowed set means any valid role passes.
func RoleAllowed(claims *Claims, allowed ...user.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if claims.Role == r {
			return true
		}
	}
	return false
}

// InjectClaims stores validated claims in the request context.
func InjectClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// FromContext retrieves claims previously stored by the auth middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
