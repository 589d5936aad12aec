package cli

import (
	"fmt"
	"time"

	"courier-track/internal/domain/user"
	"courier-track/internal/general/jwt"
)

// GenerateUserToken mints a short-lived JWT for a seeded user.
//
// Typical use (dev-only):
//
//	token, err := cli.GenerateUserToken(secret, 2*time.Hour,
//	    "550e8400-e29b-41d4-a716-446655440001", "DRIVER")
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GenerateUserToken(secret string, ttl time.Duration, userID string, roleStr string) (string, error) {
	// parse and validate the role
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", fmt.Errorf("invalid role %q: %w", roleStr, err)
	}

	// generate the JWT token given the user ID and its role
	token, err := jwt.NewManager(secret).IssueUserToken(userID, role, ttl)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}
