// Package access turns verified token claims into authorization decisions.
// Guards are pure functions of the claims so they can be tested without HTTP.
package access

import (
	"errors"
	"fmt"
	"strings"

	"farmmarket/internal/models"
	"farmmarket/internal/security"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrNotApproved is a Forbidden variant; clients show a different
	// remediation ("wait for approval") than for a wrong role.
	ErrNotApproved = fmt.Errorf("%w: farmer account not yet approved", ErrForbidden)
	ErrNotFarmer   = fmt.Errorf("%w: farmer role required", ErrForbidden)
)

type Verifier interface {
	Verify(token string) (security.Claims, error)
}

// Authenticate extracts and verifies a bearer token from an Authorization
// header value.
func Authenticate(header string, verifier Verifier) (security.Claims, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return security.Claims{}, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return security.Claims{}, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		return security.Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

type Guard interface {
	Check(claims security.Claims) error
}

type GuardFunc func(claims security.Claims) error

func (f GuardFunc) Check(claims security.Claims) error {
	return f(claims)
}

func RequireRole(roles ...models.UserRole) Guard {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return GuardFunc(func(claims security.Claims) error {
		if _, ok := allowed[claims.Role]; !ok {
			return fmt.Errorf("%w: role %q not permitted", ErrForbidden, claims.Role)
		}
		return nil
	})
}

// RequireApprovedFarmer admits only farmers whose token says approved.
var RequireApprovedFarmer Guard = GuardFunc(func(claims security.Claims) error {
	switch claims.Role {
	case models.UserRoleFarmer:
	case models.UserRoleConsumer, models.UserRoleAdmin:
		return ErrNotFarmer
	default:
		return ErrNotFarmer
	}

	switch claims.Status {
	case models.UserStatusApproved:
		return nil
	case models.UserStatusPending:
		return ErrNotApproved
	default:
		return ErrNotApproved
	}
})

// All runs guards in order and stops at the first failure.
func All(guards ...Guard) Guard {
	return GuardFunc(func(claims security.Claims) error {
		for _, g := range guards {
			if err := g.Check(claims); err != nil {
				return err
			}
		}
		return nil
	})
}

// Message is the client-facing part of a guard error, without the
// sentinel prefix.
func Message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrForbidden, ErrUnauthorized} {
		if trimmed, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok && trimmed != "" {
			return trimmed
		}
	}
	return msg
}
