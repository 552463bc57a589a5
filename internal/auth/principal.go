// Package auth carries the current principal through a context and issues
// the signed session tokens that establish it.
package auth

import (
	"context"
	"strings"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
)

type principalKey struct{}

// WithPrincipal returns a context carrying userID as the current principal.
func WithPrincipal(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey{}, strings.TrimSpace(userID))
}

// PrincipalFrom returns the principal in ctx, if any.
func PrincipalFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(principalKey{}).(string)
	return id, ok && id != ""
}

// RequirePrincipal returns the principal in ctx or an AuthError.
func RequirePrincipal(ctx context.Context) (string, error) {
	id, ok := PrincipalFrom(ctx)
	if !ok {
		return "", apperrors.NewAuthError(apperrors.ErrNotAuthenticated)
	}
	return id, nil
}
