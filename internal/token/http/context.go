// Package http provides session endpoints and the authentication middleware
// that resolves a bearer access token into an authorization subject.
package http

import (
	"context"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
)

// subjectKey is a context key type for storing authenticated subjects.
type subjectKey struct{}

// WithSubject stores the authenticated subject in the context. Called by the
// authentication middleware after access token validation.
func WithSubject(ctx context.Context, subject authzDomain.Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// GetSubject retrieves the authenticated subject from the context. Returns
// (subject, true) when set, or a zero subject and false otherwise.
func GetSubject(ctx context.Context) (authzDomain.Subject, bool) {
	subject, ok := ctx.Value(subjectKey{}).(authzDomain.Subject)
	return subject, ok
}
