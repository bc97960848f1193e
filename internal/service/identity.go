package service

import (
	"context"
	"strings"
)

// IdentityProvider supplies the acting user, who becomes the author of the
// remarks that user writes.
type IdentityProvider interface {
	UserID(ctx context.Context) (string, error)
}

type userKey struct{}

// WithUser returns a context carrying the acting user.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the acting user stored by WithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey{}).(string)
	return user, ok && strings.TrimSpace(user) != ""
}

// ContextIdentity reads the acting user from the request context, where the
// authentication middleware put it.
type ContextIdentity struct{}

// UserID implements IdentityProvider.
func (ContextIdentity) UserID(ctx context.Context) (string, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	return user, nil
}

// StaticIdentity is a fixed acting user, used by the command line tool.
type StaticIdentity string

// UserID implements IdentityProvider.
func (s StaticIdentity) UserID(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoIdentity
	}
	return string(s), nil
}
