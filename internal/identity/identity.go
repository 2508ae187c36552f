package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrInactiveUser = errors.New("inactive_user")
)

// Identity is the authenticated caller as the credential subsystem hands
// it over. Privilege flags are read from the user record at resolution
// time, never trusted from the token itself.
type Identity struct {
	UserID        uuid.UUID
	Email         string
	Superuser     bool
	PlatformStaff bool
}

// Resolver turns a bearer token into an Identity.
type Resolver interface {
	ResolveToken(ctx context.Context, token string) (*Identity, error)
}

type ctxKey struct{}

func With(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}
