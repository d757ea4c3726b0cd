package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAuthFailed covers every authentication failure; callers never learn
// whether the token was unknown or malformed.
var ErrAuthFailed = errors.New("authentication failed")

// Provider resolves a bearer token to the user who owns it.
type Provider interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}
