package session

import (
	"context"
	"errors"
)

// ErrNoSession means the store holds nothing, which is a normal logged-out
// state, not a failure.
var ErrNoSession = errors.New("no stored session")

// Store persists the single session blob between gateway restarts.
type Store interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context) (Session, error)
	Delete(ctx context.Context) error
}
