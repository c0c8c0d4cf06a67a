package principals

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("principal not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Directory is the user directory the auth core consults. The core never
// writes to it except to create accounts and to replace a credential hash in
// full on password change (a single atomic replace, no partial updates).
type Directory interface {
	Create(ctx context.Context, record *Record) (*Record, error)
	GetByUsername(ctx context.Context, username string) (*Record, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	ReplaceCredential(ctx context.Context, id int64, newHash string) error
	List(ctx context.Context, offset, limit int) ([]*Record, error)
}
