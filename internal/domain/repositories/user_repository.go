package repositories

import (
	"context"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// UserRepository persists signed-in users between runs, keyed by the
// repository's DatabaseName ("<service>:<owner>/<repo>").
type UserRepository interface {
	// Get returns the stored user of a repository, or (nil, nil) when none is stored.
	Get(ctx context.Context, databaseName string) (*entities.User, error)
	// Save stores the user under user.DatabaseName.
	Save(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, databaseName string) error
}
