package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
)

const (
	keyPrefix     = "user"
	sessionDirEnv = "HEADCMS_SESSION_DIR"
	dirMode       = 0o700
)

// BadgerUserRepository stores signed-in users in a badger database. The
// on-disk database is opened per operation so that several CLI invocations
// never hold the directory lock for longer than a single read or write.
type BadgerUserRepository struct {
	dir string
	db  *badger.DB // set for in-memory stores only
}

var _ repositories.UserRepository = (*BadgerUserRepository)(nil)

// NewBadgerUserRepository creates a store under dir.
func NewBadgerUserRepository(dir string) *BadgerUserRepository {
	return &BadgerUserRepository{dir: dir}
}

// NewDefaultUserRepository creates a store under $HEADCMS_SESSION_DIR or
// ~/.config/headcms/session.
func NewDefaultUserRepository() repositories.UserRepository {
	return NewBadgerUserRepository(DefaultDir())
}

// NewInMemoryUserRepository creates a store that lives as long as the process.
func NewInMemoryUserRepository() (*BadgerUserRepository, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory session store: %w", err)
	}
	return &BadgerUserRepository{db: db}, nil
}

// DefaultDir returns the session directory used when none is configured.
func DefaultDir() string {
	if dir := os.Getenv(sessionDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "headcms", "session")
	}
	return filepath.Join(home, ".config", "headcms", "session")
}

// Close releases an in-memory store.
func (r *BadgerUserRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *BadgerUserRepository) Get(_ context.Context, databaseName string) (*entities.User, error) {
	var user *entities.User
	err := r.withDB(func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(makeKey(databaseName))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				user = &entities.User{}
				return json.Unmarshal(val, user)
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read session for %q: %w", databaseName, err)
	}
	return user, nil
}

func (r *BadgerUserRepository) Save(_ context.Context, user *entities.User) error {
	if user == nil || user.DatabaseName == "" {
		return errors.New("user database name cannot be empty")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}

	err = r.withDB(func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			return txn.Set(makeKey(user.DatabaseName), data)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save session for %q: %w", user.DatabaseName, err)
	}
	return nil
}

func (r *BadgerUserRepository) Delete(_ context.Context, databaseName string) error {
	err := r.withDB(func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			return txn.Delete(makeKey(databaseName))
		})
	})
	if err != nil {
		return fmt.Errorf("failed to delete session for %q: %w", databaseName, err)
	}
	return nil
}

func (r *BadgerUserRepository) withDB(fn func(db *badger.DB) error) error {
	if r.db != nil {
		return fn(r.db)
	}

	if err := os.MkdirAll(r.dir, dirMode); err != nil {
		return err
	}
	db, err := badger.Open(badger.DefaultOptions(r.dir).WithLogger(nil))
	if err != nil {
		return err
	}
	fnErr := fn(db)
	if closeErr := db.Close(); closeErr != nil && fnErr == nil {
		return closeErr
	}
	return fnErr
}

func makeKey(databaseName string) []byte {
	return []byte(fmt.Sprintf("%s:%s", keyPrefix, databaseName))
}
