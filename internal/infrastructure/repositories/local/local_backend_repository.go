package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/blobs"
)

const (
	backendLabel  = "Local Repository"
	defaultAuthor = "headcms"
	defaultEmail  = "headcms@localhost"
	filePerm      = 0o644
	dirPerm       = 0o755
)

// LocalBackendRepository stores content in a directory on disk. When the
// directory is a Git work tree, every save becomes a local commit.
type LocalBackendRepository struct {
	settings *entities.Settings
	info     *entities.RepositoryInfo
	root     string
	repo     *git.Repository
	user     *entities.User
}

// NewLocalBackendRepository creates the local backend. It keeps no session.
func NewLocalBackendRepository(_ repositories.UserRepository) repositories.BackendRepository {
	return &LocalBackendRepository{}
}

func (r *LocalBackendRepository) Name() string  { return entities.BackendLocal }
func (r *LocalBackendRepository) Label() string { return backendLabel }
func (r *LocalBackendRepository) IsGit() bool   { return false }

func (r *LocalBackendRepository) Endpoints() *entities.ApiEndpointConfig {
	return &entities.ApiEndpointConfig{}
}

func (r *LocalBackendRepository) Init(settings *entities.Settings) (*entities.RepositoryInfo, error) {
	backend := settings.Backend
	if backend.Name != entities.BackendLocal && backend.Name != entities.BackendTestRepo {
		return nil, nil //nolint:nilnil // not the configured backend
	}

	root := backend.LocalRoot
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid local directory %q: %w", entities.ErrInvalidConfig, root, err)
	}
	stat, err := os.Stat(absRoot)
	if err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("%w: local directory %q does not exist", entities.ErrInvalidConfig, absRoot)
	}

	r.settings = settings
	r.root = absRoot
	r.repo = nil

	branch := ""
	repo, err := git.PlainOpen(absRoot)
	switch {
	case err == nil:
		r.repo = repo
		if head, headErr := repo.Head(); headErr == nil {
			branch = head.Name().Short()
		}
	case errors.Is(err, git.ErrRepositoryNotExists):
		logger.Debugf("%s is not a Git work tree, saving files without commits", absRoot)
	default:
		return nil, fmt.Errorf("failed to open Git repository at %q: %w", absRoot, err)
	}

	r.info = entities.NewRepositoryInfo(entities.RepositoryInfoInput{
		Service: entities.BackendLocal,
		Label:   backendLabel,
		Repo:    filepath.Base(absRoot),
		Branch:  branch,
	})
	return r.info, nil
}

// SignIn needs no credentials; the user is derived from the Git config when available.
func (r *LocalBackendRepository) SignIn(
	_ context.Context,
	_ entities.SignInOptions,
) (*entities.User, error) {
	user := &entities.User{
		BackendName: entities.BackendLocal,
		ID:          "local",
		Name:        defaultAuthor,
		Login:       defaultAuthor,
		Email:       defaultEmail,
	}
	if r.repo != nil {
		if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
			if cfg.User.Name != "" {
				user.Name = cfg.User.Name
			}
			if cfg.User.Email != "" {
				user.Email = cfg.User.Email
			}
		}
	}
	r.user = user
	return user, nil
}

func (r *LocalBackendRepository) SignOut(_ context.Context) error {
	r.user = nil
	return nil
}

func (r *LocalBackendRepository) FetchFiles(ctx context.Context) ([]entities.RepositoryFile, error) {
	if r.settings == nil {
		return nil, fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}

	var files []entities.RepositoryFile
	err := filepath.WalkDir(r.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if entry.Name() == ".git" || entry.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(r.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		kind := r.settings.ClassifyPath(rel)
		if kind == entities.FileKindOther {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		file := entities.RepositoryFile{Path: rel, SHA: blobs.SHA(data), Size: int64(len(data))}
		if kind == entities.FileKindEntry {
			file.Text = string(data)
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %q: %w", r.root, err)
	}
	return files, nil
}

func (r *LocalBackendRepository) FetchBlob(
	_ context.Context,
	file entities.RepositoryFile,
) ([]byte, error) {
	fullPath, err := r.resolve(file.Path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", file.Path, err)
	}
	return data, nil
}

// CommitChanges writes the changes to disk and, in a Git work tree, stages
// and commits them with the given message.
func (r *LocalBackendRepository) CommitChanges(
	_ context.Context,
	changes []entities.FileChange,
	options entities.CommitOptions,
) (*entities.CommitResults, error) {
	if r.settings == nil {
		return nil, fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}

	results := &entities.CommitResults{}
	var touched, removed []string

	for _, change := range changes {
		switch change.Action {
		case entities.FileDelete:
			if err := r.removeFile(change.Path); err != nil {
				return nil, err
			}
			removed = append(removed, change.Path)
			continue
		case entities.FileMove:
			if change.PreviousPath != "" && change.PreviousPath != change.Path {
				if err := r.removeFile(change.PreviousPath); err != nil {
					return nil, err
				}
				removed = append(removed, change.PreviousPath)
			}
		case entities.FileCreate, entities.FileUpdate:
		}

		content := change.Content()
		if err := r.writeFile(change.Path, content); err != nil {
			return nil, err
		}
		touched = append(touched, change.Path)
		results.Files = append(results.Files, entities.CommittedFile{Path: change.Path, SHA: blobs.SHA(content)})
	}

	if r.repo == nil {
		logger.Infof("Wrote %d change(s) under %s", len(changes), r.root)
		return results, nil
	}

	sha, err := r.commit(touched, removed, options)
	if err != nil {
		return nil, err
	}
	results.SHA = sha
	logger.Infof("Committed %d change(s) to %s", len(changes), r.root)
	return results, nil
}

func (r *LocalBackendRepository) commit(touched, removed []string, options entities.CommitOptions) (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	for _, path := range touched {
		if _, err = worktree.Add(strings.TrimPrefix(path, "/")); err != nil {
			return "", fmt.Errorf("failed to stage %q: %w", path, err)
		}
	}
	for _, path := range removed {
		if _, err = worktree.Remove(strings.TrimPrefix(path, "/")); err != nil {
			logger.Debugf("File %q was not tracked: %v", path, err)
		}
	}

	author := r.user
	if options.User != nil {
		author = options.User
	}
	signature := &object.Signature{Name: defaultAuthor, Email: defaultEmail, When: time.Now()}
	if author != nil {
		signature.Name = author.DisplayName()
		if author.Email != "" {
			signature.Email = author.Email
		}
	}

	hash, err := worktree.Commit(options.Message, &git.CommitOptions{Author: signature})
	if errors.Is(err, git.ErrEmptyCommit) {
		logger.Debugf("Nothing to commit in %s", r.root)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

func (r *LocalBackendRepository) writeFile(path string, content []byte) error {
	fullPath, err := r.resolve(path)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(fullPath), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", path, err)
	}
	if err = os.WriteFile(fullPath, content, filePerm); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func (r *LocalBackendRepository) removeFile(path string) error {
	fullPath, err := r.resolve(path)
	if err != nil {
		return err
	}
	if err = os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

// resolve maps a repository path into the root, refusing paths that escape it.
func (r *LocalBackendRepository) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: path %q is outside the local directory", entities.ErrInvalidConfig, path)
	}
	return filepath.Join(r.root, clean), nil
}
