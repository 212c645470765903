package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// BackendOptions selects and authenticates the backend of a command.
type BackendOptions struct {
	// LocalDir forces the local backend rooted at this directory.
	LocalDir string
	// Token is injected instead of the stored session.
	Token string
}

// backendSession is a selected backend with a signed-in user.
type backendSession struct {
	backend repositories.BackendRepository
	info    *entities.RepositoryInfo
	user    *entities.User
}

// connect selects the backend and signs in with an injected token or the
// stored session. It never starts an interactive flow.
func connect(
	ctx context.Context,
	registry *infraRepos.BackendRegistry,
	settings *entities.Settings,
	opts BackendOptions,
) (*backendSession, error) {
	backend, info, err := registry.Select(settings, opts.LocalDir)
	if err != nil {
		return nil, err
	}

	token := resolveToken(opts.Token, settings)
	user, err := backend.SignIn(ctx, entities.SignInOptions{Token: token})
	if err != nil {
		if errors.Is(err, entities.ErrNotSignedIn) {
			return nil, fmt.Errorf("%w (set %s or run the signin command)", err, tokenEnvHint(backend.Name()))
		}
		return nil, fmt.Errorf("failed to sign in to %s: %w", backend.Label(), err)
	}

	return &backendSession{backend: backend, info: info, user: user}, nil
}

// resolveToken picks the first token among the explicit option, the site
// configuration and the backend's environment variables.
func resolveToken(explicit string, settings *entities.Settings) string {
	if explicit != "" {
		return explicit
	}
	if settings.Backend.Token != "" {
		return settings.Backend.Token
	}
	return resolveTokenFromEnv(settings.Backend.Name)
}

func resolveTokenFromEnv(backendName string) string {
	switch backendName {
	case entities.BackendGitHub:
		if t := os.Getenv("GITHUB_TOKEN"); t != "" {
			return t
		}
		return os.Getenv("GH_TOKEN")
	case entities.BackendGitLab:
		if t := os.Getenv("GITLAB_TOKEN"); t != "" {
			return t
		}
		return os.Getenv("GL_TOKEN")
	case entities.BackendGitea, entities.BackendForgejo:
		if t := os.Getenv("GITEA_TOKEN"); t != "" {
			return t
		}
		return os.Getenv("FORGEJO_TOKEN")
	default:
		return ""
	}
}

func tokenEnvHint(backendName string) string {
	switch backendName {
	case entities.BackendGitHub:
		return "GITHUB_TOKEN or GH_TOKEN"
	case entities.BackendGitLab:
		return "GITLAB_TOKEN or GL_TOKEN"
	case entities.BackendGitea, entities.BackendForgejo:
		return "GITEA_TOKEN or FORGEJO_TOKEN"
	default:
		return "a token"
	}
}

// commitRequest is what commitChanges needs to render the message and commit.
type commitRequest struct {
	changes        []entities.FileChange
	commitType     entities.CommitType
	collectionName string
	skipCI         *bool
}

// commitChanges renders the commit message and commits the changes.
func (s *backendSession) commitChanges(
	ctx context.Context,
	settings *entities.Settings,
	request commitRequest,
) (*entities.CommitResults, string, error) {
	message := entities.CreateCommitMessage(request.changes, entities.CommitMessageOptions{
		CommitType:     request.commitType,
		CollectionName: request.collectionName,
		User:           s.user,
		SkipCI:         request.skipCI,
		Backend:        settings.Backend,
	})

	results, err := s.backend.CommitChanges(ctx, request.changes, entities.CommitOptions{
		CommitType: request.commitType,
		Message:    message,
		User:       s.user,
	})
	if err != nil {
		return nil, message, fmt.Errorf("failed to commit to %s: %w", s.backend.Label(), err)
	}
	return results, message, nil
}
