package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// SignIn is the interface for the signin command.
type SignIn interface {
	Execute(ctx context.Context, settings *entities.Settings, opts SignInOptions) (*SignInResult, error)
}

// SignInOptions holds runtime options for signing in.
type SignInOptions struct {
	BackendOptions
	// Interactive starts the browser authorization flow when no token is available.
	Interactive bool
	// OpenURL presents the authorization URL; nil logs it.
	OpenURL func(authURL string) error
}

// SignInResult describes the established session.
type SignInResult struct {
	User       *entities.User
	Repository *entities.RepositoryInfo
}

// SignInCommand authenticates against the configured backend and verifies
// that the user can write to the repository.
type SignInCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewSignInCommand creates a new SignInCommand.
func NewSignInCommand(registry *infraRepos.BackendRegistry) *SignInCommand {
	return &SignInCommand{registry: registry}
}

// Execute signs in with an injected token, the stored session or, when
// requested, the interactive flow.
func (it *SignInCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts SignInOptions,
) (*SignInResult, error) {
	backend, info, err := it.registry.Select(settings, opts.LocalDir)
	if err != nil {
		return nil, err
	}

	token := opts.Token
	if !opts.Interactive {
		token = resolveToken(opts.Token, settings)
	}

	user, err := backend.SignIn(ctx, entities.SignInOptions{
		Token:       token,
		Interactive: opts.Interactive && token == "",
		OpenURL:     opts.OpenURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in to %s: %w", backend.Label(), err)
	}

	if checker, ok := backend.(repositories.RepositoryAccessChecker); ok {
		if err = checker.CheckRepositoryAccess(ctx); err != nil {
			return nil, err
		}
	}

	logger.Infof("Signed in to %s as %s", backend.Label(), user.DisplayName())
	return &SignInResult{User: user, Repository: info}, nil
}
