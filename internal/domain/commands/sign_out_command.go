package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// SignOut is the interface for the signout command.
type SignOut interface {
	Execute(ctx context.Context, settings *entities.Settings, opts BackendOptions) error
}

// SignOutCommand forgets the stored session of the configured backend.
type SignOutCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewSignOutCommand creates a new SignOutCommand.
func NewSignOutCommand(registry *infraRepos.BackendRegistry) *SignOutCommand {
	return &SignOutCommand{registry: registry}
}

func (it *SignOutCommand) Execute(ctx context.Context, settings *entities.Settings, opts BackendOptions) error {
	backend, _, err := it.registry.Select(settings, opts.LocalDir)
	if err != nil {
		return err
	}
	if err = backend.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out of %s: %w", backend.Label(), err)
	}
	logger.Infof("Signed out of %s", backend.Label())
	return nil
}
