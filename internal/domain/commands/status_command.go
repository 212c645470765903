package commands

import (
	"context"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// Status is the interface for the status command.
type Status interface {
	Execute(ctx context.Context, settings *entities.Settings, opts BackendOptions) (*StatusResult, error)
}

// StatusResult is the advisory health of the backend's hosting service.
type StatusResult struct {
	Backend string
	Status  entities.HealthStatus
}

// StatusCommand reports the public status of the configured hosting service.
// It needs no session.
type StatusCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewStatusCommand creates a new StatusCommand.
func NewStatusCommand(registry *infraRepos.BackendRegistry) *StatusCommand {
	return &StatusCommand{registry: registry}
}

// Execute only fails for configuration problems; any status lookup problem
// yields entities.HealthUnknown.
func (it *StatusCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts BackendOptions,
) (*StatusResult, error) {
	backend, _, err := it.registry.Select(settings, opts.LocalDir)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Backend: backend.Label(), Status: entities.HealthUnknown}
	if checker, ok := backend.(repositories.StatusChecker); ok {
		result.Status = checker.CheckStatus(ctx)
	}
	return result, nil
}
