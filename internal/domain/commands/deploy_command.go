package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// Deploy is the interface for the deploy command.
type Deploy interface {
	Execute(ctx context.Context, settings *entities.Settings, opts BackendOptions) error
}

// DeployCommand asks the hosting service to start a site deployment.
type DeployCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewDeployCommand creates a new DeployCommand.
func NewDeployCommand(registry *infraRepos.BackendRegistry) *DeployCommand {
	return &DeployCommand{registry: registry}
}

func (it *DeployCommand) Execute(ctx context.Context, settings *entities.Settings, opts BackendOptions) error {
	session, err := connect(ctx, it.registry, settings, opts)
	if err != nil {
		return err
	}

	trigger, ok := session.backend.(repositories.DeploymentTrigger)
	if !ok {
		return fmt.Errorf("%s cannot trigger deployments", session.backend.Label())
	}
	if err = trigger.TriggerDeployment(ctx); err != nil {
		return err
	}

	logger.Infof("Triggered a deployment of %s", session.info.FullName())
	return nil
}
