package controllers

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// DeployController handles the "deploy" subcommand.
type DeployController struct {
	command commands.Deploy
}

// NewDeployController creates a new DeployController.
func NewDeployController(command commands.Deploy) *DeployController {
	return &DeployController{command: command}
}

func (it *DeployController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "deploy",
		Short: "Trigger a deployment of the site",
		Long: `Send a repository_dispatch event (type headcms-publish) so a CI workflow
can build and publish the site. Only supported by the GitHub backend.`,
		Args: cobra.NoArgs,
	}
}

func (it *DeployController) Execute(cmd *cobra.Command, _ []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err = it.command.Execute(contextOf(cmd), settings, opts.BackendOptions()); err != nil {
		logger.Errorf("Failed to trigger deployment: %v", err)
		return err
	}
	logger.Info("Deployment triggered")
	return nil
}
