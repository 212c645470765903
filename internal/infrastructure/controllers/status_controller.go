package controllers

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// StatusController handles the "status" subcommand.
type StatusController struct {
	command commands.Status
}

// NewStatusController creates a new StatusController.
func NewStatusController(command commands.Status) *StatusController {
	return &StatusController{command: command}
}

// GetBind returns the Cobra command metadata for the status controller.
func (it *StatusController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "status",
		Short: "Show the public service status of the configured backend",
		Long: `Query the public status page of the Git hosting service and print one of
none, minor, major or unknown. Backends without a status page report unknown.`,
		Args: cobra.NoArgs,
	}
}

// Execute prints the status of the hosting service.
func (it *StatusController) Execute(cmd *cobra.Command, _ []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	result, err := it.command.Execute(contextOf(cmd), settings, opts.BackendOptions())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.Backend, result.Status)
	return err
}
