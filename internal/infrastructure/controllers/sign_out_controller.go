package controllers

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// SignOutController handles the "signout" subcommand.
type SignOutController struct {
	command commands.SignOut
}

// NewSignOutController creates a new SignOutController.
func NewSignOutController(command commands.SignOut) *SignOutController {
	return &SignOutController{command: command}
}

func (it *SignOutController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "signout",
		Short: "Forget the stored session of the configured backend",
		Args:  cobra.NoArgs,
	}
}

func (it *SignOutController) Execute(cmd *cobra.Command, _ []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err = it.command.Execute(contextOf(cmd), settings, opts.BackendOptions()); err != nil {
		logger.Errorf("Sign-out failed: %v", err)
		return err
	}
	logger.Info("Signed out")
	return nil
}
