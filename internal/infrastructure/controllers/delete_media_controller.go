package controllers

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// DeleteMediaController handles the "delete-media" subcommand.
type DeleteMediaController struct {
	command commands.DeleteMedia
}

// NewDeleteMediaController creates a new DeleteMediaController.
func NewDeleteMediaController(command commands.DeleteMedia) *DeleteMediaController {
	return &DeleteMediaController{command: command}
}

func (it *DeleteMediaController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "delete-media <path>...",
		Short: "Delete media files",
		Long:  `Delete media files, given by their repository paths, in a single commit.`,
		Args:  cobra.MinimumNArgs(1),
	}
}

func (it *DeleteMediaController) AddFlags(cmd *cobra.Command) {
	addSkipCIFlag(cmd)
}

func (it *DeleteMediaController) Execute(cmd *cobra.Command, args []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	result, err := it.command.Execute(contextOf(cmd), settings, commands.DeleteMediaOptions{
		BackendOptions: opts.BackendOptions(),
		Paths:          args,
		SkipCI:         skipCIFlag(cmd),
	})
	if err != nil {
		logger.Errorf("Failed to delete media: %v", err)
		return err
	}
	logCommit(result)
	return nil
}
