package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// DeleteController handles the "delete" subcommand.
type DeleteController struct {
	command commands.DeleteEntries
}

// NewDeleteController creates a new DeleteController.
func NewDeleteController(command commands.DeleteEntries) *DeleteController {
	return &DeleteController{command: command}
}

func (it *DeleteController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "delete <slug>...",
		Short: "Delete entries of a collection",
		Long: `Delete every locale file of the given entries in a single commit.
For file collections, pass the file names instead of slugs.`,
		Args: cobra.MinimumNArgs(1),
	}
}

func (it *DeleteController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagCollection, "", "Collection of the entries (required)")
	addSkipCIFlag(cmd)
}

func (it *DeleteController) Execute(cmd *cobra.Command, args []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	collectionName, _ := cmd.Flags().GetString(flagCollection)
	if collectionName == "" {
		return fmt.Errorf("%w: --collection is required", errMissingArguments)
	}

	result, err := it.command.Execute(contextOf(cmd), settings, commands.DeleteEntriesOptions{
		BackendOptions: opts.BackendOptions(),
		CollectionName: collectionName,
		Slugs:          args,
		SkipCI:         skipCIFlag(cmd),
	})
	if err != nil {
		logger.Errorf("Failed to delete entries: %v", err)
		return err
	}
	logCommit(result)
	return nil
}
