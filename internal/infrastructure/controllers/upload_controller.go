package controllers

import (
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// UploadController handles the "upload" subcommand.
type UploadController struct {
	command commands.UploadMedia
}

// NewUploadController creates a new UploadController.
func NewUploadController(command commands.UploadMedia) *UploadController {
	return &UploadController{command: command}
}

func (it *UploadController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "upload <file>...",
		Short: "Upload media files",
		Long: `Commit local files into the media folder of the site, or of a collection
when --collection is given. Existing files with the same name are replaced.`,
		Args: cobra.MinimumNArgs(1),
	}
}

func (it *UploadController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagCollection, "", "Use the media folder of this collection")
	addSkipCIFlag(cmd)
}

func (it *UploadController) Execute(cmd *cobra.Command, args []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	collectionName, _ := cmd.Flags().GetString(flagCollection)

	files := make([]commands.MediaFile, 0, len(args))
	for _, path := range args {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", path, readErr)
		}
		files = append(files, commands.MediaFile{Name: filepath.Base(path), Data: data})
	}

	result, err := it.command.Execute(contextOf(cmd), settings, commands.UploadMediaOptions{
		BackendOptions: opts.BackendOptions(),
		CollectionName: collectionName,
		Files:          files,
		SkipCI:         skipCIFlag(cmd),
	})
	if err != nil {
		logger.Errorf("Failed to upload media: %v", err)
		return err
	}
	logCommit(result)
	return nil
}
