package controllers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// SaveController handles the "save" subcommand.
type SaveController struct {
	command commands.SaveEntry
}

// NewSaveController creates a new SaveController.
func NewSaveController(command commands.SaveEntry) *SaveController {
	return &SaveController{command: command}
}

// GetBind returns the Cobra command metadata for the save controller.
func (it *SaveController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "save",
		Short: "Create or update an entry",
		Long: `Create or update an entry of a collection and commit it.
The field values are read from --content (a Markdown, YAML, TOML or JSON file,
or "-" for YAML on stdin). With i18n enabled, the values are keyed by locale
and locales left out keep their stored values; --delete-locale removes a
locale file from an existing entry. Without --slug a new entry is created and its slug is generated from the
collection's slug template.`,
		Args: cobra.NoArgs,
	}
}

// AddFlags adds save-specific flags.
func (it *SaveController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagCollection, "", "Collection of the entry (required)")
	cmd.Flags().String("file", "", "File of a file collection")
	cmd.Flags().String("slug", "", "Slug of the existing entry to update")
	cmd.Flags().String("new-slug", "", "Rename the entry to this slug")
	cmd.Flags().String("content", "", `File holding the field values, or "-" for stdin (required)`)
	cmd.Flags().StringSlice("delete-locale", nil, "Delete the files of these locales from the entry")
	addSkipCIFlag(cmd)
}

// Execute saves the entry.
func (it *SaveController) Execute(cmd *cobra.Command, _ []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	collectionName, _ := cmd.Flags().GetString(flagCollection)
	fileName, _ := cmd.Flags().GetString("file")
	slug, _ := cmd.Flags().GetString("slug")
	newSlug, _ := cmd.Flags().GetString("new-slug")
	contentPath, _ := cmd.Flags().GetString("content")
	deleteLocales, _ := cmd.Flags().GetStringSlice("delete-locale")
	if collectionName == "" || contentPath == "" {
		return fmt.Errorf("%w: --collection and --content are required", errMissingArguments)
	}

	content, err := readContent(cmd.InOrStdin(), contentPath)
	if err != nil {
		return err
	}

	result, err := it.command.Execute(contextOf(cmd), settings, commands.SaveEntryOptions{
		BackendOptions: opts.BackendOptions(),
		CollectionName: collectionName,
		FileName:       fileName,
		Slug:           slug,
		NewSlug:        newSlug,
		Content:        content,
		DeleteLocales:  deleteLocales,
		SkipCI:         skipCIFlag(cmd),
	})
	if err != nil {
		logger.Errorf("Failed to save entry: %v", err)
		return err
	}

	logCommit(&commands.CommitResult{Changes: result.Changes, Message: result.Message, Commit: result.Commit})
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Entry.Slug)
	return err
}

// readContent parses a content file, picking the format from its extension.
func readContent(stdin io.Reader, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	content, err := entities.ParseEntry(string(data), contentFormat(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	return content, nil
}

func contentFormat(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "md", "markdown":
		return entities.FormatFrontMatter
	case "toml":
		return entities.FormatTOML
	case "json":
		return entities.FormatJSON
	default:
		return entities.FormatYAML
	}
}
