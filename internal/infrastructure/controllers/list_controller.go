package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

const (
	outputTable    = "table"
	outputJSON     = "json"
	outputMarkdown = "markdown"

	maxPathWidth = 60
)

// ListController handles the "list" subcommand.
type ListController struct {
	command commands.ListFiles
}

// NewListController creates a new ListController.
func NewListController(command commands.ListFiles) *ListController {
	return &ListController{command: command}
}

// GetBind returns the Cobra command metadata for the list controller.
func (it *ListController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "list",
		Short: "List the entries and media files of the repository",
		Long: `List the entry files of every configured collection, grouped by slug and
locale, and the files of the media folders, as read from the configured branch.`,
		Args: cobra.NoArgs,
	}
}

// AddFlags adds list-specific flags.
func (it *ListController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagCollection, "", "Only list entries of this collection")
	cmd.Flags().Bool("media", false, "Also list media files")
	cmd.Flags().StringP("output", "o", outputTable, "Output format: table, json, or markdown")
}

// listRow is one localized entry file.
type listRow struct {
	Collection string `json:"collection"`
	Slug       string `json:"slug"`
	Locale     string `json:"locale"`
	Path       string `json:"path"`
	SHA        string `json:"sha"`
}

// Execute prints the repository content.
func (it *ListController) Execute(cmd *cobra.Command, _ []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	collectionName, _ := cmd.Flags().GetString(flagCollection)
	withMedia, _ := cmd.Flags().GetBool("media")
	output, _ := cmd.Flags().GetString("output")

	if collectionName != "" {
		if _, ok := settings.CollectionByName(collectionName); !ok {
			return fmt.Errorf("%w: unknown collection %q", entities.ErrInvalidConfig, collectionName)
		}
	}

	result, err := it.command.Execute(contextOf(cmd), settings, opts.BackendOptions())
	if err != nil {
		return err
	}

	rows := entryRows(settings, result.Entries, collectionName)
	if withMedia {
		for _, file := range result.Media {
			rows = append(rows, listRow{Collection: "(media)", Path: file.Path, SHA: file.SHA})
		}
	}

	out := cmd.OutOrStdout()
	switch output {
	case outputJSON:
		return printJSON(out, rows)
	case outputMarkdown:
		printMarkdown(out, rows)
	default:
		printTable(out, rows, result.Repository)
	}
	return nil
}

func entryRows(settings *entities.Settings, index *entities.EntryIndex, collectionName string) []listRow {
	var rows []listRow
	for _, collection := range settings.Collections {
		if collectionName != "" && collection.Name != collectionName {
			continue
		}
		for _, entry := range index.Entries(collection.Name) {
			locales := make([]string, 0, len(entry.Locales))
			for locale := range entry.Locales {
				locales = append(locales, locale)
			}
			sort.Strings(locales)
			for _, locale := range locales {
				localized := entry.Locales[locale]
				rows = append(rows, listRow{
					Collection: collection.Name,
					Slug:       entry.Slug,
					Locale:     locale,
					Path:       localized.Path,
					SHA:        localized.SHA,
				})
			}
		}
	}
	return rows
}

func printJSON(out io.Writer, rows []listRow) error {
	if rows == nil {
		rows = []listRow{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func printTable(out io.Writer, rows []listRow, repository *entities.RepositoryInfo) {
	if repository != nil {
		fmt.Fprintf(out, "Repository: %s (branch %s)\n\n", repository.FullName(), repository.Branch)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No entries found.")
		return
	}

	collectionW := len("Collection")
	slugW := len("Slug")
	localeW := len("Locale")
	for _, row := range rows {
		collectionW = max(collectionW, len(row.Collection))
		slugW = max(slugW, len(row.Slug))
		localeW = max(localeW, len(row.Locale))
	}

	fmt.Fprintf(out, "%-*s  %-*s  %-*s  %s\n", collectionW, "Collection", slugW, "Slug", localeW, "Locale", "Path")
	fmt.Fprintln(out, strings.Repeat("-", collectionW+slugW+localeW+maxPathWidth/2))
	for _, row := range rows {
		fmt.Fprintf(out, "%-*s  %-*s  %-*s  %s\n",
			collectionW, row.Collection,
			slugW, row.Slug,
			localeW, row.Locale,
			truncate(row.Path, maxPathWidth))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d file(s)\n", len(rows))
}

func printMarkdown(out io.Writer, rows []listRow) {
	fmt.Fprintln(out, "| Collection | Slug | Locale | Path |")
	fmt.Fprintln(out, "|------------|------|--------|------|")
	for _, row := range rows {
		fmt.Fprintf(out, "| %s | %s | %s | `%s` |\n", row.Collection, row.Slug, row.Locale, row.Path)
	}
}

func truncate(value string, width int) string {
	if len(value) <= width {
		return value
	}
	return "..." + value[len(value)-width+3:]
}
