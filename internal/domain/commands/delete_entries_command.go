package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// DeleteEntries is the interface for the delete command.
type DeleteEntries interface {
	Execute(ctx context.Context, settings *entities.Settings, opts DeleteEntriesOptions) (*CommitResult, error)
}

// DeleteEntriesOptions selects the entries to delete.
type DeleteEntriesOptions struct {
	BackendOptions
	CollectionName string
	// Slugs of folder entries, or file names of a file collection.
	Slugs  []string
	SkipCI *bool
}

// CommitResult describes a commit made by a command.
type CommitResult struct {
	Changes []entities.FileChange
	Message string
	Commit  *entities.CommitResults
}

// DeleteEntriesCommand removes every locale file of one or more entries in
// a single commit.
type DeleteEntriesCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewDeleteEntriesCommand creates a new DeleteEntriesCommand.
func NewDeleteEntriesCommand(registry *infraRepos.BackendRegistry) *DeleteEntriesCommand {
	return &DeleteEntriesCommand{registry: registry}
}

func (it *DeleteEntriesCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts DeleteEntriesOptions,
) (*CommitResult, error) {
	if len(opts.Slugs) == 0 {
		return nil, errors.New("no entries to delete")
	}
	collection, ok := settings.CollectionByName(opts.CollectionName)
	if !ok {
		return nil, fmt.Errorf("collection %q is not configured", opts.CollectionName)
	}

	session, err := connect(ctx, it.registry, settings, opts.BackendOptions)
	if err != nil {
		return nil, err
	}
	index, _, err := session.loadContent(ctx, settings)
	if err != nil {
		return nil, err
	}

	var changes []entities.FileChange
	seen := map[string]bool{}
	for _, slug := range opts.Slugs {
		entry, found := index.Get(collection.Name, slug)
		if !found {
			return nil, fmt.Errorf("entry %q not found in collection %q", slug, collection.Name)
		}
		for _, localized := range sortedLocalized(entry) {
			if seen[localized.Path] {
				continue
			}
			seen[localized.Path] = true
			changes = append(changes, entities.FileChange{
				Action:      entities.FileDelete,
				Slug:        slug,
				Path:        localized.Path,
				PreviousSHA: localized.SHA,
			})
		}
	}

	commit, message, err := session.commitChanges(ctx, settings, commitRequest{
		changes:        changes,
		commitType:     entities.CommitDelete,
		collectionName: collection.Name,
		skipCI:         opts.SkipCI,
	})
	if err != nil {
		return nil, err
	}

	for _, slug := range opts.Slugs {
		index.Remove(collection.Name, slug)
	}
	logger.Infof("Deleted %d entr(ies) from %s", len(opts.Slugs), collection.Name)
	return &CommitResult{Changes: changes, Message: message, Commit: commit}, nil
}

func sortedLocalized(entry *entities.Entry) []entities.LocalizedEntry {
	locales := make([]string, 0, len(entry.Locales))
	for locale := range entry.Locales {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	result := make([]entities.LocalizedEntry, 0, len(locales))
	for _, locale := range locales {
		result = append(result, entry.Locales[locale])
	}
	return result
}
