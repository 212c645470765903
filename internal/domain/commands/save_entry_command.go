package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

var errNoLocalizedContent = errors.New("content has no values for any configured locale")

// SaveEntry is the interface for the save command.
type SaveEntry interface {
	Execute(ctx context.Context, settings *entities.Settings, opts SaveEntryOptions) (*SaveEntryResult, error)
}

// SaveEntryOptions describes the entry to create or update.
type SaveEntryOptions struct {
	BackendOptions
	CollectionName string
	// FileName selects the file of a file collection.
	FileName string
	// Slug selects an existing entry; empty creates a new one.
	Slug string
	// NewSlug renames an existing entry.
	NewSlug string
	// Content holds the field values. With i18n enabled it is keyed by locale;
	// locales missing from it keep their stored values.
	Content map[string]any
	// DeleteLocales removes the files of these locales from an existing entry.
	DeleteLocales []string
	SkipCI        *bool
}

// SaveEntryResult describes what was committed.
type SaveEntryResult struct {
	Entry   *entities.Entry
	Changes []entities.FileChange
	Message string
	Commit  *entities.CommitResults
}

// SaveEntryCommand resolves a draft to file changes and commits them.
type SaveEntryCommand struct {
	registry *infraRepos.BackendRegistry
	now      func() time.Time
}

// NewSaveEntryCommand creates a new SaveEntryCommand.
func NewSaveEntryCommand(registry *infraRepos.BackendRegistry) *SaveEntryCommand {
	return &SaveEntryCommand{registry: registry, now: time.Now}
}

func (it *SaveEntryCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts SaveEntryOptions,
) (*SaveEntryResult, error) {
	collection, file, err := findCollection(settings, opts.CollectionName, opts.FileName)
	if err != nil {
		return nil, err
	}

	session, err := connect(ctx, it.registry, settings, opts.BackendOptions)
	if err != nil {
		return nil, err
	}
	index, _, err := session.loadContent(ctx, settings)
	if err != nil {
		return nil, err
	}

	i18n := settings.I18nFor(collection, file)
	values, err := localizedValues(i18n, opts.Content)
	if err != nil {
		return nil, err
	}
	if err = checkDeletedLocales(i18n, values, opts.DeleteLocales); err != nil {
		return nil, err
	}

	now := it.now()
	draft := &entities.EntryDraft{
		Collection:     collection,
		CollectionFile: file,
		IsNew:          true,
		CurrentValues:  values,
	}

	slug, err := it.resolveSlug(settings, index, draft, opts, i18n, now)
	if err != nil {
		return nil, err
	}
	if i18n.Enabled {
		draft.KeepUneditedLocales(i18n.Locales, opts.DeleteLocales)
	}

	built, err := entities.BuildEntryChanges(settings, draft, slug, now)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s entry: %w", collection.Name, err)
	}

	result := &SaveEntryResult{Entry: built.Entry, Changes: built.Changes}
	if len(built.Changes) == 0 {
		logger.Infof("Entry %q of %s is unchanged, nothing to commit", slug, collection.Name)
		return result, nil
	}

	commitType := entities.CommitUpdate
	if draft.IsNew {
		commitType = entities.CommitCreate
	}
	commit, message, err := session.commitChanges(ctx, settings, commitRequest{
		changes:        built.Changes,
		commitType:     commitType,
		collectionName: collection.Name,
		skipCI:         opts.SkipCI,
	})
	if err != nil {
		return nil, err
	}

	for locale, localized := range built.Entry.Locales {
		if sha := commit.FileSHA(localized.Path); sha != "" {
			localized.SHA = sha
			built.Entry.Locales[locale] = localized
		}
	}
	if draft.OriginalEntry != nil && draft.OriginalEntry.Slug != slug {
		index.Remove(collection.Name, draft.OriginalEntry.Slug)
	}
	index.Put(built.Entry)

	result.Message = message
	result.Commit = commit
	logger.Infof("Saved %s entry %q (%d file change(s))", collection.Name, slug, len(built.Changes))
	return result, nil
}

// resolveSlug loads the original entry for updates and picks the slug: the
// file name for file collections, the requested (new) slug for updates, or a
// generated unique slug for new entries.
func (it *SaveEntryCommand) resolveSlug(
	settings *entities.Settings,
	index *entities.EntryIndex,
	draft *entities.EntryDraft,
	opts SaveEntryOptions,
	i18n entities.I18nConfig,
	now time.Time,
) (string, error) {
	collection := draft.Collection

	if draft.CollectionFile != nil {
		slug := draft.CollectionFile.Name
		if original, ok := index.Get(collection.Name, slug); ok {
			draft.IsNew = false
			draft.OriginalEntry = original
		}
		draft.Slug = slug
		return slug, nil
	}

	if opts.Slug != "" {
		original, ok := index.Get(collection.Name, opts.Slug)
		if !ok {
			return "", fmt.Errorf("entry %q not found in collection %q", opts.Slug, collection.Name)
		}
		draft.IsNew = false
		draft.OriginalEntry = original
		draft.Slug = opts.Slug

		if opts.NewSlug == "" || opts.NewSlug == opts.Slug {
			return opts.Slug, nil
		}
		newSlug := entities.Slugify(opts.NewSlug, settings.Slug)
		if _, taken := index.Get(collection.Name, newSlug); taken {
			return "", fmt.Errorf("entry %q already exists in collection %q", newSlug, collection.Name)
		}
		return newSlug, nil
	}

	slug := opts.NewSlug
	if slug != "" {
		slug = entities.Slugify(slug, settings.Slug)
	} else {
		slug = entities.GenerateSlug(collection, entities.TemplateData{
			Locale:   i18n.DefaultLocale,
			Now:      now,
			Fields:   draft.CurrentValues[i18n.DefaultLocale],
			Settings: settings.Slug,
		})
	}
	slug = index.UniqueSlug(collection.Name, slug)
	draft.Slug = slug
	return slug, nil
}

func findCollection(
	settings *entities.Settings,
	collectionName, fileName string,
) (*entities.Collection, *entities.CollectionFile, error) {
	collection, ok := settings.CollectionByName(collectionName)
	if !ok {
		return nil, nil, fmt.Errorf("collection %q is not configured", collectionName)
	}
	if !collection.IsFileCollection() {
		if fileName != "" {
			return nil, nil, fmt.Errorf("collection %q is a folder collection and has no files", collectionName)
		}
		return collection, nil, nil
	}

	if fileName == "" {
		return nil, nil, fmt.Errorf("collection %q is a file collection, a file name is required", collectionName)
	}
	file, ok := collection.FileByName(fileName)
	if !ok {
		return nil, nil, fmt.Errorf("file %q is not configured in collection %q", fileName, collectionName)
	}
	return collection, file, nil
}

func checkDeletedLocales(i18n entities.I18nConfig, values map[string]map[string]any, locales []string) error {
	for _, locale := range locales {
		if !i18n.Enabled || !slices.Contains(i18n.Locales, locale) {
			return fmt.Errorf("locale %q is not configured for this collection", locale)
		}
		if _, ok := values[locale]; ok {
			return fmt.Errorf("locale %q has content and cannot be deleted", locale)
		}
	}
	return nil
}

// localizedValues splits raw content into per-locale values. Without i18n
// the whole document belongs to the default pseudo locale.
func localizedValues(i18n entities.I18nConfig, content map[string]any) (map[string]map[string]any, error) {
	if !i18n.Enabled {
		return map[string]map[string]any{entities.DefaultLocaleKey: content}, nil
	}

	values := map[string]map[string]any{}
	for _, locale := range i18n.Locales {
		if localized, ok := content[locale].(map[string]any); ok {
			values[locale] = localized
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w (%v)", errNoLocalizedContent, i18n.Locales)
	}
	return values, nil
}
