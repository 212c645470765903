package entities

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// EntryChanges is the outcome of BuildEntryChanges.
type EntryChanges struct {
	Changes []FileChange
	// Entry is the saved entry with the new paths and content. SHAs are
	// filled from the commit results by the caller.
	Entry *Entry
}

// BuildEntryChanges turns a draft into the minimal set of file changes:
// new locale files are created, renamed ones moved, removed locales
// deleted, and files whose serialised content did not change are skipped.
func BuildEntryChanges(settings *Settings, draft *EntryDraft, slug string, now time.Time) (*EntryChanges, error) {
	if draft.Collection == nil {
		return nil, errors.New("draft has no collection")
	}
	if slug == "" {
		return nil, errors.New("draft has no slug")
	}

	i18n := settings.I18nFor(draft.Collection, draft.CollectionFile)
	format := EntryFormat(draft.Collection, draft.CollectionFile)

	entry := &Entry{
		Collection: draft.Collection.Name,
		Slug:       slug,
		Locales:    map[string]LocalizedEntry{},
	}
	if draft.CollectionFile != nil {
		entry.FileName = draft.CollectionFile.Name
	}

	documents, err := entryDocuments(settings, draft, i18n, slug, now)
	if err != nil {
		return nil, err
	}

	result := &EntryChanges{Entry: entry}
	written := map[string]bool{}

	for _, document := range documents {
		text, formatErr := FormatEntry(document.content, format)
		if formatErr != nil {
			return nil, fmt.Errorf("failed to format %q: %w", document.path, formatErr)
		}
		for _, locale := range document.locales {
			entry.Locales[locale] = LocalizedEntry{
				Slug: slug, Path: document.path, Text: text, Content: draft.CurrentValues[locale],
			}
		}

		previous, hasPrevious := previousFile(draft, document.locales)
		written[document.path] = true

		change := FileChange{Slug: slug, Path: document.path, Text: text}
		switch {
		case !hasPrevious:
			change.Action = FileCreate
		case previous.Path != document.path:
			change.Action = FileMove
			change.PreviousPath = previous.Path
			change.PreviousSHA = previous.SHA
		case previous.Text == text || draft.keptOnly(document.locales):
			for _, locale := range document.locales {
				localized := entry.Locales[locale]
				localized.SHA = previous.SHA
				localized.Text = previous.Text
				entry.Locales[locale] = localized
			}
			continue
		default:
			change.Action = FileUpdate
			change.PreviousSHA = previous.SHA
		}
		result.Changes = append(result.Changes, change)
	}

	// locale files that are no longer part of the entry
	if draft.OriginalEntry != nil {
		for _, locale := range sortedLocales(draft.OriginalEntry.Locales) {
			localized := draft.OriginalEntry.Locales[locale]
			if written[localized.Path] || movedFrom(result.Changes, localized.Path) {
				continue
			}
			written[localized.Path] = true
			result.Changes = append(result.Changes, FileChange{
				Action:      FileDelete,
				Slug:        slug,
				Path:        localized.Path,
				PreviousSHA: localized.SHA,
			})
		}
	}

	return result, nil
}

type entryDocument struct {
	path    string
	locales []string
	content map[string]any
}

func entryDocuments(
	settings *Settings,
	draft *EntryDraft,
	i18n I18nConfig,
	slug string,
	now time.Time,
) ([]entryDocument, error) {
	if i18n.Enabled && i18n.Structure == I18nSingleFile {
		content := map[string]any{}
		var locales []string
		for _, locale := range i18n.Locales {
			if values, ok := draft.CurrentValues[locale]; ok {
				content[locale] = values
				locales = append(locales, locale)
			}
		}
		if len(locales) == 0 {
			return nil, errors.New("draft has no content")
		}
		return []entryDocument{{
			path:    ResolveEntryPath(settings, draft, i18n.DefaultLocale, slug, now),
			locales: locales,
			content: content,
		}}, nil
	}

	var documents []entryDocument
	for _, locale := range i18n.Locales {
		values, ok := draft.CurrentValues[locale]
		if !ok {
			continue
		}
		if values == nil {
			values = map[string]any{}
		}
		documents = append(documents, entryDocument{
			path:    ResolveEntryPath(settings, draft, locale, slug, now),
			locales: []string{locale},
			content: values,
		})
	}
	if len(documents) == 0 {
		return nil, errors.New("draft has no content")
	}
	return documents, nil
}

// previousFile returns the recorded file of the first locale that has one.
func previousFile(draft *EntryDraft, locales []string) (LocalizedEntry, bool) {
	if draft.IsNew || draft.OriginalEntry == nil {
		return LocalizedEntry{}, false
	}
	for _, locale := range locales {
		if localized, ok := draft.OriginalEntry.Locales[locale]; ok && localized.Path != "" {
			return localized, true
		}
	}
	return LocalizedEntry{}, false
}

func movedFrom(changes []FileChange, filePath string) bool {
	for _, change := range changes {
		if change.Action == FileMove && change.PreviousPath == filePath {
			return true
		}
	}
	return false
}

func sortedLocales(locales map[string]LocalizedEntry) []string {
	keys := make([]string, 0, len(locales))
	for locale := range locales {
		keys = append(keys, locale)
	}
	sort.Strings(keys)
	return keys
}
