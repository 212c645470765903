//go:build unit

package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/test/domain/entitybuilders"
)

func TestBuildEntryChanges(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	i18nSettings := func() *entities.Settings {
		return entitybuilders.NewSettingsBuilder().
			WithI18n(entities.I18nMultipleFiles, "en", "fr").
			WithCollection(entitybuilders.NewCollectionBuilder().WithI18n("").BuildCollection()).
			BuildSettings()
	}

	t.Run("should create one file per locale for a new entry", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			IsNew:      true,
			CurrentValues: map[string]map[string]any{
				"en": {"title": "Hello"},
				"fr": {"title": "Bonjour"},
			},
		}

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 2)
		assert.Equal(t, entities.FileCreate, result.Changes[0].Action)
		assert.Equal(t, "content/posts/hello.en.md", result.Changes[0].Path)
		assert.Equal(t, "---\ntitle: Hello\n---\n", result.Changes[0].Text)
		assert.Equal(t, "content/posts/hello.fr.md", result.Changes[1].Path)
		assert.Equal(t, "hello", result.Entry.Slug)
	})

	t.Run("should leave kept locale files untouched even when formatted differently", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			OriginalEntry: &entities.Entry{Collection: "posts", Slug: "hello", Locales: map[string]entities.LocalizedEntry{
				"en": {Path: "content/posts/hello.en.md", SHA: "a", Text: "---\ntitle: Hello\n---\n", Content: map[string]any{"title": "Hello"}},
				"fr": {Path: "content/posts/hello.fr.md", SHA: "b", Text: "---\ntitle:   'Bonjour'\n---\n", Content: map[string]any{"title": "Bonjour"}},
			}},
			CurrentValues: map[string]map[string]any{"en": {"title": "Hello again"}},
		}
		draft.KeepUneditedLocales([]string{"en", "fr"}, nil)

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, "content/posts/hello.en.md", result.Changes[0].Path)
		assert.Equal(t, "b", result.Entry.Locales["fr"].SHA)
		assert.Equal(t, "---\ntitle:   'Bonjour'\n---\n", result.Entry.Locales["fr"].Text)
	})

	t.Run("should delete the locales dropped from the draft", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			OriginalEntry: &entities.Entry{Collection: "posts", Slug: "hello", Locales: map[string]entities.LocalizedEntry{
				"en": {Path: "content/posts/hello.en.md", SHA: "a", Content: map[string]any{"title": "Hello"}},
				"fr": {Path: "content/posts/hello.fr.md", SHA: "b", Content: map[string]any{"title": "Bonjour"}},
			}},
			CurrentValues: map[string]map[string]any{"en": {"title": "Hello again"}},
		}
		draft.KeepUneditedLocales([]string{"en", "fr"}, []string{"fr"})

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 2)
		assert.Equal(t, entities.FileDelete, result.Changes[1].Action)
		assert.Equal(t, "content/posts/hello.fr.md", result.Changes[1].Path)
		assert.False(t, draft.KeptLocales["fr"])
	})

	t.Run("should skip unchanged files and update changed ones", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			OriginalEntry: &entities.Entry{Collection: "posts", Slug: "hello", Locales: map[string]entities.LocalizedEntry{
				"en": {Slug: "hello", Path: "content/posts/hello.en.md", SHA: "sha-en", Text: "---\ntitle: Hello\n---\n"},
				"fr": {Slug: "hello", Path: "content/posts/hello.fr.md", SHA: "sha-fr", Text: "---\ntitle: Salut\n---\n"},
			}},
			CurrentValues: map[string]map[string]any{
				"en": {"title": "Hello"},
				"fr": {"title": "Bonjour"},
			},
		}

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, entities.FileUpdate, result.Changes[0].Action)
		assert.Equal(t, "content/posts/hello.fr.md", result.Changes[0].Path)
		assert.Equal(t, "sha-fr", result.Changes[0].PreviousSHA)
		assert.Equal(t, "sha-en", result.Entry.Locales["en"].SHA)
	})

	t.Run("should move files when the slug changes", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			OriginalEntry: &entities.Entry{Collection: "posts", Slug: "hello", Locales: map[string]entities.LocalizedEntry{
				"en": {Slug: "hello", Path: "content/posts/hello.en.md", SHA: "sha-en", Text: "old"},
			}},
			CurrentValues: map[string]map[string]any{"en": {"title": "Hello"}},
		}

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello-world", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, entities.FileMove, result.Changes[0].Action)
		assert.Equal(t, "content/posts/hello-world.en.md", result.Changes[0].Path)
		assert.Equal(t, "content/posts/hello.en.md", result.Changes[0].PreviousPath)
	})

	t.Run("should delete locale files that are no longer present", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			OriginalEntry: &entities.Entry{Collection: "posts", Slug: "hello", Locales: map[string]entities.LocalizedEntry{
				"en": {Slug: "hello", Path: "content/posts/hello.en.md", SHA: "sha-en", Text: "---\ntitle: Hello\n---\n"},
				"fr": {Slug: "hello", Path: "content/posts/hello.fr.md", SHA: "sha-fr", Text: "x"},
			}},
			CurrentValues: map[string]map[string]any{"en": {"title": "Hello"}},
		}

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, entities.FileDelete, result.Changes[0].Action)
		assert.Equal(t, "content/posts/hello.fr.md", result.Changes[0].Path)
	})

	t.Run("should merge locales into one single file document", func(t *testing.T) {
		t.Parallel()
		// given
		settings := entitybuilders.NewSettingsBuilder().
			WithI18n(entities.I18nSingleFile, "en", "fr").
			WithCollection(entitybuilders.NewCollectionBuilder().WithFormat("json").WithI18n("").BuildCollection()).
			BuildSettings()
		draft := &entities.EntryDraft{
			Collection: &settings.Collections[0],
			IsNew:      true,
			CurrentValues: map[string]map[string]any{
				"en": {"title": "Hello"},
				"fr": {"title": "Bonjour"},
			},
		}

		// when
		result, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.NoError(t, err)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, "content/posts/hello.json", result.Changes[0].Path)
		assert.JSONEq(t, `{"en":{"title":"Hello"},"fr":{"title":"Bonjour"}}`, result.Changes[0].Text)
		assert.Len(t, result.Entry.Locales, 2)
	})

	t.Run("should fail without content", func(t *testing.T) {
		t.Parallel()
		// given
		settings := i18nSettings()
		draft := &entities.EntryDraft{Collection: &settings.Collections[0], IsNew: true}

		// when
		_, err := entities.BuildEntryChanges(settings, draft, "hello", now)

		// then
		require.Error(t, err)
	})
}
