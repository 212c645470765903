//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/headcms/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// SettingsBuilder helps create site configurations with a fluent interface.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	backend     entities.BackendSettings
	mediaFolder string
	i18n        *entities.I18nSettings
	slug        entities.SlugSettings
	collections []entities.Collection
}

// NewSettingsBuilder creates a GitHub configuration for owner/site with
// media under static/images and no collections.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		backend:     defaultBackend(),
		mediaFolder: "static/images",
	}
}

func defaultBackend() entities.BackendSettings {
	return entities.BackendSettings{
		Name:   entities.BackendGitHub,
		Repo:   "owner/site",
		Branch: "main",
	}
}

// WithBackend sets the backend name.
func (b *SettingsBuilder) WithBackend(name string) *SettingsBuilder {
	b.backend.Name = name
	return b
}

// WithRepo sets the "owner/repo" of the backend.
func (b *SettingsBuilder) WithRepo(repo string) *SettingsBuilder {
	b.backend.Repo = repo
	return b
}

// WithBranch sets the branch; empty means the default branch.
func (b *SettingsBuilder) WithBranch(branch string) *SettingsBuilder {
	b.backend.Branch = branch
	return b
}

// WithAPIRoot sets the REST API root of a self-hosted backend.
func (b *SettingsBuilder) WithAPIRoot(root string) *SettingsBuilder {
	b.backend.APIRoot = root
	return b
}

// WithBaseURL sets the OAuth base URL.
func (b *SettingsBuilder) WithBaseURL(url string) *SettingsBuilder {
	b.backend.BaseURL = url
	return b
}

// WithLocalRoot sets the directory served by the local backend.
func (b *SettingsBuilder) WithLocalRoot(root string) *SettingsBuilder {
	b.backend.LocalRoot = root
	return b
}

// WithCommitMessage overrides the template of a commit type.
func (b *SettingsBuilder) WithCommitMessage(commitType entities.CommitType, template string) *SettingsBuilder {
	if b.backend.CommitMessages == nil {
		b.backend.CommitMessages = map[string]string{}
	}
	b.backend.CommitMessages[string(commitType)] = template
	return b
}

// WithSkipCI sets the site-wide skip CI default.
func (b *SettingsBuilder) WithSkipCI(skip bool) *SettingsBuilder {
	b.backend.SkipCI = &skip
	return b
}

// WithMediaFolder sets the site media folder.
func (b *SettingsBuilder) WithMediaFolder(folder string) *SettingsBuilder {
	b.mediaFolder = folder
	return b
}

// WithI18n enables i18n with the given structure and locales; the first
// locale is the default.
func (b *SettingsBuilder) WithI18n(structure string, locales ...string) *SettingsBuilder {
	b.i18n = &entities.I18nSettings{Structure: structure, Locales: locales}
	if len(locales) > 0 {
		b.i18n.DefaultLocale = locales[0]
	}
	return b
}

// WithOmitDefaultLocale omits the default locale from multiple_files names.
func (b *SettingsBuilder) WithOmitDefaultLocale() *SettingsBuilder {
	if b.i18n != nil {
		b.i18n.OmitDefaultLocaleFromFileName = true
	}
	return b
}

// WithSlugEncoding sets the slug encoding.
func (b *SettingsBuilder) WithSlugEncoding(encoding string) *SettingsBuilder {
	b.slug.Encoding = encoding
	return b
}

// WithCollection adds a collection.
func (b *SettingsBuilder) WithCollection(collection entities.Collection) *SettingsBuilder {
	b.collections = append(b.collections, collection)
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	settings := &entities.Settings{
		Backend:     b.backend,
		MediaFolder: b.mediaFolder,
		Slug:        b.slug,
		Collections: append([]entities.Collection(nil), b.collections...),
	}
	if b.i18n != nil {
		i18n := *b.i18n
		i18n.Locales = append([]string(nil), b.i18n.Locales...)
		settings.I18n = &i18n
	}
	return settings
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.backend = defaultBackend()
	b.mediaFolder = "static/images"
	b.i18n = nil
	b.slug = entities.SlugSettings{}
	b.collections = nil
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	settings := b.BuildSettings()
	return &SettingsBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		backend:     settings.Backend,
		mediaFolder: settings.MediaFolder,
		i18n:        settings.I18n,
		slug:        settings.Slug,
		collections: settings.Collections,
	}
}
