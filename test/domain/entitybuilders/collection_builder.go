//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/headcms/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// CollectionBuilder helps create test collections with a fluent interface.
type CollectionBuilder struct {
	*testkit.BaseBuilder
	collection entities.Collection
}

// NewCollectionBuilder creates a folder collection "posts" under content/posts.
func NewCollectionBuilder() *CollectionBuilder {
	return &CollectionBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		collection:  defaultCollection(),
	}
}

func defaultCollection() entities.Collection {
	return entities.Collection{
		Name:   "posts",
		Label:  "Posts",
		Folder: "content/posts",
	}
}

// WithName sets the collection name.
func (b *CollectionBuilder) WithName(name string) *CollectionBuilder {
	b.collection.Name = name
	return b
}

// WithFolder sets the entry folder.
func (b *CollectionBuilder) WithFolder(folder string) *CollectionBuilder {
	b.collection.Folder = folder
	return b
}

// WithFile turns the collection into a file collection and adds a file.
func (b *CollectionBuilder) WithFile(name, file string) *CollectionBuilder {
	b.collection.Folder = ""
	b.collection.Files = append(b.collection.Files, entities.CollectionFile{Name: name, File: file})
	return b
}

// WithExtension sets the entry file extension.
func (b *CollectionBuilder) WithExtension(extension string) *CollectionBuilder {
	b.collection.Extension = extension
	return b
}

// WithFormat sets the serialisation format.
func (b *CollectionBuilder) WithFormat(format string) *CollectionBuilder {
	b.collection.Format = format
	return b
}

// WithPath sets the entry path template.
func (b *CollectionBuilder) WithPath(path string) *CollectionBuilder {
	b.collection.Path = path
	return b
}

// WithSlug sets the slug template.
func (b *CollectionBuilder) WithSlug(slug string) *CollectionBuilder {
	b.collection.Slug = slug
	return b
}

// WithMediaFolder sets the collection level media folder.
func (b *CollectionBuilder) WithMediaFolder(folder string) *CollectionBuilder {
	b.collection.MediaFolder = folder
	return b
}

// WithI18n enables i18n, optionally with a structure override.
func (b *CollectionBuilder) WithI18n(structure string) *CollectionBuilder {
	b.collection.I18n = entities.CollectionI18n{Enabled: true}
	if structure != "" {
		b.collection.I18n.Overrides = &entities.I18nSettings{Structure: structure}
	}
	return b
}

// Build creates the collection (satisfies testkit.Builder interface).
func (b *CollectionBuilder) Build() interface{} {
	return b.BuildCollection()
}

// BuildCollection creates the collection with a concrete return type.
func (b *CollectionBuilder) BuildCollection() entities.Collection {
	collection := b.collection
	collection.Files = append([]entities.CollectionFile(nil), b.collection.Files...)
	return collection
}

// Reset clears the builder state, allowing it to be reused.
func (b *CollectionBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.collection = defaultCollection()
	return b
}

// Clone creates a deep copy of the CollectionBuilder.
func (b *CollectionBuilder) Clone() testkit.Builder {
	return &CollectionBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		collection:  b.BuildCollection(),
	}
}
