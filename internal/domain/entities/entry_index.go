package entities

import (
	"sort"
	"strconv"

	logger "github.com/sirupsen/logrus"
)

// EntryIndex groups the entry files of a repository by collection and slug.
type EntryIndex struct {
	entries map[string]map[string]*Entry // collection -> slug -> entry
}

// BuildEntryIndex parses every entry file among files. Files that do not
// parse are skipped with a warning.
func BuildEntryIndex(settings *Settings, files []RepositoryFile) *EntryIndex {
	index := &EntryIndex{entries: map[string]map[string]*Entry{}}

	for _, file := range files {
		for i := range settings.Collections {
			collection := &settings.Collections[i]
			if index.addFile(settings, collection, file) {
				break
			}
		}
	}
	return index
}

func (x *EntryIndex) addFile(settings *Settings, collection *Collection, file RepositoryFile) bool {
	if collection.IsFileCollection() {
		for j := range collection.Files {
			collectionFile := &collection.Files[j]
			for locale, filePath := range FileCollectionPaths(settings, collection, collectionFile) {
				if filePath == file.Path {
					x.addLocalized(settings, collection, collectionFile, collectionFile.Name, locale, file)
					return true
				}
			}
		}
		return false
	}

	slug, locale, ok := ParseEntryPath(settings, collection, file.Path)
	if !ok {
		return false
	}
	x.addLocalized(settings, collection, nil, slug, locale, file)
	return true
}

func (x *EntryIndex) addLocalized(
	settings *Settings,
	collection *Collection,
	file *CollectionFile,
	slug, locale string,
	repoFile RepositoryFile,
) {
	content, err := ParseEntry(repoFile.Text, EntryFormat(collection, file))
	if err != nil {
		logger.Warnf("Skipping %q: %v", repoFile.Path, err)
		return
	}

	entry := x.entry(collection.Name, slug)
	if file != nil {
		entry.FileName = file.Name
	}

	i18n := settings.I18nFor(collection, file)
	if i18n.Enabled && i18n.Structure == I18nSingleFile {
		// one document keyed by locale
		for _, code := range i18n.Locales {
			values, ok := content[code].(map[string]any)
			if !ok {
				continue
			}
			entry.Locales[code] = LocalizedEntry{
				Slug: slug, Path: repoFile.Path, SHA: repoFile.SHA, Text: repoFile.Text, Content: values,
			}
		}
		return
	}

	entry.Locales[locale] = LocalizedEntry{
		Slug: slug, Path: repoFile.Path, SHA: repoFile.SHA, Text: repoFile.Text, Content: content,
	}
}

func (x *EntryIndex) entry(collectionName, slug string) *Entry {
	bySlug, ok := x.entries[collectionName]
	if !ok {
		bySlug = map[string]*Entry{}
		x.entries[collectionName] = bySlug
	}
	entry, ok := bySlug[slug]
	if !ok {
		entry = &Entry{Collection: collectionName, Slug: slug, Locales: map[string]LocalizedEntry{}}
		bySlug[slug] = entry
	}
	return entry
}

// Get returns an entry by collection and slug (the file name for file collections).
func (x *EntryIndex) Get(collectionName, slug string) (*Entry, bool) {
	entry, ok := x.entries[collectionName][slug]
	return entry, ok
}

// Put records or replaces an entry, typically after a commit.
func (x *EntryIndex) Put(entry *Entry) {
	stored := x.entry(entry.Collection, entry.Slug)
	*stored = *entry
}

// Remove forgets an entry.
func (x *EntryIndex) Remove(collectionName, slug string) {
	delete(x.entries[collectionName], slug)
}

// Entries lists the entries of a collection sorted by slug.
func (x *EntryIndex) Entries(collectionName string) []*Entry {
	bySlug := x.entries[collectionName]
	entries := make([]*Entry, 0, len(bySlug))
	for _, entry := range bySlug {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slug < entries[j].Slug })
	return entries
}

// Count returns the number of indexed entries across collections.
func (x *EntryIndex) Count() int {
	total := 0
	for _, bySlug := range x.entries {
		total += len(bySlug)
	}
	return total
}

// UniqueSlug appends -1, -2, ... to slug until no entry of the collection uses it.
func (x *EntryIndex) UniqueSlug(collectionName, slug string) string {
	candidate := slug
	for n := 1; ; n++ {
		if _, taken := x.Get(collectionName, candidate); !taken {
			return candidate
		}
		candidate = slug + "-" + strconv.Itoa(n)
	}
}
