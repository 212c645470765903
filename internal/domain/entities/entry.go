package entities

import "slices"

// LocalizedEntry is one locale variant of an entry as stored in the repository.
type LocalizedEntry struct {
	Slug    string
	Path    string
	SHA     string
	Text    string // raw file text, used to detect unchanged saves
	Content map[string]any
}

// Entry is a stored entry, grouped across locales.
type Entry struct {
	Collection string
	FileName   string // set for file collection entries
	Slug       string
	Locales    map[string]LocalizedEntry
}

// EntryDraft is an in-memory edit of a new or existing entry.
type EntryDraft struct {
	Collection     *Collection
	CollectionFile *CollectionFile
	IsNew          bool
	OriginalEntry  *Entry
	// Slug is the entry slug; empty for new entries means generate it.
	Slug string
	// CurrentValues holds the field values per locale.
	CurrentValues map[string]map[string]any
	// KeptLocales are locales whose values were carried over unedited from OriginalEntry.
	KeptLocales map[string]bool
}

// KeepUneditedLocales fills every locale the draft does not set with its
// stored values, so saving one locale leaves the other files untouched.
// Locales listed in dropped are left out and their files get deleted.
func (d *EntryDraft) KeepUneditedLocales(locales, dropped []string) {
	if d.OriginalEntry == nil {
		return
	}
	for _, locale := range locales {
		if _, set := d.CurrentValues[locale]; set || slices.Contains(dropped, locale) {
			continue
		}
		stored, ok := d.OriginalEntry.Locales[locale]
		if !ok {
			continue
		}
		content := stored.Content
		if content == nil {
			content = map[string]any{}
		}
		if d.CurrentValues == nil {
			d.CurrentValues = map[string]map[string]any{}
		}
		if d.KeptLocales == nil {
			d.KeptLocales = map[string]bool{}
		}
		d.CurrentValues[locale] = content
		d.KeptLocales[locale] = true
	}
}

func (d *EntryDraft) keptOnly(locales []string) bool {
	if len(locales) == 0 {
		return false
	}
	for _, locale := range locales {
		if !d.KeptLocales[locale] {
			return false
		}
	}
	return true
}

// Paths returns every path recorded for the original entry, keyed by locale.
func (d *EntryDraft) Paths() map[string]string {
	paths := map[string]string{}
	if d.OriginalEntry == nil {
		return paths
	}
	for locale, localized := range d.OriginalEntry.Locales {
		paths[locale] = localized.Path
	}
	return paths
}
