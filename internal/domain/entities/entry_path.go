package entities

import (
	"path"
	"regexp"
	"strings"
	"time"
)

// ResolveEntryPath returns the repository path of one locale variant of a draft.
// An existing entry whose recorded slug for the locale equals slug keeps its
// recorded path, so saving without renaming never moves files.
func ResolveEntryPath(settings *Settings, draft *EntryDraft, locale, slug string, now time.Time) string {
	i18n := settings.I18nFor(draft.Collection, draft.CollectionFile)

	if draft.CollectionFile != nil {
		return fileCollectionPath(draft.CollectionFile.File, locale, i18n)
	}

	if !draft.IsNew && draft.OriginalEntry != nil {
		if localized, ok := draft.OriginalEntry.Locales[locale]; ok && localized.Slug == slug && localized.Path != "" {
			return localized.Path
		}
	}

	collection := draft.Collection
	basePath := strings.Trim(collection.Folder, "/")
	extension := collection.FileExtension()

	subPath := slug
	if collection.Path != "" {
		subPath = FillTemplate(collection.Path, TemplateData{
			Slug:            slug,
			Locale:          locale,
			Now:             now,
			Fields:          draft.CurrentValues[i18n.DefaultLocale],
			IdentifierField: collection.IdentifierField,
			Settings:        settings.Slug,
		})
		subPath = strings.Trim(subPath, "/")
	}

	if !i18n.Enabled {
		return joinPath(basePath, subPath+"."+extension)
	}

	switch i18n.Structure {
	case I18nMultipleFolders:
		return joinPath(basePath, locale, subPath+"."+extension)
	case I18nMultipleFoldersI18nRoot:
		return joinPath(locale, basePath, subPath+"."+extension)
	case I18nMultipleFiles:
		if i18n.OmitDefaultLocaleFromFileName && locale == i18n.DefaultLocale {
			return joinPath(basePath, subPath+"."+extension)
		}
		return joinPath(basePath, subPath+"."+locale+"."+extension)
	default:
		return joinPath(basePath, subPath+"."+extension)
	}
}

func fileCollectionPath(file, locale string, i18n I18nConfig) string {
	file = strings.TrimPrefix(file, "/")
	if !i18n.Enabled {
		return file
	}
	if strings.Contains(file, "{{locale}}") {
		return strings.ReplaceAll(file, "{{locale}}", locale)
	}

	dir, base := path.Split(file)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	switch i18n.Structure {
	case I18nMultipleFolders:
		return joinPath(dir, locale, base)
	case I18nMultipleFoldersI18nRoot:
		return joinPath(locale, file)
	case I18nMultipleFiles:
		if i18n.OmitDefaultLocaleFromFileName && locale == i18n.DefaultLocale {
			return file
		}
		return joinPath(dir, name+"."+locale+ext)
	default:
		return file
	}
}

// ParseEntryPath is the reverse of ResolveEntryPath for folder collections:
// it extracts the slug and locale from a repository path, or reports false
// when the path does not belong to the collection.
func ParseEntryPath(settings *Settings, collection *Collection, filePath string) (string, string, bool) {
	if collection.IsFileCollection() {
		return "", "", false
	}
	i18n := settings.I18nFor(collection, nil)
	basePath := strings.Trim(collection.Folder, "/")
	extension := "." + collection.FileExtension()

	if !strings.HasSuffix(filePath, extension) {
		return "", "", false
	}
	rest := strings.TrimSuffix(filePath, extension)
	locale := i18n.DefaultLocale

	if i18n.Enabled {
		switch i18n.Structure {
		case I18nMultipleFolders:
			remainder, ok := trimDirPrefix(rest, basePath)
			if !ok {
				return "", "", false
			}
			head, tail, found := strings.Cut(remainder, "/")
			if !found || !contains(i18n.Locales, head) {
				return "", "", false
			}
			locale, rest = head, tail
		case I18nMultipleFoldersI18nRoot:
			head, tail, found := strings.Cut(rest, "/")
			if !found || !contains(i18n.Locales, head) {
				return "", "", false
			}
			remainder, ok := trimDirPrefix(tail, basePath)
			if !ok {
				return "", "", false
			}
			locale, rest = head, remainder
		case I18nMultipleFiles:
			remainder, ok := trimDirPrefix(rest, basePath)
			if !ok {
				return "", "", false
			}
			if ext := path.Ext(remainder); ext != "" && contains(i18n.Locales, ext[1:]) {
				locale, rest = ext[1:], strings.TrimSuffix(remainder, ext)
			} else if i18n.OmitDefaultLocaleFromFileName {
				rest = remainder
			} else {
				return "", "", false
			}
		default:
			remainder, ok := trimDirPrefix(rest, basePath)
			if !ok {
				return "", "", false
			}
			rest = remainder
		}
	} else {
		remainder, ok := trimDirPrefix(rest, basePath)
		if !ok {
			return "", "", false
		}
		rest = remainder
	}

	slug, ok := slugFromSubPath(collection.Path, rest)
	if !ok {
		return "", "", false
	}
	return slug, locale, true
}

// slugFromSubPath matches the collection path template against the part of
// the path below the collection folder.
func slugFromSubPath(template, subPath string) (string, bool) {
	if subPath == "" {
		return "", false
	}
	if template == "" {
		if strings.Contains(subPath, "/") {
			return "", false
		}
		return subPath, true
	}

	pattern := templatePattern(strings.Trim(template, "/"))
	match := pattern.FindStringSubmatch(subPath)
	if match == nil {
		return "", false
	}
	if idx := pattern.SubexpIndex("slug"); idx >= 0 && match[idx] != "" {
		return match[idx], true
	}
	return subPath, true
}

func templatePattern(template string) *regexp.Regexp {
	var builder strings.Builder
	builder.WriteString("^")
	slugSeen := false
	last := 0
	for _, loc := range templatePlaceholder.FindAllStringSubmatchIndex(template, -1) {
		builder.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		name := strings.TrimSpace(template[loc[2]:loc[3]])
		if name == "slug" && !slugSeen {
			builder.WriteString(`(?P<slug>[^/]+)`)
			slugSeen = true
		} else {
			builder.WriteString(`[^/]+?`)
		}
		last = loc[1]
	}
	builder.WriteString(regexp.QuoteMeta(template[last:]))
	builder.WriteString("$")
	return regexp.MustCompile(builder.String())
}

// FileCollectionPaths returns the path of every locale variant of a collection file.
func FileCollectionPaths(settings *Settings, collection *Collection, file *CollectionFile) map[string]string {
	i18n := settings.I18nFor(collection, file)
	paths := make(map[string]string, len(i18n.Locales))
	for _, locale := range i18n.Locales {
		paths[locale] = fileCollectionPath(file.File, locale, i18n)
	}
	return paths
}

func trimDirPrefix(value, dir string) (string, bool) {
	if dir == "" {
		return value, true
	}
	if !strings.HasPrefix(value, dir+"/") {
		return "", false
	}
	return strings.TrimPrefix(value, dir+"/"), true
}

func joinPath(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "/")
}
