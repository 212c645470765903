package entities

import (
	"path"
	"strings"
)

// FileKind classifies a repository path against the site configuration.
type FileKind int

const (
	FileKindOther FileKind = iota
	FileKindEntry
	FileKindMedia
)

// ClassifyPath tells whether a repository path is an entry file, a media file
// or something the CMS does not manage.
func (s *Settings) ClassifyPath(filePath string) FileKind {
	filePath = strings.TrimPrefix(filePath, "/")

	for i := range s.Collections {
		collection := &s.Collections[i]
		if collection.IsFileCollection() {
			for j := range collection.Files {
				for _, p := range FileCollectionPaths(s, collection, &collection.Files[j]) {
					if p == filePath {
						return FileKindEntry
					}
				}
			}
			continue
		}
		if _, _, ok := ParseEntryPath(s, collection, filePath); ok {
			return FileKindEntry
		}
	}

	for _, folder := range s.MediaFolders() {
		if folder != "" && strings.HasPrefix(filePath, folder+"/") {
			return FileKindMedia
		}
	}

	return FileKindOther
}

// MediaFolders returns the site-wide media folder followed by collection
// level media folders, resolved to repository paths.
func (s *Settings) MediaFolders() []string {
	folders := []string{strings.Trim(s.MediaFolder, "/")}
	for i := range s.Collections {
		collection := &s.Collections[i]
		if collection.MediaFolder == "" {
			continue
		}
		folder := collection.MediaFolder
		if !strings.HasPrefix(folder, "/") && collection.Folder != "" {
			folder = path.Join(collection.Folder, folder)
		}
		folders = append(folders, strings.Trim(path.Clean(folder), "/"))
	}
	return folders
}

// MediaPath returns the repository path of an uploaded media file.
func (s *Settings) MediaPath(collection *Collection, fileName string) string {
	folder := strings.Trim(s.MediaFolder, "/")
	if collection != nil && collection.MediaFolder != "" {
		folder = collection.MediaFolder
		if !strings.HasPrefix(folder, "/") && collection.Folder != "" {
			folder = path.Join(collection.Folder, folder)
		}
		folder = strings.Trim(path.Clean(folder), "/")
	}
	return joinPath(folder, path.Base(fileName))
}
