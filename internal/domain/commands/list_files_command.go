package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// ListFiles is the interface for the list command.
type ListFiles interface {
	Execute(ctx context.Context, settings *entities.Settings, opts BackendOptions) (*ListFilesResult, error)
}

// ListFilesResult is the content of the repository as the CMS sees it.
type ListFilesResult struct {
	Repository *entities.RepositoryInfo
	Entries    *entities.EntryIndex
	Media      []entities.RepositoryFile
}

// ListFilesCommand fetches the entry and media files of the configured branch.
type ListFilesCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewListFilesCommand creates a new ListFilesCommand.
func NewListFilesCommand(registry *infraRepos.BackendRegistry) *ListFilesCommand {
	return &ListFilesCommand{registry: registry}
}

func (it *ListFilesCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts BackendOptions,
) (*ListFilesResult, error) {
	session, err := connect(ctx, it.registry, settings, opts)
	if err != nil {
		return nil, err
	}

	index, media, err := session.loadContent(ctx, settings)
	if err != nil {
		return nil, err
	}
	return &ListFilesResult{Repository: session.info, Entries: index, Media: media}, nil
}

// loadContent fetches the files of the branch and splits them into the
// entry index and the media files.
func (s *backendSession) loadContent(
	ctx context.Context,
	settings *entities.Settings,
) (*entities.EntryIndex, []entities.RepositoryFile, error) {
	files, err := s.backend.FetchFiles(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch files from %s: %w", s.backend.Label(), err)
	}

	var media []entities.RepositoryFile
	for _, file := range files {
		if settings.ClassifyPath(file.Path) == entities.FileKindMedia {
			media = append(media, file)
		}
	}

	index := entities.BuildEntryIndex(settings, files)
	logger.Debugf("Loaded %d entries and %d media files from %s", index.Count(), len(media), s.info.FullName())
	return index, media, nil
}
