package commands

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// UploadMedia is the interface for the upload command.
type UploadMedia interface {
	Execute(ctx context.Context, settings *entities.Settings, opts UploadMediaOptions) (*CommitResult, error)
}

// MediaFile is one asset to upload.
type MediaFile struct {
	Name string
	Data []byte
}

// UploadMediaOptions describes the assets to upload.
type UploadMediaOptions struct {
	BackendOptions
	// CollectionName selects a collection level media folder; empty uses the site folder.
	CollectionName string
	Files          []MediaFile
	SkipCI         *bool
}

// UploadMediaCommand commits assets into the media folder.
type UploadMediaCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewUploadMediaCommand creates a new UploadMediaCommand.
func NewUploadMediaCommand(registry *infraRepos.BackendRegistry) *UploadMediaCommand {
	return &UploadMediaCommand{registry: registry}
}

func (it *UploadMediaCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts UploadMediaOptions,
) (*CommitResult, error) {
	if len(opts.Files) == 0 {
		return nil, errors.New("no files to upload")
	}

	var collection *entities.Collection
	if opts.CollectionName != "" {
		found, ok := settings.CollectionByName(opts.CollectionName)
		if !ok {
			return nil, fmt.Errorf("collection %q is not configured", opts.CollectionName)
		}
		collection = found
	}

	session, err := connect(ctx, it.registry, settings, opts.BackendOptions)
	if err != nil {
		return nil, err
	}
	_, media, err := session.loadContent(ctx, settings)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]string, len(media))
	for _, file := range media {
		existing[file.Path] = file.SHA
	}

	changes := make([]entities.FileChange, 0, len(opts.Files))
	for _, file := range opts.Files {
		path := settings.MediaPath(collection, file.Name)
		if path == "" || settings.ClassifyPath(path) != entities.FileKindMedia {
			return nil, fmt.Errorf("%w: no media folder configured for %q", entities.ErrInvalidConfig, file.Name)
		}
		change := entities.FileChange{Action: entities.FileCreate, Path: path, Data: file.Data}
		if sha, ok := existing[path]; ok {
			change.Action = entities.FileUpdate
			change.PreviousSHA = sha
		}
		changes = append(changes, change)
	}

	commit, message, err := session.commitChanges(ctx, settings, commitRequest{
		changes:    changes,
		commitType: entities.CommitUploadMedia,
		skipCI:     opts.SkipCI,
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Uploaded %d media file(s)", len(changes))
	return &CommitResult{Changes: changes, Message: message, Commit: commit}, nil
}
