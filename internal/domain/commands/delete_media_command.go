package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
)

// DeleteMedia is the interface for the delete-media command.
type DeleteMedia interface {
	Execute(ctx context.Context, settings *entities.Settings, opts DeleteMediaOptions) (*CommitResult, error)
}

// DeleteMediaOptions lists the media files to delete by repository path.
type DeleteMediaOptions struct {
	BackendOptions
	Paths  []string
	SkipCI *bool
}

// DeleteMediaCommand removes assets from the media folders in one commit.
type DeleteMediaCommand struct {
	registry *infraRepos.BackendRegistry
}

// NewDeleteMediaCommand creates a new DeleteMediaCommand.
func NewDeleteMediaCommand(registry *infraRepos.BackendRegistry) *DeleteMediaCommand {
	return &DeleteMediaCommand{registry: registry}
}

func (it *DeleteMediaCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts DeleteMediaOptions,
) (*CommitResult, error) {
	if len(opts.Paths) == 0 {
		return nil, errors.New("no files to delete")
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

	changes := make([]entities.FileChange, 0, len(opts.Paths))
	for _, raw := range opts.Paths {
		path := strings.TrimPrefix(raw, "/")
		sha, ok := existing[path]
		if !ok {
			return nil, fmt.Errorf("media file %q not found", path)
		}
		changes = append(changes, entities.FileChange{Action: entities.FileDelete, Path: path, PreviousSHA: sha})
	}

	commit, message, err := session.commitChanges(ctx, settings, commitRequest{
		changes:    changes,
		commitType: entities.CommitDeleteMedia,
		skipCI:     opts.SkipCI,
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Deleted %d media file(s)", len(changes))
	return &CommitResult{Changes: changes, Message: message, Commit: commit}, nil
}
