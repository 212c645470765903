package gitea

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/blobs"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitsession"
)

const (
	backendLabel  = "Gitea"
	defaultOrigin = "https://gitea.com"
	restSuffix    = "/api/v1"
	blobType      = "blob"
)

// GiteaBackendRepository implements repositories.BackendRepository for Gitea
// and Forgejo servers.
type GiteaBackendRepository struct {
	users     repositories.UserRepository
	settings  *entities.Settings
	info      *entities.RepositoryInfo
	endpoints *entities.ApiEndpointConfig
	session   *gitsession.Session
	client    *Client
	blobs     *blobs.Cache
}

// NewGiteaBackendRepository creates a Gitea/Forgejo backend storing its session in users.
func NewGiteaBackendRepository(users repositories.UserRepository) repositories.BackendRepository {
	return &GiteaBackendRepository{
		users: users,
		blobs: blobs.NewCache(blobs.DefaultCacheSize),
	}
}

func (r *GiteaBackendRepository) Name() string  { return entities.BackendGitea }
func (r *GiteaBackendRepository) Label() string { return backendLabel }
func (r *GiteaBackendRepository) IsGit() bool   { return true }

func (r *GiteaBackendRepository) Endpoints() *entities.ApiEndpointConfig { return r.endpoints }

// NormalizeRestBaseURL returns the REST v1 root of a Gitea origin or API URL.
func NormalizeRestBaseURL(raw string) string {
	return origin(raw) + restSuffix
}

func origin(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultOrigin
	}
	return strings.TrimSuffix(trimmed, restSuffix)
}

func (r *GiteaBackendRepository) Init(settings *entities.Settings) (*entities.RepositoryInfo, error) {
	backend := settings.Backend
	if backend.Name != entities.BackendGitea {
		return nil, nil //nolint:nilnil // not the configured backend
	}

	owner, repo, err := entities.SplitRepository(backend.Repo, false)
	if err != nil {
		return nil, err
	}

	apiSource := backend.APIRoot
	if apiSource == "" {
		apiSource = backend.BaseURL
	}
	siteOrigin := origin(apiSource)
	restBaseURL := NormalizeRestBaseURL(siteOrigin)

	authBase := strings.TrimSuffix(backend.BaseURL, "/")
	if authBase == "" {
		authBase = siteOrigin
	}
	authEndpoint := strings.Trim(backend.AuthEndpoint, "/")
	if authEndpoint == "" {
		authEndpoint = "login/oauth/authorize"
	}

	r.settings = settings
	r.endpoints = &entities.ApiEndpointConfig{
		ClientID:    backend.AppID,
		AuthURL:     authBase + "/" + authEndpoint,
		TokenURL:    authBase + "/login/oauth/access_token",
		Origin:      siteOrigin,
		RestBaseURL: restBaseURL,
		AuthScheme:  "token",
	}
	r.info = entities.NewRepositoryInfo(entities.RepositoryInfoInput{
		Service:      entities.BackendGitea,
		Label:        backendLabel,
		Owner:        owner,
		Repo:         repo,
		Branch:       backend.Branch,
		BaseURL:      siteOrigin + "/" + owner + "/" + repo,
		IsSelfHosted: siteOrigin != defaultOrigin,
		TreeSegment:  "/src/branch/",
		BlobSegment:  "/src/branch/",
	})
	r.session = gitsession.New(
		r.info, r.users, r.endpoints, nil,
		[]string{"read:user", "write:repository"},
	)
	r.client = NewClient(restBaseURL, r.session.Client())

	logger.Debugf("Gitea backend ready for %s (REST %s)", r.info.FullName(), restBaseURL)
	return r.info, nil
}

// SignIn rejects servers older than the supported releases before any
// credentials are used.
func (r *GiteaBackendRepository) SignIn(
	ctx context.Context,
	options entities.SignInOptions,
) (*entities.User, error) {
	if r.session == nil {
		return nil, fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}

	version, err := r.client.GetVersion(ctx)
	if err != nil {
		return nil, err
	}
	if err = CheckServerVersion(version); err != nil {
		return nil, err
	}
	flavor, _ := ParseServerVersion(version)
	logger.Debugf("Connected to %s %s", flavor, version)

	return r.session.SignIn(ctx, options, r.fetchProfile)
}

func (r *GiteaBackendRepository) SignOut(ctx context.Context) error {
	if r.session == nil {
		return nil
	}
	return r.session.SignOut(ctx)
}

func (r *GiteaBackendRepository) fetchProfile(ctx context.Context) (*entities.User, error) {
	profile, err := r.client.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &entities.User{
		ID:         strconv.FormatInt(profile.ID, 10),
		Name:       profile.FullName,
		Login:      profile.Login,
		Email:      profile.Email,
		AvatarURL:  profile.AvatarURL,
		ProfileURL: profile.HTMLURL,
	}, nil
}

func (r *GiteaBackendRepository) FetchFiles(ctx context.Context) ([]entities.RepositoryFile, error) {
	if err := r.ensureBranch(ctx); err != nil {
		return nil, err
	}

	entries, err := r.client.GetTree(ctx, r.info.Owner, r.info.Repo, r.info.Branch)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			logger.Warnf("Branch %q of %s has no tree", r.info.Branch, r.info.FullName())
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repository tree: %w", err)
	}

	var files []entities.RepositoryFile
	for _, entry := range entries {
		if entry.Type != blobType {
			continue
		}
		file := entities.RepositoryFile{Path: entry.Path, SHA: entry.SHA, Size: entry.Size}
		switch r.settings.ClassifyPath(file.Path) {
		case entities.FileKindEntry:
			data, fetchErr := r.FetchBlob(ctx, file)
			if fetchErr != nil {
				return nil, fetchErr
			}
			file.Text = string(data)
		case entities.FileKindMedia:
		case entities.FileKindOther:
			continue
		}
		files = append(files, file)
	}
	return files, nil
}

func (r *GiteaBackendRepository) FetchBlob(
	ctx context.Context,
	file entities.RepositoryFile,
) ([]byte, error) {
	return r.blobs.Fetch(file.SHA, func() ([]byte, error) {
		data, err := r.client.GetBlob(ctx, r.info.Owner, r.info.Repo, file.SHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get blob of %q: %w", file.Path, err)
		}
		return data, nil
	})
}

// CommitChanges sends every change in one ChangeFiles request. Updates and
// deletions need the current blob SHA, which is looked up when unknown.
func (r *GiteaBackendRepository) CommitChanges(
	ctx context.Context,
	changes []entities.FileChange,
	options entities.CommitOptions,
) (*entities.CommitResults, error) {
	if err := r.ensureBranch(ctx); err != nil {
		return nil, err
	}

	request := ChangeFilesRequest{Branch: r.info.Branch, Message: options.Message}
	for _, change := range changes {
		operation, err := r.fileOperation(ctx, change)
		if err != nil {
			return nil, err
		}
		request.Files = append(request.Files, operation)
	}

	response, err := r.client.ChangeFiles(ctx, r.info.Owner, r.info.Repo, request)
	if err != nil {
		return nil, err
	}

	reported := make(map[string]string, len(response.Files))
	for _, file := range response.Files {
		if file != nil {
			reported[file.Path] = file.SHA
		}
	}

	results := &entities.CommitResults{SHA: response.Commit.SHA}
	for _, change := range changes {
		if change.Action == entities.FileDelete {
			continue
		}
		content := change.Content()
		sha := reported[strings.TrimPrefix(change.Path, "/")]
		if sha == "" {
			sha = blobs.SHA(content)
		}
		r.blobs.Add(sha, content)
		results.Files = append(results.Files, entities.CommittedFile{Path: change.Path, SHA: sha})
	}

	logger.Infof("Committed %d change(s) to %s@%s", len(changes), r.info.FullName(), r.info.Branch)
	return results, nil
}

func (r *GiteaBackendRepository) fileOperation(
	ctx context.Context,
	change entities.FileChange,
) (FileOperation, error) {
	operation := FileOperation{Path: strings.TrimPrefix(change.Path, "/")}

	switch change.Action {
	case entities.FileCreate:
		operation.Operation = "create"
	case entities.FileUpdate, entities.FileMove:
		operation.Operation = "update"
	case entities.FileDelete:
		operation.Operation = "delete"
	}

	shaPath := operation.Path
	if change.Action == entities.FileMove {
		operation.FromPath = strings.TrimPrefix(change.PreviousPath, "/")
		shaPath = operation.FromPath
	}

	if change.Action != entities.FileCreate {
		operation.SHA = change.PreviousSHA
		if operation.SHA == "" {
			sha, err := r.client.GetFileSHA(ctx, r.info.Owner, r.info.Repo, shaPath, r.info.Branch)
			if err != nil {
				return operation, err
			}
			operation.SHA = sha
		}
	}

	if change.Action != entities.FileDelete {
		operation.Content = base64.StdEncoding.EncodeToString(change.Content())
	}
	return operation, nil
}

// CheckRepositoryAccess requires push permission on a non-empty repository.
func (r *GiteaBackendRepository) CheckRepositoryAccess(ctx context.Context) error {
	user, err := r.session.User()
	if err != nil {
		return err
	}

	repository, err := r.getRepository(ctx)
	if err != nil {
		return err
	}
	if !repository.Permissions.Push {
		return fmt.Errorf("%w: %s cannot push to %s", entities.ErrNoAccess, user.Login, r.info.FullName())
	}
	if repository.Empty {
		return fmt.Errorf("%w: %s has no commits", entities.ErrEmptyRepository, r.info.FullName())
	}
	if r.info.Branch == "" {
		r.info.SetBranch(repository.DefaultBranch)
	}
	return nil
}

func (r *GiteaBackendRepository) getRepository(ctx context.Context) (*Repository, error) {
	repository, err := r.client.GetRepository(ctx, r.info.Owner, r.info.Repo)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", entities.ErrRepositoryNotFound, r.info.FullName())
		}
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return repository, nil
}

func (r *GiteaBackendRepository) ensureBranch(ctx context.Context) error {
	if r.info == nil {
		return fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}
	if r.info.Branch != "" {
		return nil
	}

	repository, err := r.getRepository(ctx)
	if err != nil {
		return err
	}
	if repository.DefaultBranch == "" || repository.Empty {
		return fmt.Errorf("%w: %s has no default branch", entities.ErrEmptyRepository, r.info.FullName())
	}
	r.info.SetBranch(repository.DefaultBranch)
	logger.Debugf("Resolved default branch %q of %s", r.info.Branch, r.info.FullName())
	return nil
}
