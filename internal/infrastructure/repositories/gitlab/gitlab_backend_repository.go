package gitlab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/blobs"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitsession"
)

const (
	backendLabel = "GitLab"
	perPage      = 100
	blobType     = "blob"
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// GitLabBackendRepository implements repositories.BackendRepository for
// gitlab.com and self-managed GitLab. Nested groups are supported.
type GitLabBackendRepository struct {
	users     repositories.UserRepository
	settings  *entities.Settings
	info      *entities.RepositoryInfo
	endpoints *entities.ApiEndpointConfig
	session   *gitsession.Session
	client    *gl.Client
	blobs     *blobs.Cache
	statusURL string
}

// NewGitLabBackendRepository creates a GitLab backend storing its session in users.
func NewGitLabBackendRepository(users repositories.UserRepository) repositories.BackendRepository {
	return &GitLabBackendRepository{
		users:     users,
		blobs:     blobs.NewCache(blobs.DefaultCacheSize),
		statusURL: StatusURL,
	}
}

func (r *GitLabBackendRepository) Name() string  { return entities.BackendGitLab }
func (r *GitLabBackendRepository) Label() string { return backendLabel }
func (r *GitLabBackendRepository) IsGit() bool   { return true }

func (r *GitLabBackendRepository) Endpoints() *entities.ApiEndpointConfig { return r.endpoints }

func (r *GitLabBackendRepository) Init(settings *entities.Settings) (*entities.RepositoryInfo, error) {
	backend := settings.Backend
	if backend.Name != entities.BackendGitLab {
		return nil, nil //nolint:nilnil // not the configured backend
	}

	owner, repo, err := entities.SplitRepository(backend.Repo, true)
	if err != nil {
		return nil, err
	}

	apiSource := backend.APIRoot
	if apiSource == "" {
		apiSource = backend.BaseURL
	}
	origin := Origin(apiSource)
	restBaseURL := NormalizeRestBaseURL(origin)
	graphQLBaseURL := NormalizeGraphQLBaseURL(origin)
	if backend.GraphQLAPIRoot != "" {
		graphQLBaseURL = strings.TrimRight(backend.GraphQLAPIRoot, "/")
	}

	authBase := strings.TrimSuffix(backend.BaseURL, "/")
	if authBase == "" {
		authBase = origin
	}
	authEndpoint := strings.Trim(backend.AuthEndpoint, "/")
	if authEndpoint == "" {
		authEndpoint = "oauth/authorize"
	}

	r.settings = settings
	r.endpoints = &entities.ApiEndpointConfig{
		ClientID:       backend.AppID,
		AuthURL:        authBase + "/" + authEndpoint,
		TokenURL:       authBase + "/oauth/token",
		Origin:         origin,
		RestBaseURL:    restBaseURL,
		GraphQLBaseURL: graphQLBaseURL,
		AuthScheme:     "Bearer",
	}
	r.info = entities.NewRepositoryInfo(entities.RepositoryInfoInput{
		Service:      entities.BackendGitLab,
		Label:        backendLabel,
		Owner:        owner,
		Repo:         repo,
		Branch:       backend.Branch,
		BaseURL:      origin + "/" + owner + "/" + repo,
		IsSelfHosted: origin != defaultOrigin,
		TreeSegment:  "/-/tree/",
		BlobSegment:  "/-/blob/",
	})
	r.session = gitsession.New(r.info, r.users, r.endpoints, nil, []string{"api"})

	// the guarded transport replaces the header with the current token
	r.client, err = gl.NewOAuthClient("",
		gl.WithBaseURL(restBaseURL),
		gl.WithHTTPClient(r.session.Client()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid GitLab API root %q: %w", entities.ErrInvalidConfig, restBaseURL, err)
	}

	logger.Debugf("GitLab backend ready for %s (REST %s)", r.info.FullName(), restBaseURL)
	return r.info, nil
}

func (r *GitLabBackendRepository) SignIn(
	ctx context.Context,
	options entities.SignInOptions,
) (*entities.User, error) {
	if r.session == nil {
		return nil, fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}
	return r.session.SignIn(ctx, options, r.fetchProfile)
}

func (r *GitLabBackendRepository) SignOut(ctx context.Context) error {
	if r.session == nil {
		return nil
	}
	return r.session.SignOut(ctx)
}

func (r *GitLabBackendRepository) fetchProfile(ctx context.Context) (*entities.User, error) {
	profile, _, err := r.client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &entities.User{
		ID:         strconv.FormatInt(int64(profile.ID), 10),
		Name:       profile.Name,
		Login:      profile.Username,
		Email:      profile.Email,
		AvatarURL:  profile.AvatarURL,
		ProfileURL: profile.WebURL,
	}, nil
}

func (r *GitLabBackendRepository) projectID() string {
	return r.info.FullName()
}

func (r *GitLabBackendRepository) FetchFiles(ctx context.Context) ([]entities.RepositoryFile, error) {
	if err := r.ensureBranch(ctx); err != nil {
		return nil, err
	}

	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Ref:         gl.Ptr(r.info.Branch),
		Recursive:   gl.Ptr(true),
	}

	var files []entities.RepositoryFile
	for {
		nodes, resp, err := r.client.Repositories.ListTree(r.projectID(), opts, gl.WithContext(ctx))
		if err != nil {
			if isStatus(err, http.StatusNotFound) {
				logger.Warnf("Branch %q of %s has no tree", r.info.Branch, r.info.FullName())
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list tree: %w", err)
		}

		for _, node := range nodes {
			if node.Type != blobType {
				continue
			}
			file := entities.RepositoryFile{Path: node.Path, SHA: node.ID}
			switch r.settings.ClassifyPath(file.Path) {
			case entities.FileKindEntry:
				data, fetchErr := r.FetchBlob(ctx, file)
				if fetchErr != nil {
					return nil, fetchErr
				}
				file.Text = string(data)
				file.Size = int64(len(data))
			case entities.FileKindMedia:
			case entities.FileKindOther:
				continue
			}
			files = append(files, file)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

func (r *GitLabBackendRepository) FetchBlob(
	ctx context.Context,
	file entities.RepositoryFile,
) ([]byte, error) {
	if r.client == nil {
		return nil, errClientNotInitialized
	}
	return r.blobs.Fetch(file.SHA, func() ([]byte, error) {
		data, _, err := r.client.Repositories.RawBlobContent(r.projectID(), file.SHA, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to get blob of %q: %w", file.Path, err)
		}
		return data, nil
	})
}

// CommitChanges posts all changes as the actions of a single commit.
func (r *GitLabBackendRepository) CommitChanges(
	ctx context.Context,
	changes []entities.FileChange,
	options entities.CommitOptions,
) (*entities.CommitResults, error) {
	if err := r.ensureBranch(ctx); err != nil {
		return nil, err
	}

	actions := make([]*gl.CommitActionOptions, 0, len(changes))
	for _, change := range changes {
		actions = append(actions, commitAction(change))
	}

	commit, _, err := r.client.Commits.CreateCommit(
		r.projectID(),
		&gl.CreateCommitOptions{
			Branch:        gl.Ptr(r.info.Branch),
			CommitMessage: gl.Ptr(options.Message),
			Actions:       actions,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create commit: %w", err)
	}

	results := &entities.CommitResults{SHA: commit.ID}
	for _, change := range changes {
		if change.Action == entities.FileDelete {
			continue
		}
		content := change.Content()
		sha := blobs.SHA(content)
		r.blobs.Add(sha, content)
		results.Files = append(results.Files, entities.CommittedFile{Path: change.Path, SHA: sha})
	}

	logger.Infof("Committed %d change(s) to %s@%s", len(changes), r.info.FullName(), r.info.Branch)
	return results, nil
}

func commitAction(change entities.FileChange) *gl.CommitActionOptions {
	filePath := strings.TrimPrefix(change.Path, "/")

	var action gl.FileActionValue
	switch change.Action {
	case entities.FileCreate:
		action = gl.FileCreate
	case entities.FileUpdate:
		action = gl.FileUpdate
	case entities.FileDelete:
		return &gl.CommitActionOptions{Action: gl.Ptr(gl.FileDelete), FilePath: &filePath}
	case entities.FileMove:
		action = gl.FileMove
	}

	options := &gl.CommitActionOptions{Action: &action, FilePath: &filePath}
	if change.Action == entities.FileMove {
		options.PreviousPath = gl.Ptr(strings.TrimPrefix(change.PreviousPath, "/"))
	}
	if change.IsBinary() {
		options.Content = gl.Ptr(base64.StdEncoding.EncodeToString(change.Data))
		options.Encoding = gl.Ptr("base64")
	} else {
		options.Content = gl.Ptr(change.Text)
	}
	return options
}

// CheckRepositoryAccess requires at least developer access and a non-empty repository.
func (r *GitLabBackendRepository) CheckRepositoryAccess(ctx context.Context) error {
	user, err := r.session.User()
	if err != nil {
		return err
	}

	project, err := r.getProject(ctx)
	if err != nil {
		return err
	}
	if accessLevel(project) < gl.DeveloperPermissions {
		return fmt.Errorf("%w: %s needs at least developer access to %s",
			entities.ErrNoAccess, user.Login, r.info.FullName())
	}
	if project.EmptyRepo {
		return fmt.Errorf("%w: %s has no commits", entities.ErrEmptyRepository, r.info.FullName())
	}
	if r.info.Branch == "" {
		r.info.SetBranch(project.DefaultBranch)
	}
	return nil
}

func (r *GitLabBackendRepository) getProject(ctx context.Context) (*gl.Project, error) {
	if r.client == nil {
		return nil, errClientNotInitialized
	}
	project, _, err := r.client.Projects.GetProject(r.projectID(), &gl.GetProjectOptions{}, gl.WithContext(ctx))
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", entities.ErrRepositoryNotFound, r.info.FullName())
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func accessLevel(project *gl.Project) gl.AccessLevelValue {
	level := gl.NoPermissions
	if project.Permissions == nil {
		return level
	}
	if access := project.Permissions.ProjectAccess; access != nil && access.AccessLevel > level {
		level = access.AccessLevel
	}
	if access := project.Permissions.GroupAccess; access != nil && access.AccessLevel > level {
		level = access.AccessLevel
	}
	return level
}

func (r *GitLabBackendRepository) ensureBranch(ctx context.Context) error {
	if r.info == nil {
		return fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}
	if r.info.Branch != "" {
		return nil
	}

	project, err := r.getProject(ctx)
	if err != nil {
		return err
	}
	if project.DefaultBranch == "" {
		return fmt.Errorf("%w: %s has no default branch", entities.ErrEmptyRepository, r.info.FullName())
	}
	r.info.SetBranch(project.DefaultBranch)
	logger.Debugf("Resolved default branch %q of %s", r.info.Branch, r.info.FullName())
	return nil
}

func isStatus(err error, code int) bool {
	var responseErr *gl.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		return responseErr.Response.StatusCode == code
	}
	return false
}
