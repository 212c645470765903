package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/blobs"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitsession"
)

const (
	backendLabel        = "GitHub"
	blobMode            = "100644"
	blobType            = "blob"
	defaultAuthEndpoint = "login/oauth/authorize"
	tokenEndpoint       = "login/oauth/access_token"
	dispatchEventType   = "headcms-publish"
	headsPrefix         = "refs/heads/"
)

// GitHubBackendRepository implements repositories.BackendRepository for
// github.com and GitHub Enterprise Server.
type GitHubBackendRepository struct {
	users     repositories.UserRepository
	settings  *entities.Settings
	info      *entities.RepositoryInfo
	endpoints *entities.ApiEndpointConfig
	session   *gitsession.Session
	client    *gh.Client
	blobs     *blobs.Cache
	statusURL string
}

// NewGitHubBackendRepository creates a GitHub backend storing its session in users.
func NewGitHubBackendRepository(users repositories.UserRepository) repositories.BackendRepository {
	return &GitHubBackendRepository{
		users:     users,
		blobs:     blobs.NewCache(blobs.DefaultCacheSize),
		statusURL: StatusURL,
	}
}

func (r *GitHubBackendRepository) Name() string  { return entities.BackendGitHub }
func (r *GitHubBackendRepository) Label() string { return backendLabel }
func (r *GitHubBackendRepository) IsGit() bool   { return true }

func (r *GitHubBackendRepository) Endpoints() *entities.ApiEndpointConfig { return r.endpoints }

func (r *GitHubBackendRepository) Init(settings *entities.Settings) (*entities.RepositoryInfo, error) {
	backend := settings.Backend
	if backend.Name != entities.BackendGitHub {
		return nil, nil //nolint:nilnil // not the configured backend
	}

	owner, repo, err := entities.SplitRepository(backend.Repo, false)
	if err != nil {
		return nil, err
	}

	restBaseURL := NormalizeRestBaseURL(backend.APIRoot)
	graphQLBaseURL := NormalizeGraphQLBaseURL(restBaseURL)
	if backend.GraphQLAPIRoot != "" {
		graphQLBaseURL = NormalizeGraphQLBaseURL(backend.GraphQLAPIRoot)
	}
	origin := webOrigin(restBaseURL)
	selfHosted := origin != defaultWebOrigin

	authBase := strings.TrimSuffix(backend.BaseURL, "/")
	if authBase == "" {
		authBase = origin
	}
	authEndpoint := strings.Trim(backend.AuthEndpoint, "/")
	if authEndpoint == "" {
		authEndpoint = defaultAuthEndpoint
	}

	r.settings = settings
	r.endpoints = &entities.ApiEndpointConfig{
		ClientID:       backend.AppID,
		AuthURL:        authBase + "/" + authEndpoint,
		TokenURL:       authBase + "/" + tokenEndpoint,
		Origin:         origin,
		RestBaseURL:    restBaseURL,
		GraphQLBaseURL: graphQLBaseURL,
		AuthScheme:     "Bearer",
	}
	r.info = entities.NewRepositoryInfo(entities.RepositoryInfoInput{
		Service:      entities.BackendGitHub,
		Label:        backendLabel,
		Owner:        owner,
		Repo:         repo,
		Branch:       backend.Branch,
		BaseURL:      origin + "/" + owner + "/" + repo,
		IsSelfHosted: selfHosted,
		TreeSegment:  "/tree/",
		BlobSegment:  "/blob/",
	})
	r.session = gitsession.New(r.info, r.users, r.endpoints, nil, []string{"repo", "user"})

	client := gh.NewClient(r.session.Client())
	if selfHosted {
		client, err = client.WithEnterpriseURLs(restBaseURL+"/", restBaseURL+"/")
		if err != nil {
			return nil, fmt.Errorf("%w: invalid backend.api_root %q: %w", entities.ErrInvalidConfig, backend.APIRoot, err)
		}
	}
	r.client = client

	logger.Debugf("GitHub backend ready for %s (REST %s)", r.info.FullName(), restBaseURL)
	return r.info, nil
}

func (r *GitHubBackendRepository) SignIn(
	ctx context.Context,
	options entities.SignInOptions,
) (*entities.User, error) {
	if r.session == nil {
		return nil, fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}
	return r.session.SignIn(ctx, options, r.fetchProfile)
}

func (r *GitHubBackendRepository) SignOut(ctx context.Context) error {
	if r.session == nil {
		return nil
	}
	return r.session.SignOut(ctx)
}

func (r *GitHubBackendRepository) fetchProfile(ctx context.Context) (*entities.User, error) {
	profile, _, err := r.client.Users.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	return &entities.User{
		ID:         strconv.FormatInt(profile.GetID(), 10),
		Name:       profile.GetName(),
		Login:      profile.GetLogin(),
		Email:      profile.GetEmail(),
		AvatarURL:  profile.GetAvatarURL(),
		ProfileURL: profile.GetHTMLURL(),
	}, nil
}

func (r *GitHubBackendRepository) FetchFiles(ctx context.Context) ([]entities.RepositoryFile, error) {
	if err := r.ensureBranch(ctx); err != nil {
		return nil, err
	}

	tree, _, err := r.client.Git.GetTree(ctx, r.info.Owner, r.info.Repo, r.info.Branch, true)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			logger.Warnf("Repository %s is empty", r.info.FullName())
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repository tree: %w", err)
	}
	if tree.GetTruncated() {
		logger.Warnf("Tree of %s is truncated, some files are not listed", r.info.FullName())
	}

	var files []entities.RepositoryFile
	for _, entry := range tree.Entries {
		if entry.GetType() != blobType {
			continue
		}
		file := entities.RepositoryFile{
			Path: entry.GetPath(),
			SHA:  entry.GetSHA(),
			Size: int64(entry.GetSize()),
		}
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

func (r *GitHubBackendRepository) FetchBlob(
	ctx context.Context,
	file entities.RepositoryFile,
) ([]byte, error) {
	return r.blobs.Fetch(file.SHA, func() ([]byte, error) {
		data, _, err := r.client.Git.GetBlobRaw(ctx, r.info.Owner, r.info.Repo, file.SHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get blob of %q: %w", file.Path, err)
		}
		return data, nil
	})
}

// CommitChanges creates one commit through the Git Data API and moves the
// branch to it.
func (r *GitHubBackendRepository) CommitChanges(
	ctx context.Context,
	changes []entities.FileChange,
	options entities.CommitOptions,
) (*entities.CommitResults, error) {
	if err := r.ensureBranch(ctx); err != nil {
		return nil, err
	}
	owner, repo, branch := r.info.Owner, r.info.Repo, r.info.Branch

	baseRef, _, err := r.client.Git.GetRef(ctx, owner, repo, headsPrefix+branch)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return nil, fmt.Errorf("%w: %s has no commits", entities.ErrEmptyRepository, r.info.FullName())
		}
		return nil, fmt.Errorf("failed to get branch ref: %w", err)
	}
	baseSHA := baseRef.GetObject().GetSHA()

	baseCommit, _, err := r.client.Git.GetCommit(ctx, owner, repo, baseSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to get base commit: %w", err)
	}

	entries, err := r.treeEntries(ctx, changes)
	if err != nil {
		return nil, err
	}

	newTree, _, err := r.client.Git.CreateTree(ctx, owner, repo, baseCommit.GetTree().GetSHA(), entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}

	message := options.Message
	newCommit, _, err := r.client.Git.CreateCommit(
		ctx, owner, repo,
		&gh.Commit{
			Message: &message,
			Tree:    newTree,
			Parents: []*gh.Commit{{SHA: &baseSHA}},
		},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create commit: %w", err)
	}

	ref := headsPrefix + branch
	if _, _, err = r.client.Git.UpdateRef(
		ctx, owner, repo,
		&gh.Reference{Ref: &ref, Object: &gh.GitObject{SHA: newCommit.SHA}},
		false,
	); err != nil {
		return nil, fmt.Errorf("failed to update branch: %w", err)
	}

	results := &entities.CommitResults{SHA: newCommit.GetSHA()}
	for _, change := range changes {
		if change.Action == entities.FileDelete {
			continue
		}
		content := change.Content()
		sha := blobs.SHA(content)
		r.blobs.Add(sha, content)
		results.Files = append(results.Files, entities.CommittedFile{Path: change.Path, SHA: sha})
	}

	logger.Infof("Committed %d change(s) to %s@%s", len(changes), r.info.FullName(), branch)
	return results, nil
}

func (r *GitHubBackendRepository) treeEntries(
	ctx context.Context,
	changes []entities.FileChange,
) ([]*gh.TreeEntry, error) {
	var entries []*gh.TreeEntry
	for _, change := range changes {
		switch change.Action {
		case entities.FileDelete:
			entries = append(entries, deletionEntry(change.Path))
			continue
		case entities.FileMove:
			if change.PreviousPath != "" && change.PreviousPath != change.Path {
				entries = append(entries, deletionEntry(change.PreviousPath))
			}
		case entities.FileCreate, entities.FileUpdate:
		}

		path := strings.TrimPrefix(change.Path, "/")
		mode, entryType := blobMode, blobType
		entry := &gh.TreeEntry{Path: &path, Mode: &mode, Type: &entryType}

		if change.IsBinary() {
			encoding := "base64"
			content := base64.StdEncoding.EncodeToString(change.Data)
			blob, _, err := r.client.Git.CreateBlob(ctx, r.info.Owner, r.info.Repo, &gh.Blob{
				Content:  &content,
				Encoding: &encoding,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create blob for %q: %w", change.Path, err)
			}
			entry.SHA = blob.SHA
		} else {
			text := change.Text
			entry.Content = &text
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// deletionEntry removes path from the tree: an entry without SHA and content.
func deletionEntry(filePath string) *gh.TreeEntry {
	path := strings.TrimPrefix(filePath, "/")
	mode, entryType := blobMode, blobType
	return &gh.TreeEntry{Path: &path, Mode: &mode, Type: &entryType}
}

// TriggerDeployment sends a repository_dispatch event that workflows can listen to.
func (r *GitHubBackendRepository) TriggerDeployment(ctx context.Context) error {
	_, _, err := r.client.Repositories.Dispatch(ctx, r.info.Owner, r.info.Repo, gh.DispatchRequestOptions{
		EventType: dispatchEventType,
	})
	if err != nil {
		return fmt.Errorf("failed to trigger deployment: %w", err)
	}
	return nil
}

// CheckRepositoryAccess verifies the repository exists, has commits and
// accepts pushes from the signed-in user.
func (r *GitHubBackendRepository) CheckRepositoryAccess(ctx context.Context) error {
	user, err := r.session.User()
	if err != nil {
		return err
	}

	meta, err := r.fetchRepositoryMeta(ctx)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("%w: %s does not exist or is not visible to %s",
			entities.ErrRepositoryNotFound, r.info.FullName(), user.Login)
	}
	if !meta.canWrite() {
		return fmt.Errorf("%w: %s has %s permission on %s",
			entities.ErrNoAccess, user.Login, strings.ToLower(meta.ViewerPermission), r.info.FullName())
	}
	if meta.IsEmpty {
		return fmt.Errorf("%w: %s has no commits", entities.ErrEmptyRepository, r.info.FullName())
	}
	if r.info.Branch == "" && meta.DefaultBranchRef != nil {
		r.info.SetBranch(meta.DefaultBranchRef.Name)
	}
	return nil
}

// ensureBranch resolves the default branch when backend.branch is unset.
func (r *GitHubBackendRepository) ensureBranch(ctx context.Context) error {
	if r.info == nil {
		return fmt.Errorf("%w: backend is not initialised", entities.ErrInvalidConfig)
	}
	if r.info.Branch != "" {
		return nil
	}

	meta, err := r.fetchRepositoryMeta(ctx)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("%w: %s", entities.ErrRepositoryNotFound, r.info.FullName())
	}
	if meta.DefaultBranchRef == nil {
		return fmt.Errorf("%w: %s has no default branch", entities.ErrEmptyRepository, r.info.FullName())
	}

	r.info.SetBranch(meta.DefaultBranchRef.Name)
	logger.Debugf("Resolved default branch %q of %s", r.info.Branch, r.info.FullName())
	return nil
}

func isStatus(err error, code int) bool {
	var responseErr *gh.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		return responseErr.Response.StatusCode == code
	}
	return false
}
