package entities

import (
	"fmt"
	"strings"
)

// RepositoryInfo describes the repository the active backend works against.
// It is populated once by Init; only Branch may change afterwards, when the
// default branch is resolved lazily.
type RepositoryInfo struct {
	Service      string
	Label        string
	Owner        string
	Repo         string
	Branch       string
	BaseURL      string // web URL of the repository, e.g. https://github.com/owner/repo
	TreeBaseURL  string
	BlobBaseURL  string
	IsSelfHosted bool
	DatabaseName string

	treeSegment string
	blobSegment string
}

// RepositoryInfoInput carries the values a backend derives during Init.
type RepositoryInfoInput struct {
	Service      string
	Label        string
	Owner        string
	Repo         string
	Branch       string
	BaseURL      string
	IsSelfHosted bool
	TreeSegment  string // path between BaseURL and the branch name, e.g. "/tree/" or "/-/tree/"
	BlobSegment  string
}

// NewRepositoryInfo builds a RepositoryInfo and derives the browse URLs for the branch.
func NewRepositoryInfo(input RepositoryInfoInput) *RepositoryInfo {
	info := &RepositoryInfo{
		Service:      input.Service,
		Label:        input.Label,
		Owner:        input.Owner,
		Repo:         input.Repo,
		BaseURL:      strings.TrimSuffix(input.BaseURL, "/"),
		IsSelfHosted: input.IsSelfHosted,
		DatabaseName: fmt.Sprintf("%s:%s/%s", input.Service, input.Owner, input.Repo),
		treeSegment:  input.TreeSegment,
		blobSegment:  input.BlobSegment,
	}
	info.SetBranch(input.Branch)
	return info
}

// SetBranch updates the branch and the browse URLs that depend on it.
func (r *RepositoryInfo) SetBranch(branch string) {
	r.Branch = branch
	if branch == "" || r.BaseURL == "" {
		r.TreeBaseURL = ""
		r.BlobBaseURL = ""
		return
	}
	if r.treeSegment != "" {
		r.TreeBaseURL = r.BaseURL + r.treeSegment + branch
	}
	if r.blobSegment != "" {
		r.BlobBaseURL = r.BaseURL + r.blobSegment + branch
	}
}

// FullName returns "owner/repo".
func (r *RepositoryInfo) FullName() string {
	return r.Owner + "/" + r.Repo
}

// ApiEndpointConfig holds the OAuth and API roots of the active backend.
//
//nolint:revive // name mirrors the domain vocabulary
type ApiEndpointConfig struct {
	ClientID       string
	AuthURL        string
	TokenURL       string
	Origin         string
	RestBaseURL    string
	GraphQLBaseURL string
	AuthScheme     string // "Bearer" or "token"
}

// SplitRepository parses an "owner/repo" string. With allowNested the owner
// may contain further slashes (GitLab subgroups) and the last segment is the
// repository name.
func SplitRepository(repo string, allowNested bool) (string, string, error) {
	trimmed := strings.Trim(strings.TrimSpace(repo), "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 || idx == len(trimmed)-1 {
		return "", "", fmt.Errorf("%w: backend.repo %q must be in the form owner/repo", ErrInvalidConfig, repo)
	}

	owner, name := trimmed[:idx], trimmed[idx+1:]
	if !allowNested && strings.Contains(owner, "/") {
		return "", "", fmt.Errorf("%w: backend.repo %q must be in the form owner/repo", ErrInvalidConfig, repo)
	}
	for _, segment := range strings.Split(owner, "/") {
		if segment == "" {
			return "", "", fmt.Errorf("%w: backend.repo %q contains an empty segment", ErrInvalidConfig, repo)
		}
	}

	return owner, name, nil
}
