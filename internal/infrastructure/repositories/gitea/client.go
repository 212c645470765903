package gitea

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const treePageSize = 1000

// APIError is a non-2xx answer of the Gitea API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func isStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client is a minimal Gitea/Forgejo REST v1 client. Authentication is left
// to the HTTP client's transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for a REST root such as https://gitea.example.com/api/v1.
func NewClient(restBaseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(restBaseURL, "/"),
		httpClient: httpClient,
	}
}

// ServerVersion is the answer of /version.
type ServerVersion struct {
	Version string `json:"version"`
}

// User is the authenticated user.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Repository holds the repository fields the backend needs.
type Repository struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Empty         bool   `json:"empty"`
	Permissions   struct {
		Admin bool `json:"admin"`
		Push  bool `json:"push"`
		Pull  bool `json:"pull"`
	} `json:"permissions"`
}

// TreeEntry is one item of a Git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	SHA        string      `json:"sha"`
	Tree       []TreeEntry `json:"tree"`
	Truncated  bool        `json:"truncated"`
	Page       int         `json:"page"`
	TotalCount int         `json:"total_count"`
}

// FileOperation is one file of a ChangeFiles request.
type FileOperation struct {
	Operation string `json:"operation"` // create, update or delete
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"` // base64
	SHA       string `json:"sha,omitempty"`
	FromPath  string `json:"from_path,omitempty"`
}

// ChangeFilesRequest commits several file operations at once.
type ChangeFilesRequest struct {
	Branch  string          `json:"branch"`
	Message string          `json:"message"`
	Files   []FileOperation `json:"files"`
}

// ChangeFilesResponse is the answer of a ChangeFiles request.
type ChangeFilesResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
	Files []*struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"files"`
}

// GetVersion returns the server version. The endpoint needs no authentication.
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var result ServerVersion
	if err := c.getJSON(ctx, "/version", &result); err != nil {
		return "", fmt.Errorf("failed to get server version: %w", err)
	}
	return result.Version, nil
}

// GetCurrentUser returns the authenticated user.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/user", &user); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetRepository returns repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var result Repository
	if err := c.getJSON(ctx, repoPath(owner, repo), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTree lists every entry of a tree recursively, following pagination.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error) {
	var entries []TreeEntry
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/git/trees/%s?recursive=true&page=%d&per_page=%d",
			repoPath(owner, repo), url.PathEscape(ref), page, treePageSize)

		var result treeResponse
		if err := c.getJSON(ctx, endpoint, &result); err != nil {
			return nil, err
		}
		entries = append(entries, result.Tree...)

		if !result.Truncated || len(result.Tree) == 0 {
			break
		}
	}
	return entries, nil
}

// GetBlob downloads and decodes a blob.
func (c *Client) GetBlob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	var result struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := c.getJSON(ctx, repoPath(owner, repo)+"/git/blobs/"+url.PathEscape(sha), &result); err != nil {
		return nil, err
	}
	if result.Encoding != "base64" {
		return []byte(result.Content), nil
	}
	data, err := base64.StdEncoding.DecodeString(result.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob %s: %w", sha, err)
	}
	return data, nil
}

// GetFileSHA returns the blob SHA of a file on ref.
func (c *Client) GetFileSHA(ctx context.Context, owner, repo, filePath, ref string) (string, error) {
	var result struct {
		SHA string `json:"sha"`
	}
	endpoint := fmt.Sprintf("%s/contents/%s?ref=%s",
		repoPath(owner, repo), escapePath(filePath), url.QueryEscape(ref))
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return "", fmt.Errorf("failed to get SHA of %q: %w", filePath, err)
	}
	return result.SHA, nil
}

// ChangeFiles creates a single commit from several file operations.
func (c *Client) ChangeFiles(
	ctx context.Context,
	owner, repo string,
	request ChangeFilesRequest,
) (*ChangeFilesResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost, repoPath(owner, repo)+"/contents", request)
	if err != nil {
		return nil, fmt.Errorf("failed to change files: %w", err)
	}

	var result ChangeFilesResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse change files response: %w", err)
	}
	return &result, nil
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

func escapePath(filePath string) string {
	segments := strings.Split(strings.TrimPrefix(filePath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to parse response of %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
