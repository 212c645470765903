//go:build unit

package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/blobs"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/github"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/session"
	"github.com/rios0rios0/headcms/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/headcms/test/infrastructure/repositorydoubles"
)

const repoPath = "/api/v3/repos/owner/site"

// recording holds what the fake API received.
type recording struct {
	treeBody    map[string]any
	commitBody  map[string]any
	refBody     map[string]any
	blobBodies  []map[string]any
	dispatches  []map[string]any
	blobFetches int
	authHeaders []string
	// every Authorization header received, on any endpoint
	credentials []string
}

// fakeGitHub serves the subset of the REST and GraphQL APIs used by the backend.
type fakeGitHub struct {
	mu      sync.Mutex
	graphQL string
	rec     recording
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		graphQL: `{"data":{"repository":{"isEmpty":false,"viewerPermission":"WRITE","defaultBranchRef":{"name":"trunk"}}}}`,
	}
}

func (f *fakeGitHub) recorded() recording {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec
}

func (f *fakeGitHub) decode(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/user", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.authHeaders = append(f.rec.authHeaders, r.Header.Get("Authorization"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":42,"login":"octocat","name":"The Octocat","email":"octo@example.com",` +
			`"avatar_url":"https://avatars.example.com/42","html_url":"https://github.example.com/octocat"}`))
	})
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_, _ = w.Write([]byte(f.graphQL))
	})
	mux.HandleFunc("GET "+repoPath+"/git/trees/{ref}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"tree-main","truncated":false,"tree":[` +
			`{"path":"content/posts/hello.md","mode":"100644","type":"blob","sha":"sha-hello","size":12},` +
			`{"path":"content/posts","mode":"040000","type":"tree","sha":"sha-dir"},` +
			`{"path":"static/images/cat.png","mode":"100644","type":"blob","sha":"sha-cat","size":2048},` +
			`{"path":"README.md","mode":"100644","type":"blob","sha":"sha-readme","size":7}]}`))
	})
	mux.HandleFunc("GET "+repoPath+"/git/blobs/{sha}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.blobFetches++
		f.mu.Unlock()
		if r.PathValue("sha") != "sha-hello" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("---\ntitle: Hello\n---\nBody\n"))
	})
	mux.HandleFunc("POST "+repoPath+"/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.blobBodies = append(f.rec.blobBodies, f.decode(r))
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sha":"blob-binary"}`))
	})
	mux.HandleFunc("GET "+repoPath+"/git/ref/heads/{branch}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ref":"refs/heads/main","object":{"sha":"commit-base","type":"commit"}}`))
	})
	mux.HandleFunc("GET "+repoPath+"/git/commits/{sha}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"commit-base","tree":{"sha":"tree-base"}}`))
	})
	mux.HandleFunc("POST "+repoPath+"/git/trees", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.treeBody = f.decode(r)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sha":"tree-new"}`))
	})
	mux.HandleFunc("POST "+repoPath+"/git/commits", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.commitBody = f.decode(r)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sha":"commit-new"}`))
	})
	mux.HandleFunc("PATCH "+repoPath+"/git/refs/heads/{branch}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.refBody = f.decode(r)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ref":"refs/heads/main","object":{"sha":"commit-new"}}`))
	})
	mux.HandleFunc("POST "+repoPath+"/dispatches", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rec.dispatches = append(f.rec.dispatches, f.decode(r))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			f.mu.Lock()
			f.rec.credentials = append(f.rec.credentials, header)
			f.mu.Unlock()
		}
		mux.ServeHTTP(w, r)
	})
}

func postsSettings(serverURL, branch string) *entities.Settings {
	return entitybuilders.NewSettingsBuilder().
		WithAPIRoot(serverURL).
		WithBranch(branch).
		WithCollection(entitybuilders.NewCollectionBuilder().BuildCollection()).
		BuildSettings()
}

// githubDotComUser is a stored session of owner/site on github.com.
func githubDotComUser(token string) *entities.User {
	return &entities.User{
		BackendName:  entities.BackendGitHub,
		DatabaseName: "github:owner/site",
		APIRoot:      "https://api.github.com",
		Login:        "octocat",
		Token:        token,
	}
}

// signedInBackend starts the fake API and returns a backend signed in with a token.
func signedInBackend(t *testing.T, fake *fakeGitHub, branch string) repositories.BackendRepository {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
	info, err := backend.Init(postsSettings(server.URL, branch))
	require.NoError(t, err)
	require.NotNil(t, info)

	_, err = backend.SignIn(context.Background(), entities.SignInOptions{Token: "ghp-test"})
	require.NoError(t, err)
	return backend
}

func TestGitHubBackendRepository_Init(t *testing.T) {
	t.Parallel()

	t.Run("should ignore settings for another backend", func(t *testing.T) {
		t.Parallel()
		// given
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		settings := entitybuilders.NewSettingsBuilder().WithBackend(entities.BackendGitLab).BuildSettings()

		// when
		info, err := backend.Init(settings)

		// then
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("should derive github.com endpoints by default", func(t *testing.T) {
		t.Parallel()
		// given
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()

		// when
		info, err := backend.Init(settings)

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner", info.Owner)
		assert.Equal(t, "site", info.Repo)
		assert.Equal(t, "https://github.com/owner/site", info.BaseURL)
		assert.Equal(t, "https://github.com/owner/site/tree/main", info.TreeBaseURL)
		assert.Equal(t, "https://github.com/owner/site/blob/main", info.BlobBaseURL)
		assert.False(t, info.IsSelfHosted)
		assert.Equal(t, "github:owner/site", info.DatabaseName)

		endpoints := backend.Endpoints()
		assert.Equal(t, "https://api.github.com", endpoints.RestBaseURL)
		assert.Equal(t, "https://api.github.com/graphql", endpoints.GraphQLBaseURL)
		assert.Equal(t, "https://github.com/login/oauth/authorize", endpoints.AuthURL)
		assert.Equal(t, "https://github.com/login/oauth/access_token", endpoints.TokenURL)
	})

	t.Run("should derive enterprise endpoints from the API root", func(t *testing.T) {
		t.Parallel()
		// given
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		settings := entitybuilders.NewSettingsBuilder().WithAPIRoot("https://github.example.com/api/v3").BuildSettings()

		// when
		info, err := backend.Init(settings)

		// then
		require.NoError(t, err)
		assert.True(t, info.IsSelfHosted)
		assert.Equal(t, "https://github.example.com/owner/site", info.BaseURL)
		assert.Equal(t, "https://github.example.com/api/graphql", backend.Endpoints().GraphQLBaseURL)
		assert.Equal(t, "https://github.example.com/login/oauth/authorize", backend.Endpoints().AuthURL)
	})

	t.Run("should reject a repository without owner", func(t *testing.T) {
		t.Parallel()
		// given
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		settings := entitybuilders.NewSettingsBuilder().WithRepo("site").BuildSettings()

		// when
		_, err := backend.Init(settings)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
	})
}

func TestGitHubBackendRepository_SignIn(t *testing.T) {
	t.Parallel()

	t.Run("should fetch the profile and persist the session for a token", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		server := httptest.NewServer(fake.handler())
		t.Cleanup(server.Close)
		users := doubles.NewStubUserRepository()
		backend := github.NewGitHubBackendRepository(users)
		info, err := backend.Init(postsSettings(server.URL, "main"))
		require.NoError(t, err)

		// when
		user, err := backend.SignIn(context.Background(), entities.SignInOptions{Token: "ghp-test"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "octocat", user.Login)
		assert.Equal(t, "42", user.ID)
		assert.Equal(t, "ghp-test", user.Token)
		assert.Equal(t, entities.BackendGitHub, user.BackendName)
		assert.Equal(t, []string{"Bearer ghp-test"}, fake.recorded().authHeaders)
		stored := users.Stored(info.DatabaseName)
		require.NotNil(t, stored)
		assert.Equal(t, "octocat", stored.Login)
		assert.Equal(t, server.URL+"/api/v3", stored.APIRoot)
	})

	t.Run("should restore a stored session without network calls", func(t *testing.T) {
		t.Parallel()
		// given
		stored := githubDotComUser("stored")
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository(stored))
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().BuildSettings())
		require.NoError(t, err)

		// when
		user, err := backend.SignIn(context.Background(), entities.SignInOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, "stored", user.Token)
	})

	t.Run("should fail without token or stored session", func(t *testing.T) {
		t.Parallel()
		// given
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().BuildSettings())
		require.NoError(t, err)

		// when
		_, err = backend.SignIn(context.Background(), entities.SignInOptions{})

		// then
		require.ErrorIs(t, err, entities.ErrNotSignedIn)
	})

	t.Run("should remove the stored session on sign out", func(t *testing.T) {
		t.Parallel()
		// given
		stored := githubDotComUser("stored")
		users := doubles.NewStubUserRepository(stored)
		backend := github.NewGitHubBackendRepository(users)
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().BuildSettings())
		require.NoError(t, err)

		// when
		err = backend.SignOut(context.Background())

		// then
		require.NoError(t, err)
		assert.Nil(t, users.Stored("github:owner/site"))
	})
}

func TestGitHubBackendRepository_FetchFiles(t *testing.T) {
	t.Parallel()

	t.Run("should list entries with text and media without content", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		backend := signedInBackend(t, fake, "main")

		// when
		files, err := backend.FetchFiles(context.Background())

		// then
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "content/posts/hello.md", files[0].Path)
		assert.Equal(t, "---\ntitle: Hello\n---\nBody\n", files[0].Text)
		assert.Equal(t, "static/images/cat.png", files[1].Path)
		assert.Equal(t, int64(2048), files[1].Size)
		assert.Empty(t, files[1].Text)
		assert.Equal(t, 1, fake.recorded().blobFetches)
	})

	t.Run("should serve repeated blob reads from the cache", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		backend := signedInBackend(t, fake, "main")
		file := entities.RepositoryFile{Path: "content/posts/hello.md", SHA: "sha-hello"}
		_, err := backend.FetchBlob(context.Background(), file)
		require.NoError(t, err)

		// when
		data, err := backend.FetchBlob(context.Background(), file)

		// then
		require.NoError(t, err)
		assert.Contains(t, string(data), "title: Hello")
		assert.Equal(t, 1, fake.recorded().blobFetches)
	})

	t.Run("should resolve the default branch when none is configured", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		server := httptest.NewServer(fake.handler())
		t.Cleanup(server.Close)
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		info, err := backend.Init(postsSettings(server.URL, ""))
		require.NoError(t, err)
		_, err = backend.SignIn(context.Background(), entities.SignInOptions{Token: "ghp-test"})
		require.NoError(t, err)

		// when
		_, err = backend.FetchFiles(context.Background())

		// then
		require.NoError(t, err)
		assert.Equal(t, "trunk", info.Branch)
		assert.Equal(t, server.URL+"/owner/site/tree/trunk", info.TreeBaseURL)
	})
}

func TestGitHubBackendRepository_CommitChanges(t *testing.T) {
	t.Parallel()

	t.Run("should write every change in one tree and move the branch", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		backend := signedInBackend(t, fake, "main")
		changes := []entities.FileChange{
			{Action: entities.FileCreate, Path: "content/posts/new.md", Text: "new"},
			{
				Action:       entities.FileMove,
				Path:         "content/posts/renamed.md",
				PreviousPath: "content/posts/old.md",
				Text:         "moved",
			},
			{Action: entities.FileDelete, Path: "content/posts/gone.md"},
		}

		// when
		result, err := backend.CommitChanges(context.Background(), changes, entities.CommitOptions{Message: "Update posts"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "commit-new", result.SHA)
		require.Len(t, result.Files, 2)
		assert.Equal(t, entities.CommittedFile{Path: "content/posts/new.md", SHA: blobs.SHA([]byte("new"))}, result.Files[0])
		assert.Equal(t, "content/posts/renamed.md", result.Files[1].Path)

		assert.Equal(t, "tree-base", fake.recorded().treeBody["base_tree"])
		entries, ok := fake.recorded().treeBody["tree"].([]any)
		require.True(t, ok)
		require.Len(t, entries, 4)
		assert.Equal(t, "new", entries[0].(map[string]any)["content"])
		assert.Equal(t, "content/posts/old.md", entries[1].(map[string]any)["path"])
		assert.Contains(t, entries[1].(map[string]any), "sha")
		assert.Nil(t, entries[1].(map[string]any)["sha"])
		assert.Equal(t, "content/posts/gone.md", entries[3].(map[string]any)["path"])
		assert.Nil(t, entries[3].(map[string]any)["sha"])

		assert.Equal(t, "Update posts", fake.recorded().commitBody["message"])
		assert.Equal(t, "tree-new", fake.recorded().commitBody["tree"])
		assert.Equal(t, []any{"commit-base"}, fake.recorded().commitBody["parents"])
		assert.Equal(t, "commit-new", fake.recorded().refBody["sha"])
		assert.Equal(t, false, fake.recorded().refBody["force"])
	})

	t.Run("should upload binary content as a base64 blob", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		backend := signedInBackend(t, fake, "main")
		changes := []entities.FileChange{
			{Action: entities.FileCreate, Path: "static/images/dot.png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
		}

		// when
		result, err := backend.CommitChanges(context.Background(), changes, entities.CommitOptions{Message: "Upload"})

		// then
		require.NoError(t, err)
		require.Len(t, fake.recorded().blobBodies, 1)
		assert.Equal(t, "base64", fake.recorded().blobBodies[0]["encoding"])
		assert.Equal(t, "iVBORw==", fake.recorded().blobBodies[0]["content"])
		entries := fake.recorded().treeBody["tree"].([]any)
		assert.Equal(t, "blob-binary", entries[0].(map[string]any)["sha"])
		assert.Equal(t, blobs.SHA([]byte{0x89, 0x50, 0x4e, 0x47}), result.Files[0].SHA)
	})
}

func TestGitHubBackendRepository_CheckRepositoryAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		expected error
	}{
		{
			name:     "should accept a writable repository",
			response: `{"data":{"repository":{"isEmpty":false,"viewerPermission":"ADMIN","defaultBranchRef":{"name":"main"}}}}`,
		},
		{
			name:     "should reject a read only repository",
			response: `{"data":{"repository":{"isEmpty":false,"viewerPermission":"READ","defaultBranchRef":{"name":"main"}}}}`,
			expected: entities.ErrNoAccess,
		},
		{
			name:     "should reject an empty repository",
			response: `{"data":{"repository":{"isEmpty":true,"viewerPermission":"WRITE","defaultBranchRef":null}}}`,
			expected: entities.ErrEmptyRepository,
		},
		{
			name:     "should reject a missing repository",
			response: `{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve"}]}`,
			expected: entities.ErrRepositoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// given
			fake := newFakeGitHub()
			fake.graphQL = tt.response
			backend := signedInBackend(t, fake, "main")

			// when
			err := backend.(repositories.RepositoryAccessChecker).CheckRepositoryAccess(context.Background())

			// then
			if tt.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("should require a signed in user", func(t *testing.T) {
		t.Parallel()
		// given
		backend := github.NewGitHubBackendRepository(doubles.NewStubUserRepository())
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().BuildSettings())
		require.NoError(t, err)

		// when
		err = backend.(repositories.RepositoryAccessChecker).CheckRepositoryAccess(context.Background())

		// then
		require.ErrorIs(t, err, entities.ErrNotSignedIn)
	})
}

func TestGitHubBackendRepository_TriggerDeployment(t *testing.T) {
	t.Parallel()

	t.Run("should send a repository dispatch event", func(t *testing.T) {
		t.Parallel()
		// given
		fake := newFakeGitHub()
		backend := signedInBackend(t, fake, "main")

		// when
		err := backend.(repositories.DeploymentTrigger).TriggerDeployment(context.Background())

		// then
		require.NoError(t, err)
		require.Len(t, fake.recorded().dispatches, 1)
		assert.Equal(t, "headcms-publish", fake.recorded().dispatches[0]["event_type"])
	})
}

func TestGitHubBackendRepository_SessionScope(t *testing.T) {
	t.Parallel()

	t.Run("should not restore the session of another repository", func(t *testing.T) {
		t.Parallel()
		// given
		store, err := session.NewInMemoryUserRepository()
		require.NoError(t, err)
		defer store.Close()
		fakeA, fakeB := newFakeGitHub(), newFakeGitHub()
		serverA := httptest.NewServer(fakeA.handler())
		t.Cleanup(serverA.Close)
		serverB := httptest.NewServer(fakeB.handler())
		t.Cleanup(serverB.Close)

		backendA := github.NewGitHubBackendRepository(store)
		_, err = backendA.Init(postsSettings(serverA.URL, "main"))
		require.NoError(t, err)
		_, err = backendA.SignIn(context.Background(), entities.SignInOptions{Token: "token-for-host-A"})
		require.NoError(t, err)

		backendB := github.NewGitHubBackendRepository(store)
		infoB, err := backendB.Init(entitybuilders.NewSettingsBuilder().
			WithAPIRoot(serverB.URL).
			WithRepo("other/repo").
			BuildSettings())
		require.NoError(t, err)

		// when
		_, err = backendB.SignIn(context.Background(), entities.SignInOptions{})

		// then
		require.ErrorIs(t, err, entities.ErrNotSignedIn)
		assert.Equal(t, "github:other/repo", infoB.DatabaseName)
		_, err = backendB.FetchFiles(context.Background())
		require.Error(t, err)
		assert.Empty(t, fakeB.recorded().credentials)
		assert.Contains(t, fakeA.recorded().credentials, "Bearer token-for-host-A")
	})

	t.Run("should not send a stored token to a different host of the same repository", func(t *testing.T) {
		t.Parallel()
		// given
		store, err := session.NewInMemoryUserRepository()
		require.NoError(t, err)
		defer store.Close()
		require.NoError(t, store.Save(context.Background(), githubDotComUser("github-dot-com-token")))
		fake := newFakeGitHub()
		server := httptest.NewServer(fake.handler())
		t.Cleanup(server.Close)

		backend := github.NewGitHubBackendRepository(store)
		info, err := backend.Init(postsSettings(server.URL, "main"))
		require.NoError(t, err)

		// when
		_, err = backend.SignIn(context.Background(), entities.SignInOptions{})

		// then
		assert.Equal(t, "github:owner/site", info.DatabaseName)
		require.ErrorIs(t, err, entities.ErrNotSignedIn)
	})

	t.Run("should restore the session stored for the same repository and host", func(t *testing.T) {
		t.Parallel()
		// given
		store, err := session.NewInMemoryUserRepository()
		require.NoError(t, err)
		defer store.Close()
		fake := newFakeGitHub()
		server := httptest.NewServer(fake.handler())
		t.Cleanup(server.Close)

		first := github.NewGitHubBackendRepository(store)
		_, err = first.Init(postsSettings(server.URL, "main"))
		require.NoError(t, err)
		_, err = first.SignIn(context.Background(), entities.SignInOptions{Token: "ghp-test"})
		require.NoError(t, err)

		second := github.NewGitHubBackendRepository(store)
		_, err = second.Init(postsSettings(server.URL, "main"))
		require.NoError(t, err)

		// when
		user, err := second.SignIn(context.Background(), entities.SignInOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, "ghp-test", user.Token)
		assert.Equal(t, "octocat", user.Login)
	})
}
