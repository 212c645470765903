//go:build unit

package gitlab_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitlab"
	"github.com/rios0rios0/headcms/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/headcms/test/infrastructure/repositorydoubles"
)

func TestMapStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     int
		expected entities.HealthStatus
	}{
		{code: 100, expected: entities.HealthNone},
		{code: 200, expected: entities.HealthMinor},
		{code: 300, expected: entities.HealthMinor},
		{code: 400, expected: entities.HealthMinor},
		{code: 500, expected: entities.HealthMajor},
		{code: 600, expected: entities.HealthMajor},
		{code: 0, expected: entities.HealthUnknown},
		{code: 700, expected: entities.HealthUnknown},
	}

	for _, tt := range tests {
		t.Run("should map "+strconv.Itoa(tt.code), func(t *testing.T) {
			t.Parallel()
			// given
			code := tt.code

			// when
			result := gitlab.MapStatusCode(code)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGitLabBackendRepository_CheckStatus(t *testing.T) {
	t.Parallel()

	t.Run("should read the overall status code", func(t *testing.T) {
		t.Parallel()
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"result":{"status_overall":{"status_code":500,"status":"Major Outage"}}}`))
		}))
		t.Cleanup(server.Close)
		backend := gitlab.NewGitLabBackendRepository(doubles.NewStubUserRepository())
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().WithBackend(entities.BackendGitLab).BuildSettings())
		require.NoError(t, err)
		gitlab.SetStatusURL(backend, server.URL)

		// when
		result := backend.(repositories.StatusChecker).CheckStatus(context.Background())

		// then
		assert.Equal(t, entities.HealthMajor, result)
	})

	t.Run("should report unknown when the status page is unreachable", func(t *testing.T) {
		t.Parallel()
		// given
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		backend := gitlab.NewGitLabBackendRepository(doubles.NewStubUserRepository())
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().WithBackend(entities.BackendGitLab).BuildSettings())
		require.NoError(t, err)
		gitlab.SetStatusURL(backend, server.URL)

		// when
		result := backend.(repositories.StatusChecker).CheckStatus(context.Background())

		// then
		assert.Equal(t, entities.HealthUnknown, result)
	})

	t.Run("should report unknown for self-hosted instances without polling the public page", func(t *testing.T) {
		t.Parallel()
		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"result":{"status_overall":{"status_code":100}}}`))
		}))
		t.Cleanup(server.Close)
		backend := gitlab.NewGitLabBackendRepository(doubles.NewStubUserRepository())
		_, err := backend.Init(entitybuilders.NewSettingsBuilder().
			WithBackend(entities.BackendGitLab).
			WithAPIRoot("https://gitlab.example.com/api/v4").
			BuildSettings())
		require.NoError(t, err)
		gitlab.SetStatusURL(backend, server.URL)

		// when
		result := backend.(repositories.StatusChecker).CheckStatus(context.Background())

		// then
		assert.Equal(t, entities.HealthUnknown, result)
		assert.Zero(t, calls.Load())
	})
}
