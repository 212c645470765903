//go:build unit

package commands_test

import (
	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/headcms/internal/infrastructure/repositories"
	"github.com/rios0rios0/headcms/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/headcms/test/infrastructure/repositorydoubles"
)

const helloText = "---\ntitle: Hello\n---\nBody\n"

// registryWith registers backend under its own name.
func registryWith(backend repositories.BackendRepository) *infraRepos.BackendRegistry {
	registry := infraRepos.NewBackendRegistry(doubles.NewStubUserRepository())
	registry.Register(backend.Name(), func(_ repositories.UserRepository) repositories.BackendRepository {
		return backend
	})
	return registry
}

// newHostedSpy returns a GitHub spy holding one post and one image.
func newHostedSpy() *doubles.SpyHostedBackendRepository {
	return &doubles.SpyHostedBackendRepository{
		SpyBackendRepository: &doubles.SpyBackendRepository{
			BackendName: entities.BackendGitHub,
			Files: []entities.RepositoryFile{
				{Path: "content/posts/hello.md", SHA: "sha-hello", Text: helloText},
				{Path: "static/images/cat.png", SHA: "sha-cat", Size: 3},
			},
		},
		Status: entities.HealthNone,
	}
}

func postsSettings() *entities.Settings {
	return entitybuilders.NewSettingsBuilder().
		WithCollection(entitybuilders.NewCollectionBuilder().BuildCollection()).
		BuildSettings()
}

func boolPtr(value bool) *bool {
	return &value
}
