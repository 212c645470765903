package repositories

import (
	"fmt"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	domainRepos "github.com/rios0rios0/headcms/internal/domain/repositories"
)

// BackendFactory is a constructor function that creates a BackendRepository
// storing its session in the given user repository.
type BackendFactory func(users domainRepos.UserRepository) domainRepos.BackendRepository

// BackendRegistry manages all registered backend implementations in
// registration order.
type BackendRegistry struct {
	users     domainRepos.UserRepository
	names     []string
	factories map[string]BackendFactory
}

// NewBackendRegistry creates an empty backend registry.
func NewBackendRegistry(users domainRepos.UserRepository) *BackendRegistry {
	return &BackendRegistry{
		users:     users,
		factories: make(map[string]BackendFactory),
	}
}

// Register adds a backend factory under the given name (e.g. "github").
func (r *BackendRegistry) Register(name string, factory BackendFactory) {
	if _, exists := r.factories[name]; !exists {
		r.names = append(r.names, name)
	}
	r.factories[name] = factory
}

// Get returns a fresh, uninitialised backend instance for the given name.
func (r *BackendRegistry) Get(name string) (domainRepos.BackendRepository, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", entities.ErrInvalidConfig, name)
	}
	return factory(r.users), nil
}

// Names returns the registered backend names in registration order.
func (r *BackendRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

// Select returns the single backend for the site configuration. Every
// registered backend is probed with Init in registration order; the first
// one that recognises the configuration wins. A non-empty localDir forces
// the local backend rooted at that directory.
func (r *BackendRegistry) Select(
	settings *entities.Settings,
	localDir string,
) (domainRepos.BackendRepository, *entities.RepositoryInfo, error) {
	if localDir != "" {
		settings.Backend.Name = entities.BackendLocal
		settings.Backend.LocalRoot = localDir
	}
	if settings.Backend.Name == "" {
		return nil, nil, fmt.Errorf("%w: backend.name is required", entities.ErrInvalidConfig)
	}

	for _, name := range r.names {
		backend := r.factories[name](r.users)
		info, err := backend.Init(settings)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise %s backend: %w", name, err)
		}
		if info != nil {
			return backend, info, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: backend %q is not supported", entities.ErrInvalidConfig, settings.Backend.Name)
}
