package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/headcms/internal/domain/repositories"
	giteaRepo "github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitea"
	ghRepo "github.com/rios0rios0/headcms/internal/infrastructure/repositories/github"
	glRepo "github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitlab"
	localRepo "github.com/rios0rios0/headcms/internal/infrastructure/repositories/local"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/session"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register the session store shared by every backend
	if err := container.Provide(func() domainRepos.UserRepository {
		return session.NewDefaultUserRepository()
	}); err != nil {
		return err
	}

	// Register backend registry with all backend factories, probed in this order
	if err := container.Provide(func(users domainRepos.UserRepository) *BackendRegistry {
		reg := NewBackendRegistry(users)
		reg.Register("github", ghRepo.NewGitHubBackendRepository)
		reg.Register("gitlab", glRepo.NewGitLabBackendRepository)
		reg.Register("gitea", giteaRepo.NewGiteaBackendRepository)
		reg.Register("local", localRepo.NewLocalBackendRepository)
		return reg
	}); err != nil {
		return err
	}

	return nil
}
