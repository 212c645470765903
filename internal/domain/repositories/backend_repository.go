package repositories

import (
	"context"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// BackendRepository abstracts where content is persisted: a Git hosting
// service (GitHub, GitLab, Gitea/Forgejo) or a local directory. Exactly one
// backend is active per session.
type BackendRepository interface {
	// Name returns the backend identifier (e.g. "github", "gitlab", "gitea", "local").
	Name() string

	// Label returns a human readable service name.
	Label() string

	// IsGit reports whether commits end up in a Git hosting service.
	IsGit() bool

	// Init reads the site configuration and populates the repository and API
	// endpoint information. It returns (nil, nil) when the configured backend
	// is not handled by this implementation, so callers can probe backends.
	Init(settings *entities.Settings) (*entities.RepositoryInfo, error)

	// Endpoints returns the API endpoint configuration populated by Init.
	Endpoints() *entities.ApiEndpointConfig

	// SignIn obtains credentials, fetches the user profile and persists the session.
	SignIn(ctx context.Context, options entities.SignInOptions) (*entities.User, error)

	// SignOut forgets the stored session.
	SignOut(ctx context.Context) error

	// FetchFiles lists the entry and media files of the configured branch.
	FetchFiles(ctx context.Context) ([]entities.RepositoryFile, error)

	// FetchBlob downloads the raw content of a file.
	FetchBlob(ctx context.Context, file entities.RepositoryFile) ([]byte, error)

	// CommitChanges applies all changes as one commit where the service allows it.
	CommitChanges(
		ctx context.Context,
		changes []entities.FileChange,
		options entities.CommitOptions,
	) (*entities.CommitResults, error)
}

// StatusChecker is implemented by backends whose service publishes a status page.
type StatusChecker interface {
	// CheckStatus never fails; any problem yields entities.HealthUnknown.
	CheckStatus(ctx context.Context) entities.HealthStatus
}

// DeploymentTrigger is implemented by backends that can start a site deployment.
type DeploymentTrigger interface {
	TriggerDeployment(ctx context.Context) error
}

// RepositoryAccessChecker verifies the signed-in user may write to the repository.
type RepositoryAccessChecker interface {
	CheckRepositoryAccess(ctx context.Context) error
}
