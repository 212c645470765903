//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
)

// SpyBackendRepository implements repositories.BackendRepository as a configurable spy.
// It answers Init only when the configured backend name equals BackendName.
type SpyBackendRepository struct {
	// --- identity ---
	BackendName  string
	BackendLabel string

	// --- Init ---
	Info    *entities.RepositoryInfo
	InitErr error

	// --- SignIn ---
	User          *entities.User
	SignInErr     error
	SignInOptions []entities.SignInOptions

	// --- SignOut ---
	SignOutErr   error
	SignOutCalls int

	// --- FetchFiles ---
	Files         []entities.RepositoryFile
	FetchFilesErr error

	// --- FetchBlob ---
	Blobs        map[string][]byte
	FetchBlobErr error

	// --- CommitChanges ---
	CommitResults *entities.CommitResults
	CommitErr     error
	CommittedSets [][]entities.FileChange
	CommitOptions []entities.CommitOptions
}

var _ repositories.BackendRepository = (*SpyBackendRepository)(nil)

func (s *SpyBackendRepository) Name() string { return s.BackendName }

func (s *SpyBackendRepository) Label() string {
	if s.BackendLabel != "" {
		return s.BackendLabel
	}
	return s.BackendName
}

func (s *SpyBackendRepository) IsGit() bool { return s.BackendName != entities.BackendLocal }

func (s *SpyBackendRepository) Init(settings *entities.Settings) (*entities.RepositoryInfo, error) {
	if settings.Backend.Name != s.BackendName {
		return nil, nil //nolint:nilnil // not handled by this backend
	}
	if s.InitErr != nil {
		return nil, s.InitErr
	}
	if s.Info == nil {
		s.Info = entities.NewRepositoryInfo(entities.RepositoryInfoInput{
			Service: s.BackendName,
			Label:   s.Label(),
			Owner:   "owner",
			Repo:    "site",
			Branch:  "main",
		})
	}
	return s.Info, nil
}

func (s *SpyBackendRepository) Endpoints() *entities.ApiEndpointConfig {
	return &entities.ApiEndpointConfig{}
}

func (s *SpyBackendRepository) SignIn(
	_ context.Context,
	options entities.SignInOptions,
) (*entities.User, error) {
	s.SignInOptions = append(s.SignInOptions, options)
	if s.SignInErr != nil {
		return nil, s.SignInErr
	}
	if s.User == nil {
		return &entities.User{BackendName: s.BackendName, Login: "tester", Token: options.Token}, nil
	}
	return s.User, nil
}

func (s *SpyBackendRepository) SignOut(_ context.Context) error {
	s.SignOutCalls++
	return s.SignOutErr
}

func (s *SpyBackendRepository) FetchFiles(_ context.Context) ([]entities.RepositoryFile, error) {
	if s.FetchFilesErr != nil {
		return nil, s.FetchFilesErr
	}
	return s.Files, nil
}

func (s *SpyBackendRepository) FetchBlob(_ context.Context, file entities.RepositoryFile) ([]byte, error) {
	if s.FetchBlobErr != nil {
		return nil, s.FetchBlobErr
	}
	data, ok := s.Blobs[file.Path]
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", file.Path)
	}
	return data, nil
}

func (s *SpyBackendRepository) CommitChanges(
	_ context.Context,
	changes []entities.FileChange,
	options entities.CommitOptions,
) (*entities.CommitResults, error) {
	s.CommittedSets = append(s.CommittedSets, changes)
	s.CommitOptions = append(s.CommitOptions, options)
	if s.CommitErr != nil {
		return nil, s.CommitErr
	}
	if s.CommitResults != nil {
		return s.CommitResults, nil
	}

	results := &entities.CommitResults{SHA: fmt.Sprintf("commit-%d", len(s.CommittedSets))}
	for _, change := range changes {
		if change.Action == entities.FileDelete {
			continue
		}
		results.Files = append(results.Files, entities.CommittedFile{
			Path: change.Path,
			SHA:  "sha-" + change.Path,
		})
	}
	return results, nil
}

// LastCommit returns the changes of the most recent CommitChanges call.
func (s *SpyBackendRepository) LastCommit() []entities.FileChange {
	if len(s.CommittedSets) == 0 {
		return nil
	}
	return s.CommittedSets[len(s.CommittedSets)-1]
}

// SpyHostedBackendRepository adds the optional capabilities of hosted services.
type SpyHostedBackendRepository struct {
	*SpyBackendRepository

	// --- CheckStatus ---
	Status entities.HealthStatus

	// --- TriggerDeployment ---
	DeployErr   error
	DeployCalls int

	// --- CheckRepositoryAccess ---
	AccessErr error
}

var (
	_ repositories.StatusChecker           = (*SpyHostedBackendRepository)(nil)
	_ repositories.DeploymentTrigger       = (*SpyHostedBackendRepository)(nil)
	_ repositories.RepositoryAccessChecker = (*SpyHostedBackendRepository)(nil)
)

func (s *SpyHostedBackendRepository) CheckStatus(_ context.Context) entities.HealthStatus {
	return s.Status
}

func (s *SpyHostedBackendRepository) TriggerDeployment(_ context.Context) error {
	s.DeployCalls++
	return s.DeployErr
}

func (s *SpyHostedBackendRepository) CheckRepositoryAccess(_ context.Context) error {
	return s.AccessErr
}
