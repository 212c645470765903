package github

import "github.com/rios0rios0/headcms/internal/domain/repositories"

// SetStatusURL points the status check of a GitHub backend at url.
func SetStatusURL(backend repositories.BackendRepository, url string) {
	backend.(*GitHubBackendRepository).statusURL = url
}
