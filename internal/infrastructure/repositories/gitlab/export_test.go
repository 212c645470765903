package gitlab

import "github.com/rios0rios0/headcms/internal/domain/repositories"

// SetStatusURL points the status check of a GitLab backend at url.
func SetStatusURL(backend repositories.BackendRepository, url string) {
	backend.(*GitLabBackendRepository).statusURL = url
}
