package entities

import "errors"

var (
	// ErrInvalidConfig marks site configuration problems detected before any network call.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAuthentication means the session can no longer be used and the user must sign in again.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNoAccess means the signed-in user cannot write to the repository.
	ErrNoAccess = errors.New("no write access to the repository")

	// ErrRepositoryNotFound means the repository does not exist or is hidden from the user.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrEmptyRepository means the repository has no commits yet.
	ErrEmptyRepository = errors.New("repository is empty")

	// ErrUnsupportedVersion means a self-hosted server is older than the minimum supported release.
	ErrUnsupportedVersion = errors.New("unsupported server version")

	// ErrNotSignedIn is returned when an operation needs a user session and none exists.
	ErrNotSignedIn = errors.New("not signed in")
)
