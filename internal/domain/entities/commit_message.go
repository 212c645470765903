package entities

import (
	"fmt"
	"strings"
)

const skipCIPrefix = "[skip ci] "

//nolint:gochecknoglobals // read-only defaults
var defaultCommitMessages = map[CommitType]string{
	CommitCreate:        "Create {{collection}} “{{slug}}”",
	CommitUpdate:        "Update {{collection}} “{{slug}}”",
	CommitDelete:        "Delete {{collection}} “{{slug}}”",
	CommitUploadMedia:   "Upload “{{path}}”",
	CommitDeleteMedia:   "Delete “{{path}}”",
	CommitOpenAuthoring: "{{message}}",
}

// CommitMessageOptions carries everything CreateCommitMessage needs besides the changes.
type CommitMessageOptions struct {
	CommitType     CommitType
	CollectionName string
	User           *User
	// Message is the inner message wrapped by the openAuthoring template.
	Message string
	// SkipCI overrides the site-wide policy when set.
	SkipCI  *bool
	Backend BackendSettings
}

// DefaultCommitMessage returns the built-in template of a commit type.
func DefaultCommitMessage(commitType CommitType) string {
	return defaultCommitMessages[commitType]
}

// CreateCommitMessage renders the commit message for a batch of changes.
func CreateCommitMessage(changes []FileChange, options CommitMessageOptions) string {
	template := options.Backend.CommitMessages[string(options.CommitType)]
	if template == "" {
		template = defaultCommitMessages[options.CommitType]
	}

	firstSlug, firstPath := "", ""
	for _, change := range changes {
		if firstSlug == "" && change.Slug != "" {
			firstSlug = change.Slug
		}
	}
	if len(changes) > 0 {
		firstPath = changes[0].Path
	}

	authorLogin, authorName := "", ""
	if options.User != nil {
		authorLogin = options.User.Login
		authorName = options.User.DisplayName()
	}

	replacer := strings.NewReplacer(
		"{{slug}}", firstSlug,
		"{{collection}}", options.CollectionName,
		"{{path}}", firstPath,
		"{{author-login}}", authorLogin,
		"{{author-name}}", authorName,
		"{{message}}", options.Message,
	)
	message := replacer.Replace(template)

	if options.CommitType != CommitOpenAuthoring && len(changes) > 1 {
		message += fmt.Sprintf(" +%d", len(changes)-1)
	}

	if options.CommitType != CommitDelete && options.CommitType != CommitDeleteMedia &&
		ShouldSkipCI(options.SkipCI, options.Backend) {
		message = skipCIPrefix + message
	}

	return message
}

// ShouldSkipCI resolves the skip-CI policy: an explicit per-commit flag wins,
// then automatic_deployments, then the legacy skip_ci option.
func ShouldSkipCI(explicit *bool, backend BackendSettings) bool {
	if explicit != nil {
		return *explicit
	}
	if backend.AutomaticDeployments != nil {
		return !*backend.AutomaticDeployments
	}
	if backend.SkipCI != nil {
		return *backend.SkipCI
	}
	return false
}
