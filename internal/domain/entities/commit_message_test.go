//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

func boolPtr(value bool) *bool { return &value }

func TestCreateCommitMessage(t *testing.T) {
	t.Parallel()

	t.Run("should render the default create template with the first slug", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.FileChange{{Action: entities.FileCreate, Slug: "hello-world", Path: "content/posts/hello-world.md"}}

		// when
		message := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType:     entities.CommitCreate,
			CollectionName: "posts",
		})

		// then
		assert.Equal(t, "Create posts “hello-world”", message)
	})

	t.Run("should append the number of additional files", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.FileChange{
			{Action: entities.FileUpdate, Slug: "about", Path: "content/en/about.md"},
			{Action: entities.FileUpdate, Slug: "about", Path: "content/fr/about.md"},
			{Action: entities.FileUpdate, Slug: "about", Path: "content/de/about.md"},
		}

		// when
		message := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType:     entities.CommitUpdate,
			CollectionName: "pages",
		})

		// then
		assert.Equal(t, "Update pages “about” +2", message)
	})

	t.Run("should not count additional files for open authoring", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.FileChange{{Path: "a.md"}, {Path: "b.md"}}

		// when
		message := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType: entities.CommitOpenAuthoring,
			Message:    "Update posts “a”",
		})

		// then
		assert.Equal(t, "Update posts “a”", message)
	})

	t.Run("should substitute custom placeholders and keep unknown ones", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.FileChange{{Action: entities.FileCreate, Path: "static/images/cat.png"}}
		backend := entities.BackendSettings{CommitMessages: map[string]string{
			"uploadMedia": "[{{author-login}}] {{author-name}} added {{path}} {{unknown}}",
		}}

		// when
		message := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType: entities.CommitUploadMedia,
			User:       &entities.User{Login: "octocat", Name: "Mona"},
			Backend:    backend,
		})

		// then
		assert.Equal(t, "[octocat] Mona added static/images/cat.png {{unknown}}", message)
	})

	t.Run("should fall back to the login when the user has no name", func(t *testing.T) {
		t.Parallel()
		// given
		backend := entities.BackendSettings{CommitMessages: map[string]string{"delete": "{{author-name}}"}}

		// when
		message := entities.CreateCommitMessage(nil, entities.CommitMessageOptions{
			CommitType: entities.CommitDelete,
			User:       &entities.User{Login: "octocat"},
			Backend:    backend,
		})

		// then
		assert.Equal(t, "octocat", message)
	})

	t.Run("should prefix skip ci when automatic deployments are disabled", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.FileChange{{Slug: "post", Path: "content/posts/post.md"}}
		backend := entities.BackendSettings{AutomaticDeployments: boolPtr(false)}

		// when
		message := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType:     entities.CommitUpdate,
			CollectionName: "posts",
			Backend:        backend,
		})

		// then
		assert.Equal(t, "[skip ci] Update posts “post”", message)
	})

	t.Run("should never prefix skip ci on deletions", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.FileChange{{Slug: "post", Path: "content/posts/post.md"}}

		// when
		deleteMessage := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType:     entities.CommitDelete,
			CollectionName: "posts",
			SkipCI:         boolPtr(true),
		})
		deleteMediaMessage := entities.CreateCommitMessage(changes, entities.CommitMessageOptions{
			CommitType: entities.CommitDeleteMedia,
			SkipCI:     boolPtr(true),
		})

		// then
		assert.Equal(t, "Delete posts “post”", deleteMessage)
		assert.Equal(t, "Delete “content/posts/post.md”", deleteMediaMessage)
	})
}

func TestShouldSkipCI(t *testing.T) {
	t.Parallel()

	t.Run("should let the explicit flag win over the configuration", func(t *testing.T) {
		t.Parallel()
		// given
		backend := entities.BackendSettings{AutomaticDeployments: boolPtr(false), SkipCI: boolPtr(true)}

		// when
		skip := entities.ShouldSkipCI(boolPtr(false), backend)

		// then
		assert.False(t, skip)
	})

	t.Run("should prefer automatic deployments over the legacy option", func(t *testing.T) {
		t.Parallel()
		// given
		backend := entities.BackendSettings{AutomaticDeployments: boolPtr(true), SkipCI: boolPtr(true)}

		// when
		skip := entities.ShouldSkipCI(nil, backend)

		// then
		assert.False(t, skip)
	})

	t.Run("should use the legacy option when nothing else is set", func(t *testing.T) {
		t.Parallel()
		// given
		backend := entities.BackendSettings{SkipCI: boolPtr(true)}

		// when
		skip := entities.ShouldSkipCI(nil, backend)

		// then
		assert.True(t, skip)
	})

	t.Run("should not skip by default", func(t *testing.T) {
		t.Parallel()
		// given / when
		skip := entities.ShouldSkipCI(nil, entities.BackendSettings{})

		// then
		assert.False(t, skip)
	})
}
