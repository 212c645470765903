//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

const validConfig = `
backend:
  name: github
  repo: owner/site
  branch: main
  commit_messages:
    create: "New {{collection}}: {{slug}}"
media_folder: static/images
public_folder: /images
i18n:
  structure: multiple_files
  locales: [en, fr]
  default_locale: en
collections:
  - name: posts
    folder: content/posts
    i18n: true
  - name: settings
    files:
      - name: general
        file: data/general.yml
`

func TestParseSettings(t *testing.T) {
	t.Parallel()

	t.Run("should parse a valid configuration", func(t *testing.T) {
		t.Parallel()
		// given
		data := []byte(validConfig)

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.BackendGitHub, settings.Backend.Name)
		assert.Equal(t, "New {{collection}}: {{slug}}", settings.Backend.CommitMessages["create"])
		require.Len(t, settings.Collections, 2)
		assert.True(t, settings.Collections[0].I18n.Enabled)
		assert.True(t, settings.Collections[1].IsFileCollection())
	})

	t.Run("should read collection i18n overrides", func(t *testing.T) {
		t.Parallel()
		// given
		data := []byte(`
backend: {name: local}
media_folder: static
i18n: {structure: multiple_folders, locales: [en, fr, de]}
collections:
  - name: pages
    folder: content/pages
    i18n: {structure: single_file, locales: [en, de]}
`)

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		i18n := settings.I18nFor(&settings.Collections[0], nil)
		assert.True(t, i18n.Enabled)
		assert.Equal(t, entities.I18nSingleFile, i18n.Structure)
		assert.Equal(t, []string{"en", "de"}, i18n.Locales)
		assert.Equal(t, "en", i18n.DefaultLocale)
	})

	t.Run("should treat forgejo as gitea", func(t *testing.T) {
		t.Parallel()
		// given
		data := []byte("backend: {name: forgejo, repo: owner/site}\nmedia_folder: static\n")

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.BackendGitea, settings.Backend.Name)
	})

	t.Run("should report every problem at once", func(t *testing.T) {
		t.Parallel()
		// given
		data := []byte(`
backend:
  name: github
  repo: not-a-repo
  commit_messages: {publish: "x"}
i18n: {locales: ["!!"]}
collections:
  - folder: content/a
    files: [{name: x, file: x.md}]
`)

		// when
		_, err := entities.ParseSettings(data)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		errs := multierr.Errors(unwrapInvalidConfig(err))
		assert.GreaterOrEqual(t, len(errs), 6)
	})

	t.Run("should reject unknown backends", func(t *testing.T) {
		t.Parallel()
		// given
		data := []byte("backend: {name: bitbucket, repo: a/b}\nmedia_folder: static\n")

		// when
		_, err := entities.ParseSettings(data)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "bitbucket")
	})
}

// unwrapInvalidConfig returns the combined validation error wrapped next to
// ErrInvalidConfig.
func unwrapInvalidConfig(err error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err
	}
	for _, inner := range joined.Unwrap() {
		if inner != entities.ErrInvalidConfig {
			return inner
		}
	}
	return err
}

func TestResolveToken(t *testing.T) {
	t.Run("should expand environment variables", func(t *testing.T) {
		// given
		t.Setenv("HEADCMS_TEST_TOKEN", "secret")

		// when
		token := entities.ResolveToken("${HEADCMS_TEST_TOKEN}")

		// then
		assert.Equal(t, "secret", token)
	})

	t.Run("should read tokens from files", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

		// when
		token := entities.ResolveToken(path)

		// then
		assert.Equal(t, "from-file", token)
	})

	t.Run("should keep inline tokens", func(t *testing.T) {
		// given / when
		token := entities.ResolveToken("ghp_inline")

		// then
		assert.Equal(t, "ghp_inline", token)
	})

	t.Run("should resolve the unset variable of an inline token to empty", func(t *testing.T) {
		// given
		t.Setenv("HEADCMS_UNSET_TOKEN", "")

		// when
		token := entities.ResolveToken("${HEADCMS_UNSET_TOKEN}")

		// then
		assert.Empty(t, token)
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("should find the config of the admin folder", func(t *testing.T) {
		// given
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", t.TempDir())
		require.NoError(t, os.MkdirAll(filepath.Join("static", "admin"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join("static", "admin", "config.yml"), []byte(validConfig), 0o600))

		// when
		path, err := entities.FindConfigFile()

		// then
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("static", "admin", "config.yml"), path)
	})

	t.Run("should skip directories named like a config file", func(t *testing.T) {
		// given
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		require.NoError(t, os.Mkdir("headcms.yaml", 0o755))

		// when
		_, err := entities.FindConfigFile()

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no site config")
	})
}

func TestClassifyPath(t *testing.T) {
	t.Parallel()

	t.Run("should classify entry media and other files", func(t *testing.T) {
		t.Parallel()
		// given
		settings, err := entities.ParseSettings([]byte(validConfig))
		require.NoError(t, err)

		// when / then
		assert.Equal(t, entities.FileKindEntry, settings.ClassifyPath("content/posts/hello.fr.md"))
		assert.Equal(t, entities.FileKindEntry, settings.ClassifyPath("data/general.yml"))
		assert.Equal(t, entities.FileKindMedia, settings.ClassifyPath("static/images/cat.png"))
		assert.Equal(t, entities.FileKindOther, settings.ClassifyPath("README.md"))
	})
}
