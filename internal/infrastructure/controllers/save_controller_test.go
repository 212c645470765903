//go:build unit

package controllers_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/infrastructure/controllers"
)

func TestContentFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected string
	}{
		{path: "post.md", expected: entities.FormatFrontMatter},
		{path: "post.MARKDOWN", expected: entities.FormatFrontMatter},
		{path: "data.toml", expected: entities.FormatTOML},
		{path: "data.json", expected: entities.FormatJSON},
		{path: "data.yml", expected: entities.FormatYAML},
		{path: "-", expected: entities.FormatYAML},
	}

	for _, tt := range tests {
		t.Run("should detect the format of "+tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, controllers.ContentFormat(tt.path))
		})
	}
}

func TestReadContent(t *testing.T) {
	t.Parallel()

	t.Run("should read YAML from stdin", func(t *testing.T) {
		// given
		stdin := strings.NewReader("title: Hello\ndraft: true\n")

		// when
		content, err := controllers.ReadContent(stdin, "-")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Hello", content["title"])
		assert.Equal(t, true, content["draft"])
	})

	t.Run("should split front matter and body from a markdown file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "hello.md")
		require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Hello\n---\nHi there\n"), 0o600))

		// when
		content, err := controllers.ReadContent(nil, path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "Hello", content["title"])
		assert.Contains(t, content[entities.BodyField], "Hi there")
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "missing.json")

		// when
		_, err := controllers.ReadContent(nil, path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read content")
	})

	t.Run("should fail on malformed JSON", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		// when
		_, err := controllers.ReadContent(nil, path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse content")
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	t.Run("should keep short values", func(t *testing.T) {
		assert.Equal(t, "content/a.md", controllers.Truncate("content/a.md", 20))
	})

	t.Run("should keep the tail of long values", func(t *testing.T) {
		// when
		result := controllers.Truncate("content/posts/very-long-name.md", 12)

		// then
		assert.Len(t, result, 12)
		assert.Equal(t, "...g-name.md", result)
	})
}
