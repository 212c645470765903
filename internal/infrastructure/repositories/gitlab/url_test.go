//go:build unit

package gitlab_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/gitlab"
)

func TestNormalizeRestBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "should default to gitlab.com", input: "", expected: "https://gitlab.com/api/v4"},
		{name: "should append the API suffix to an origin", input: "https://gitlab.example.com/", expected: "https://gitlab.example.com/api/v4"},
		{name: "should keep a REST root", input: "https://gitlab.example.com/api/v4", expected: "https://gitlab.example.com/api/v4"},
		{name: "should convert a GraphQL root", input: "https://gitlab.example.com/api/graphql", expected: "https://gitlab.example.com/api/v4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// given
			input := tt.input

			// when
			result := gitlab.NormalizeRestBaseURL(input)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeGraphQLBaseURL(t *testing.T) {
	t.Parallel()

	t.Run("should derive the GraphQL endpoint from a REST root", func(t *testing.T) {
		t.Parallel()
		// given
		input := "https://gitlab.example.com/api/v4/"

		// when
		result := gitlab.NormalizeGraphQLBaseURL(input)

		// then
		assert.Equal(t, "https://gitlab.example.com/api/graphql", result)
	})
}

func TestURLNormalizationProperties(t *testing.T) {
	t.Parallel()

	properties := gopter.NewProperties(nil)

	properties.Property("normalization is idempotent", prop.ForAll(
		func(host, suffix string) bool {
			raw := "https://" + host + ".example.com" + suffix
			once := gitlab.NormalizeRestBaseURL(raw)
			return gitlab.NormalizeRestBaseURL(once) == once &&
				gitlab.NormalizeGraphQLBaseURL(once) == gitlab.NormalizeGraphQLBaseURL(raw)
		},
		gen.Identifier(),
		gen.OneConstOf("", "/", "/api/v4", "/api/v4/", "/api/graphql"),
	))

	properties.TestingRun(t)
}
