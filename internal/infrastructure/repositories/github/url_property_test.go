//go:build unit

package github_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/github"
)

func TestURLNormalizationProperties(t *testing.T) {
	t.Parallel()

	properties := gopter.NewProperties(nil)

	roots := gen.OneConstOf(
		"",
		"https://api.github.com",
		"https://github.com/",
		"https://github.example.com",
		"https://github.example.com/",
		"https://github.example.com/api/v3",
		"https://github.example.com/api/graphql/",
		"http://127.0.0.1:8080",
	)

	properties.Property("rest normalization is idempotent", prop.ForAll(
		func(root string) bool {
			once := github.NormalizeRestBaseURL(root)
			return github.NormalizeRestBaseURL(once) == once
		},
		roots,
	))

	properties.Property("graphql normalization is idempotent", prop.ForAll(
		func(root string) bool {
			once := github.NormalizeGraphQLBaseURL(root)
			return github.NormalizeGraphQLBaseURL(once) == once
		},
		roots,
	))

	properties.Property("rest and graphql roots convert into each other", prop.ForAll(
		func(root string) bool {
			rest := github.NormalizeRestBaseURL(root)
			graphQL := github.NormalizeGraphQLBaseURL(root)
			return github.NormalizeGraphQLBaseURL(rest) == graphQL
		},
		roots,
	))

	properties.Property("enterprise hosts keep their origin", prop.ForAll(
		func(host string) bool {
			origin := "https://" + host + ".example.com"
			return github.NormalizeRestBaseURL(origin) == origin+"/api/v3"
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
