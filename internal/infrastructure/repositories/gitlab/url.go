package gitlab

import "strings"

const (
	defaultOrigin = "https://gitlab.com"
	restSuffix    = "/api/v4"
	graphQLSuffix = "/api/graphql"
)

// NormalizeRestBaseURL returns the REST v4 root for an origin or an API URL.
// The function is idempotent.
func NormalizeRestBaseURL(raw string) string {
	return Origin(raw) + restSuffix
}

// NormalizeGraphQLBaseURL returns the GraphQL endpoint for an origin or an API URL.
func NormalizeGraphQLBaseURL(raw string) string {
	return Origin(raw) + graphQLSuffix
}

// Origin strips the API suffixes from a GitLab URL.
func Origin(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultOrigin
	}
	for _, suffix := range []string{restSuffix, graphQLSuffix} {
		trimmed = strings.TrimSuffix(trimmed, suffix)
	}
	return trimmed
}
