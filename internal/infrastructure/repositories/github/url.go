package github

import (
	"net/url"
	"strings"
)

const (
	defaultRestBaseURL    = "https://api.github.com"
	defaultGraphQLBaseURL = "https://api.github.com/graphql"
	defaultWebOrigin      = "https://github.com"
	enterpriseRestSuffix  = "/api/v3"
	enterpriseGQLSuffix   = "/api/graphql"
	publicAPIHost         = "api.github.com"
	publicWebHost         = "github.com"
)

// NormalizeRestBaseURL returns the REST API root for a github.com or GitHub
// Enterprise Server URL. Enterprise roots get the /api/v3 suffix. The
// function is idempotent.
func NormalizeRestBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultRestBaseURL
	}

	switch hostOf(trimmed) {
	case publicAPIHost, publicWebHost:
		return defaultRestBaseURL
	}
	if strings.HasSuffix(trimmed, enterpriseRestSuffix) {
		return trimmed
	}
	if strings.HasSuffix(trimmed, enterpriseGQLSuffix) {
		return strings.TrimSuffix(trimmed, enterpriseGQLSuffix) + enterpriseRestSuffix
	}
	return trimmed + enterpriseRestSuffix
}

// NormalizeGraphQLBaseURL returns the GraphQL endpoint matching a REST root
// or an origin. The function is idempotent.
func NormalizeGraphQLBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultGraphQLBaseURL
	}

	switch hostOf(trimmed) {
	case publicAPIHost, publicWebHost:
		return defaultGraphQLBaseURL
	}
	if strings.HasSuffix(trimmed, enterpriseGQLSuffix) {
		return trimmed
	}
	if strings.HasSuffix(trimmed, enterpriseRestSuffix) {
		return strings.TrimSuffix(trimmed, enterpriseRestSuffix) + enterpriseGQLSuffix
	}
	return trimmed + enterpriseGQLSuffix
}

// webOrigin returns the site origin serving repository pages for a REST root.
func webOrigin(restBaseURL string) string {
	if hostOf(restBaseURL) == publicAPIHost {
		return defaultWebOrigin
	}
	return strings.TrimSuffix(restBaseURL, enterpriseRestSuffix)
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Host
}
