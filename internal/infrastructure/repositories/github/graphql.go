package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const repositoryMetaQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    isEmpty
    viewerPermission
    defaultBranchRef { name }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type repositoryMeta struct {
	IsEmpty          bool   `json:"isEmpty"`
	ViewerPermission string `json:"viewerPermission"`
	DefaultBranchRef *struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
}

func (m *repositoryMeta) canWrite() bool {
	switch m.ViewerPermission {
	case "ADMIN", "MAINTAIN", "WRITE":
		return true
	default:
		return false
	}
}

// fetchRepositoryMeta returns nil without error when the repository is not found.
func (r *GitHubBackendRepository) fetchRepositoryMeta(ctx context.Context) (*repositoryMeta, error) {
	var data struct {
		Repository *repositoryMeta `json:"repository"`
	}
	errs, err := r.queryGraphQL(ctx, repositoryMetaQuery, map[string]any{
		"owner": r.info.Owner,
		"name":  r.info.Repo,
	}, &data)
	if err != nil {
		return nil, err
	}
	for _, gqlErr := range errs {
		if gqlErr.Type == "NOT_FOUND" {
			return nil, nil //nolint:nilnil // absent repository
		}
	}
	if data.Repository == nil && len(errs) > 0 {
		return nil, fmt.Errorf("failed to query repository: %s", errs[0].Message)
	}
	return data.Repository, nil
}

// queryGraphQL posts a query with the session client and decodes "data" into
// target. GraphQL level errors are returned separately from transport errors.
func (r *GitHubBackendRepository) queryGraphQL(
	ctx context.Context,
	query string,
	variables map[string]any,
	target any,
) ([]graphQLError, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GraphQL query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoints.GraphQLBaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.session.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query GraphQL API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GraphQL API returned %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	if len(envelope.Data) > 0 && !strings.EqualFold(string(envelope.Data), "null") {
		if err = json.Unmarshal(envelope.Data, target); err != nil {
			return nil, fmt.Errorf("failed to decode GraphQL data: %w", err)
		}
	}
	return envelope.Errors, nil
}

