package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
)

const (
	defaultAuthScheme = "Bearer"
	refreshTimeout    = 30 * time.Second
	grantRefreshToken = "refresh_token"
)

// Transport stamps the session token on every request. On a 401 it refreshes
// the access token once, persists it, and replays the request once; a second
// failure is terminal and surfaces entities.ErrAuthentication.
type Transport struct {
	base      http.RoundTripper
	endpoints *entities.ApiEndpointConfig
	users     repositories.UserRepository

	mu   sync.Mutex
	user *entities.User
}

// NewTransport wraps base. A nil base uses a pooled cleanhttp transport.
func NewTransport(
	base http.RoundTripper,
	endpoints *entities.ApiEndpointConfig,
	users repositories.UserRepository,
) *Transport {
	if base == nil {
		base = cleanhttp.DefaultPooledTransport()
	}
	return &Transport{
		base:      base,
		endpoints: endpoints,
		users:     users,
	}
}

// Client returns an *http.Client routed through the transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// SetUser installs the session whose token is used from now on. Nil clears it.
func (t *Transport) SetUser(user *entities.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.user = user
}

// User returns the current session user.
func (t *Transport) User() *entities.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.user
}

func (t *Transport) currentToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.user == nil {
		return ""
	}
	return t.user.Token
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.currentToken()
	if token == "" {
		return t.base.RoundTrip(req)
	}

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(t.authorize(req, token, body))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	drainAndClose(resp)

	logger.Debugf("Received 401 from %s, refreshing access token", req.URL.Host)
	newToken, refreshErr := t.refresh(req.Context(), token)
	if refreshErr != nil {
		return nil, refreshErr
	}

	retry, err := t.base.RoundTrip(t.authorize(req, newToken, body))
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized {
		drainAndClose(retry)
		return nil, fmt.Errorf("%w: request still unauthorized after refreshing the token", entities.ErrAuthentication)
	}
	return retry, nil
}

func (t *Transport) authorize(req *http.Request, token string, body []byte) *http.Request {
	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		clone.ContentLength = int64(len(body))
	}

	scheme := defaultAuthScheme
	if t.endpoints != nil && t.endpoints.AuthScheme != "" {
		scheme = t.endpoints.AuthScheme
	}
	clone.Header.Set("Authorization", scheme+" "+token)
	return clone
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers that saw the same stale token share one refresh.
func (t *Transport) refresh(ctx context.Context, staleToken string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.user == nil {
		return "", fmt.Errorf("%w: no session", entities.ErrAuthentication)
	}
	if t.user.Token != staleToken {
		return t.user.Token, nil
	}
	if t.user.RefreshToken == "" || t.endpoints == nil || t.endpoints.TokenURL == "" {
		return "", fmt.Errorf("%w: access token expired and cannot be refreshed", entities.ErrAuthentication)
	}

	payload, err := json.Marshal(refreshRequest{
		GrantType:    grantRefreshToken,
		ClientID:     t.endpoints.ClientID,
		RefreshToken: t.user.RefreshToken,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoints.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return "", fmt.Errorf("%w: token refresh failed: %w", entities.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token refresh returned status %d", entities.ErrAuthentication, resp.StatusCode)
	}

	var result refreshResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return "", fmt.Errorf("%w: failed to decode refresh response: %w", entities.ErrAuthentication, decodeErr)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh response has no access token", entities.ErrAuthentication)
	}

	t.user.Token = result.AccessToken
	if result.RefreshToken != "" {
		t.user.RefreshToken = result.RefreshToken
	}
	if t.users != nil {
		if saveErr := t.users.Save(ctx, t.user); saveErr != nil {
			logger.Warnf("Failed to persist refreshed token: %v", saveErr)
		}
	}

	logger.Debug("Access token refreshed")
	return result.AccessToken, nil
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return data, nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
