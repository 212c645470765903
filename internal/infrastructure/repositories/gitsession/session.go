// Package gitsession holds the sign-in and session plumbing shared by the
// remote Git backends.
package gitsession

import (
	"context"
	"fmt"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/authclient"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/oauthflow"
)

// ProfileFetcher loads the signed-in user's profile with the session client.
type ProfileFetcher func(ctx context.Context) (*entities.User, error)

// Session owns the user of one backend and the guarded HTTP client.
type Session struct {
	backendName  string
	databaseName string
	users        repositories.UserRepository
	transport   *authclient.Transport
	endpoints   *entities.ApiEndpointConfig
	base        http.RoundTripper
	scopes      []string
}

// New creates the session of the repository described by info. base may be nil.
func New(
	info *entities.RepositoryInfo,
	users repositories.UserRepository,
	endpoints *entities.ApiEndpointConfig,
	base http.RoundTripper,
	scopes []string,
) *Session {
	return &Session{
		backendName:  info.Service,
		databaseName: info.DatabaseName,
		users:        users,
		transport:   authclient.NewTransport(base, endpoints, users),
		endpoints:   endpoints,
		base:        base,
		scopes:      scopes,
	}
}

// Client returns the HTTP client guarded by the token refresh transport.
func (s *Session) Client() *http.Client {
	return s.transport.Client()
}

// User returns the active user or entities.ErrNotSignedIn.
func (s *Session) User() (*entities.User, error) {
	user := s.transport.User()
	if user == nil {
		return nil, fmt.Errorf("%w: run the signin command first", entities.ErrNotSignedIn)
	}
	return user, nil
}

// SignIn resolves credentials in this order: injected token, stored
// session, interactive PKCE flow. The profile is fetched for fresh tokens
// and the resulting user is persisted.
func (s *Session) SignIn(
	ctx context.Context,
	options entities.SignInOptions,
	fetchProfile ProfileFetcher,
) (*entities.User, error) {
	token, refreshToken := options.Token, ""

	if token == "" && !options.Interactive {
		stored, err := s.users.Get(ctx, s.databaseName)
		if err != nil {
			return nil, err
		}
		if stored != nil && stored.APIRoot != s.endpoints.RestBaseURL {
			logger.Debugf("Ignoring %s session issued by %q", s.databaseName, stored.APIRoot)
			stored = nil
		}
		if stored != nil {
			logger.Debugf("Restored %s session of %q", s.backendName, stored.Login)
			s.transport.SetUser(stored)
			return stored, nil
		}
		return nil, fmt.Errorf("%w: provide a token or sign in interactively", entities.ErrNotSignedIn)
	}

	if token == "" {
		flow := &oauthflow.Flow{
			ClientID:   s.endpoints.ClientID,
			AuthURL:    s.endpoints.AuthURL,
			TokenURL:   s.endpoints.TokenURL,
			Scopes:     s.scopes,
			HTTPClient: &http.Client{Transport: s.base},
		}
		if s.base == nil {
			flow.HTTPClient = nil
		}
		oauthToken, err := flow.Authorize(ctx, options.OpenURL)
		if err != nil {
			return nil, err
		}
		token, refreshToken = oauthToken.AccessToken, oauthToken.RefreshToken
	}

	s.transport.SetUser(&entities.User{
		BackendName:  s.backendName,
		DatabaseName: s.databaseName,
		APIRoot:      s.endpoints.RestBaseURL,
		Token:        token,
		RefreshToken: refreshToken,
	})

	user, err := fetchProfile(ctx)
	if err != nil {
		s.transport.SetUser(nil)
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	// the profile request may have refreshed the token
	current := s.transport.User()
	user.BackendName = s.backendName
	user.DatabaseName = s.databaseName
	user.APIRoot = s.endpoints.RestBaseURL
	user.Token = current.Token
	user.RefreshToken = current.RefreshToken
	s.transport.SetUser(user)

	if saveErr := s.users.Save(ctx, user); saveErr != nil {
		logger.Warnf("Failed to persist session: %v", saveErr)
	}
	return user, nil
}

// SignOut forgets the user locally and in the session store.
func (s *Session) SignOut(ctx context.Context) error {
	s.transport.SetUser(nil)
	return s.users.Delete(ctx, s.databaseName)
}
