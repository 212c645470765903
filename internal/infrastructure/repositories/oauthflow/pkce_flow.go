package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

const (
	// CallbackPath is the fixed path the provider redirects back to.
	CallbackPath = "/auth"

	defaultListenAddr   = "127.0.0.1:0"
	defaultTimeout      = 5 * time.Minute
	readHeaderTimeout   = 10 * time.Second
	shutdownGracePeriod = 2 * time.Second
)

// Flow runs the OAuth authorization-code flow with PKCE against a loopback
// redirect listener. The listener accepts exactly one callback and is shut
// down when the flow ends, whether it completed, failed or timed out.
type Flow struct {
	ClientID   string
	AuthURL    string
	TokenURL   string
	Scopes     []string
	ListenAddr string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type callbackResult struct {
	code string
	err  error
}

// Authorize presents the authorization URL through open and waits for the
// provider to redirect back. It returns the exchanged token.
func (f *Flow) Authorize(ctx context.Context, open func(authURL string) error) (*oauth2.Token, error) {
	if f.ClientID == "" {
		return nil, fmt.Errorf("%w: backend.app_id is required for browser sign-in", entities.ErrInvalidConfig)
	}

	listenAddr := f.ListenAddr
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	origin := listener.Addr().String()

	config := &oauth2.Config{
		ClientID: f.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.AuthURL,
			TokenURL:  f.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: "http://" + origin + CallbackPath,
		Scopes:      f.Scopes,
	}

	state := xid.New().String()
	verifier := oauth2.GenerateVerifier()
	authURL := config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           newCallbackRouter(origin, state, results),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warnf("Callback listener stopped: %v", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if open == nil {
		open = func(u string) error {
			logger.Infof("Open this URL in your browser to sign in:\n%s", u)
			return nil
		}
	}
	if openErr := open(authURL); openErr != nil {
		return nil, fmt.Errorf("%w: failed to open the authorization page: %w", entities.ErrAuthentication, openErr)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var result callbackResult
	select {
	case result = <-results:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("%w: sign-in was not completed: %w", entities.ErrAuthentication, waitCtx.Err())
	}
	if result.err != nil {
		return nil, result.err
	}

	exchangeCtx := ctx
	if f.HTTPClient != nil {
		exchangeCtx = context.WithValue(ctx, oauth2.HTTPClient, f.HTTPClient)
	}
	token, err := config.Exchange(exchangeCtx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %w", entities.ErrAuthentication, err)
	}
	return token, nil
}

// newCallbackRouter resolves results exactly once; later callbacks are refused.
func newCallbackRouter(origin, state string, results chan<- callbackResult) http.Handler {
	var once sync.Once
	router := chi.NewRouter()

	router.Get(CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		result := readCallback(r, origin, state)

		delivered := false
		once.Do(func() {
			results <- result
			delivered = true
		})

		switch {
		case !delivered:
			http.Error(w, "This sign-in request was already handled.", http.StatusConflict)
		case result.err != nil:
			http.Error(w, "Sign-in failed. You can close this window.", http.StatusBadRequest)
		default:
			_, _ = fmt.Fprint(w, "Signed in. You can close this window.")
		}
	})

	return router
}

func readCallback(r *http.Request, origin, state string) callbackResult {
	query := r.URL.Query()
	switch {
	case r.Host != origin:
		return callbackResult{err: fmt.Errorf("%w: callback came from unexpected origin %q", entities.ErrAuthentication, r.Host)}
	case query.Get("error") != "":
		return callbackResult{err: fmt.Errorf(
			"%w: provider returned %s: %s",
			entities.ErrAuthentication, query.Get("error"), query.Get("error_description"),
		)}
	case query.Get("state") != state:
		return callbackResult{err: fmt.Errorf("%w: state mismatch", entities.ErrAuthentication)}
	case query.Get("code") == "":
		return callbackResult{err: fmt.Errorf("%w: callback has no authorization code", entities.ErrAuthentication)}
	default:
		return callbackResult{code: query.Get("code")}
	}
}
