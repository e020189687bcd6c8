// Package client implements the storefront API client: credential attachment
// on every outbound call, response classification into the error taxonomy,
// and single-flight refresh of an expired credential shared by all concurrent
// callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bilguunDash/online-shopping-sub000/events"
	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
	"github.com/bilguunDash/online-shopping-sub000/sessions"
)

const defaultTimeout = 15 * time.Second

// Client calls the storefront API. All methods are safe for concurrent use;
// overlapping calls that hit an expired credential share one refresh through
// the coordinator.
type Client struct {
	baseURL       string
	httpc         *http.Client
	tokens        *sessions.TokenStore
	bus           *events.Bus
	coord         *Coordinator
	loginRedirect func(events.AuthErrorEvent)
	logger        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for tests).
// The fixed per-call timeout lives on this client; once a call is issued there
// is no cooperative cancellation, and an expired timeout classifies as a
// network error.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout sets the fixed timeout applied to every outbound call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithLoginRedirect installs the hook invoked when an invalid session forces
// the user back to the login boundary. It is not invoked for failures on the
// cart surface, which surface inline instead, and the hook itself is expected
// to be a no-op when the user is already at the login boundary.
func WithLoginRedirect(fn func(events.AuthErrorEvent)) Option {
	return func(c *Client) { c.loginRedirect = fn }
}

// WithLogger overrides the default global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for the API at baseURL, persisting credentials through
// tokens and notifying UI components through bus.
func New(baseURL string, tokens *sessions.TokenStore, bus *events.Bus, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		bus:     bus,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	c.coord = NewCoordinator(c.refreshSession, tokens, c.onRefreshFailure)
	return c
}

// MessageResponse is the generic success envelope of mutating endpoints.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// do issues one API call: it attaches the current credential, dispatches,
// classifies the outcome, and transparently recovers an expired credential by
// engaging the refresh coordinator and retrying the call once. Anonymous
// calls (no stored credential) proceed unauthenticated.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	retried := false
	for {
		resp, usedToken, err := c.dispatch(ctx, method, path, payload)
		if err != nil {
			return &clienterrors.StatusError{
				Kind:          clienterrors.ErrNetwork,
				Message:       err.Error(),
				CartOperation: isCartPath(path),
			}
		}

		done, classifyErr := c.classify(ctx, path, resp, out)
		if done {
			return classifyErr
		}

		// Expired credential with a refresh credential available and no
		// retry spent yet: wait for the shared refresh, then reissue.
		if retried {
			return &clienterrors.StatusError{
				Kind:          clienterrors.ErrExpiredCredential,
				Status:        http.StatusUnauthorized,
				Message:       "credential still expired after refresh",
				CartOperation: isCartPath(path),
			}
		}
		if err := c.coord.Await(ctx, usedToken); err != nil {
			return &clienterrors.StatusError{
				Kind:          clienterrors.ErrInvalidSession,
				Status:        http.StatusUnauthorized,
				Message:       "session refresh failed",
				CartOperation: isCartPath(path),
			}
		}
		retried = true
	}
}

// dispatch builds and issues a single HTTP request with the interceptor
// behavior applied: bearer header normalization, request correlation ID, and
// the opportunistic claims refresh. It also reports which access token the
// request carried, so a 401 can be matched against the credential that
// actually earned it.
func (c *Client) dispatch(ctx context.Context, method, path string, payload []byte) (*http.Response, string, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, "", err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	usedToken := c.attachCredential(ctx, req, path)
	resp, err := c.httpc.Do(req)
	return resp, usedToken, err
}

// attachCredential reads the token store and decorates the request, returning
// the access token it attached (empty for anonymous calls). A decode failure
// does not block the outbound call: the session is cleared and an auth-error
// is broadcast, but the request proceeds unauthenticated since several
// endpoints tolerate anonymous use.
func (c *Client) attachCredential(ctx context.Context, req *http.Request, path string) string {
	sess, ok := c.tokens.Get()
	if !ok || sess.AccessToken == "" {
		return ""
	}

	req.Header.Set("Authorization", bearerHeader(sess.AccessToken))

	claims, err := sessions.DecodeClaims(sess.AccessToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("stored credential no longer decodes, clearing session")
		if clearErr := c.tokens.Clear(ctx); clearErr != nil {
			c.logger.Error().Err(clearErr).Msg("clearing session after decode failure")
		}
		c.bus.Publish(events.AuthError, events.AuthErrorEvent{
			Status:        http.StatusUnauthorized,
			Message:       "stored credential is unreadable",
			CartOperation: isCartPath(path),
		})
		return sess.AccessToken
	}
	if err := c.tokens.SetClaims(ctx, *claims); err != nil {
		c.logger.Warn().Err(err).Msg("refreshing cached claims")
	}
	return sess.AccessToken
}

// bearerHeader normalizes a stored token to the Authorization header form
// whether or not it already carries the Bearer prefix.
func bearerHeader(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return fmt.Sprintf("Bearer %s", token)
}

// decodeBody drains and decodes a 2xx response body into out.
func decodeBody(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decoding response body")
}
