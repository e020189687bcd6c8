package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bilguunDash/online-shopping-sub000/events"
	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
	"github.com/bilguunDash/online-shopping-sub000/sessions"
)

// LoginRequest carries the credentials for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the credential payload of the login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Role         string `json:"role,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	ID           int64  `json:"id,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Login authenticates and stores the resulting session. Claims are decoded
// from the access token where possible, falling back to the fields the login
// response spells out.
func (c *Client) Login(ctx context.Context, email, password string) (*sessions.Session, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &clienterrors.StatusError{
			Kind:    clienterrors.ErrServer,
			Status:  http.StatusOK,
			Message: "login response carried no credential",
		}
	}

	sess := sessions.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if claims, err := sessions.DecodeClaims(resp.AccessToken); err == nil {
		sess.Claims = claims
	} else {
		sess.Claims = &sessions.Claims{
			FirstName: resp.FirstName,
			LastName:  resp.LastName,
			Role:      resp.Role,
		}
	}
	if err := c.tokens.Set(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "storing session after login")
	}
	return &sess, nil
}

// Logout destroys the local session. The server keeps no session state worth
// revoking for this client; the credential simply stops being attached.
func (c *Client) Logout(ctx context.Context) error {
	return errors.Wrap(c.tokens.Clear(ctx), "clearing session on logout")
}

type refreshRequest struct {
	Token string `json:"token"`
}

// refreshSession exchanges the refresh credential for a fresh session. It
// deliberately bypasses do(): a refresh must never recurse into the refresh
// coordinator, and it runs without the interceptor's credential attachment.
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (sessions.Session, error) {
	payload, err := json.Marshal(refreshRequest{Token: refreshToken})
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "encoding refresh request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "building refresh request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return sessions.Session{}, clienterrors.Wrapf(clienterrors.ErrNetwork, "refresh call: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return sessions.Session{}, errors.Errorf("refresh endpoint returned status %d", resp.StatusCode)
	}

	var body TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return sessions.Session{}, errors.Wrap(err, "decoding refresh response")
	}
	if body.AccessToken == "" {
		return sessions.Session{}, errors.New("refresh response carried no credential")
	}

	sess := sessions.Session{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
	}
	if claims, err := sessions.DecodeClaims(body.AccessToken); err == nil {
		sess.Claims = claims
	}
	return sess, nil
}

// onRefreshFailure is the hard session-invalidation path: the coordinator has
// already cleared the session; broadcast the failure and send the user to the
// login boundary.
func (c *Client) onRefreshFailure() {
	ev := events.AuthErrorEvent{
		Status:  http.StatusUnauthorized,
		Message: "session expired, please sign in again",
	}
	c.bus.Publish(events.AuthError, ev)
	if c.loginRedirect != nil {
		c.loginRedirect(ev)
	}
}
