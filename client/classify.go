package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/bilguunDash/online-shopping-sub000/events"
	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
)

// cartSurfacePrefixes are the API paths belonging to the cart/order surface.
// Session failures on these paths surface inline rather than forcing the user
// back to the login boundary, since an anonymous or expired user may still
// want to keep browsing.
var cartSurfacePrefixes = []string{"/cart", "/order"}

func isCartPath(path string) bool {
	for _, prefix := range cartSurfacePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// classify maps an HTTP outcome onto the error taxonomy. It returns
// done=false only for the one recoverable case: an expired credential (401)
// while a refresh credential is stored, which do() hands to the coordinator.
// Every other outcome is terminal for this dispatch.
func (c *Client) classify(ctx context.Context, path string, resp *http.Response, out any) (done bool, err error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, decodeBody(resp, out)
	}

	message := drainMessage(resp)
	cartOp := isCartPath(path)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if sess, ok := c.tokens.Get(); ok && sess.RefreshToken != "" {
			return false, nil
		}
		return true, &clienterrors.StatusError{
			Kind:          clienterrors.ErrExpiredCredential,
			Status:        resp.StatusCode,
			Message:       message,
			CartOperation: cartOp,
		}

	case http.StatusForbidden:
		c.invalidateSession(ctx, resp.StatusCode, message, cartOp)
		return true, &clienterrors.StatusError{
			Kind:          clienterrors.ErrInvalidSession,
			Status:        resp.StatusCode,
			Message:       message,
			CartOperation: cartOp,
		}

	case http.StatusBadRequest:
		return true, &clienterrors.StatusError{
			Kind:          clienterrors.ErrBadRequest,
			Status:        resp.StatusCode,
			Message:       message,
			CartOperation: cartOp,
		}

	case http.StatusConflict:
		return true, &clienterrors.StatusError{
			Kind:          clienterrors.ErrConflict,
			Status:        resp.StatusCode,
			Message:       message,
			CartOperation: cartOp,
		}

	default:
		return true, &clienterrors.StatusError{
			Kind:          clienterrors.ErrServer,
			Status:        resp.StatusCode,
			Message:       message,
			CartOperation: cartOp,
		}
	}
}

// invalidateSession handles a 403: the session is cleared, every subscribed
// component is told, and the user is sent to the login boundary unless the
// failing call belongs to the cart surface.
func (c *Client) invalidateSession(ctx context.Context, status int, message string, cartOp bool) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("clearing session after forbidden response")
	}
	ev := events.AuthErrorEvent{Status: status, Message: message, CartOperation: cartOp}
	c.bus.Publish(events.AuthError, ev)
	if !cartOp && c.loginRedirect != nil {
		c.loginRedirect(ev)
	}
}

// drainMessage extracts the optional {message} body of a failed response.
func drainMessage(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body MessageResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}
