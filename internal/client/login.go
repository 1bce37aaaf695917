package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/session"
)

// LoginResult is a successful authentication.
type LoginResult struct {
	Credentials session.Credentials
	// Message is the service's optional success text.
	Message string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	errorBody
	OK        truthy   `json:"ok"`
	SessionID idString `json:"session_id"`
	Token     string   `json:"token"`
}

// Login submits credentials to POST /login.
//
// Returns *APIError when the status is non-2xx or "ok" is falsy, ErrMalformed
// when a successful response lacks session_id or token or has mistyped fields,
// and ErrTransport when no JSON response was obtained. A rejection whose body
// is mistyped is an *APIError without a message.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.do(ctx, metrics.OpLogin, http.MethodPost, "/login", nil, loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var body loginResponse
	if err := decode(resp, &body); err != nil {
		if errors.Is(err, ErrMalformed) && (!resp.ok() || !bool(body.OK)) {
			return nil, &APIError{StatusCode: resp.status}
		}
		return nil, err
	}

	if !resp.ok() || !bool(body.OK) {
		return nil, &APIError{StatusCode: resp.status, Message: body.text()}
	}

	creds := session.Credentials{SessionID: string(body.SessionID), Token: body.Token}
	if !creds.Valid() {
		return nil, fmt.Errorf("%w: login response without session_id or token", ErrMalformed)
	}

	return &LoginResult{Credentials: creds, Message: body.Message}, nil
}
