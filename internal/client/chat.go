package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/session"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	OK   truthy `json:"ok"`
	Data *struct {
		Reply string `json:"reply"`
	} `json:"data"`
}

// Chat sends one user message via POST /api/chat and returns the reply.
//
// Returns ErrMalformed for a 2xx response without a truthy "ok" and a
// non-empty string data.reply, *APIError for a non-2xx JSON response, and
// ErrTransport otherwise.
func (c *Client) Chat(ctx context.Context, creds session.Credentials, message string) (string, error) {
	resp, err := c.do(ctx, metrics.OpChat, http.MethodPost, "/api/chat", &creds, chatRequest{
		SessionID: creds.SessionID,
		Message:   message,
	})
	if err != nil {
		return "", err
	}

	if !resp.ok() {
		var body errorBody
		if err := decode(resp, &body); err != nil {
			if errors.Is(err, ErrMalformed) {
				return "", &APIError{StatusCode: resp.status}
			}
			return "", err
		}
		return "", &APIError{StatusCode: resp.status, Message: body.text()}
	}

	var body chatResponse
	if err := decode(resp, &body); err != nil {
		return "", err
	}
	if !bool(body.OK) || body.Data == nil || body.Data.Reply == "" {
		return "", fmt.Errorf("%w: chat response without ok or data.reply", ErrMalformed)
	}
	return body.Data.Reply, nil
}
