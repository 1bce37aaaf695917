package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/session"
)

// HistoryMessage is one stored transcript message, in the service's field names.
type HistoryMessage struct {
	Sender  string `json:"remitente"`
	Content string `json:"contenido"`
}

type historyResponse struct {
	OK       truthy           `json:"ok"`
	Messages []HistoryMessage `json:"mensajes"`
}

// History fetches the transcript of the session via GET /mensajes/{sessionId}.
//
// A 2xx response with a falsy "ok" or without messages yields an empty slice.
// A non-2xx status yields *APIError with only StatusCode set; the body is not
// inspected. A 2xx body of the wrong shape wraps ErrMalformed; anything else
// wraps ErrTransport.
func (c *Client) History(ctx context.Context, creds session.Credentials) ([]HistoryMessage, error) {
	path := "/mensajes/" + url.PathEscape(creds.SessionID)
	resp, err := c.do(ctx, metrics.OpHistory, http.MethodGet, path, &creds, nil)
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		return nil, &APIError{StatusCode: resp.status}
	}

	var body historyResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}

	if !bool(body.OK) || len(body.Messages) == 0 {
		return []HistoryMessage{}, nil
	}
	return body.Messages, nil
}
