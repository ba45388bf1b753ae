package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Exchanger performs one request/response round trip with a chat endpoint.
// Failures are reported as *TransportError, *StatusError or *ParseError.
type Exchanger interface {
	Exchange(ctx context.Context, endpoint string, req *Request) (*Reply, error)
}

// HTTPExchanger posts requests as JSON over HTTP.
type HTTPExchanger struct {
	client *http.Client
}

var _ Exchanger = (*HTTPExchanger)(nil)

// NewHTTPExchanger wraps client, or http.DefaultClient when client is nil.
func NewHTTPExchanger(client *http.Client) *HTTPExchanger {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPExchanger{client: client}
}

func (h *HTTPExchanger) Exchange(ctx context.Context, endpoint string, req *Request) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Err: errors.Wrap(err, "encode request")}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Reply{StatusCode: resp.StatusCode, Body: decoded}, nil
}
