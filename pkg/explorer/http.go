package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/util"
)

const maxErrorBody = 256

// HTTPClient issues JSON requests relative to the base url of a backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	header  map[string]string
}

// NewHTTPClient ...
func NewHTTPClient(baseURL string, timeout time.Duration, header map[string]string) *HTTPClient {
	h := map[string]string{"Accept": "application/json"}
	for k, v := range header {
		h[k] = v
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  util.NewHTTPClient(timeout),
		header:  h,
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// GetJSON decodes the response of GET path into out. A 404 answer is
// returned as ErrNotFound.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON posts in encoded as JSON and decodes the response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *HTTPClient) do(
	ctx context.Context, method, path string, in, out interface{},
) error {
	header := make(map[string]string, len(c.header)+1)
	for k, v := range c.header {
		header[k] = v
	}

	var body []byte
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = buf
		header["Content-Type"] = "application/json"
	}

	status, resp, err := util.NewHTTPRequest(
		ctx, c.client, method, c.baseURL+path, body, header,
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", ErrTransport, err)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if status < 200 || status >= 300 {
		msg := string(resp)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return fmt.Errorf(
			"%w: %s %s: status %d: %s", ErrTransport, method, path, status, msg,
		)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("%w: decode %s: %s", ErrTransport, path, err)
	}
	return nil
}
