package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout applies to clients created with a zero timeout.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient returns an http client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewHTTPRequest performs the request and returns status code and body.
func NewHTTPRequest(
	ctx context.Context,
	client *http.Client,
	method, url string,
	body []byte,
	header map[string]string,
) (int, []byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return 0, nil, fmt.Errorf("verb not supported %s", method)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, nil, err
	}
	return rs.StatusCode, bodyBytes, nil
}
