package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/vocdoni/zkvote-core/api"
	"github.com/vocdoni/zkvote-core/log"
)

const (
	HTTPGET    = http.MethodGet
	HTTPPOST   = http.MethodPost
	HTTPDELETE = http.MethodDelete

	errCodeNot200 = "API error"

	// DefaultRetries is the number of attempts made when the connection to
	// the server fails. Requests that got an answer are never retried.
	DefaultRetries = 3
	DefaultTimeout = 10 * time.Second

	retryDelay     = 500 * time.Millisecond
	maxLoggedBytes = 512
)

// HTTPclient talks to a zkvoted API server.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// New returns a client for the API served at host. It fails if the server
// does not answer the ping endpoint.
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c: &http.Client{
			Transport: &http.Transport{IdleConnTimeout: DefaultTimeout},
			Timeout:   DefaultTimeout,
		},
		host:    hostURL,
		retries: DefaultRetries,
	}
	if err := c.ping(); err != nil {
		return nil, err
	}
	log.Debugw("api client ready", "host", hostURL.String())
	return c, nil
}

func (c *HTTPclient) ping() error {
	data, status, err := c.Request(HTTPGET, nil, nil, api.PingEndpoint)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return nil
}

// SetRetries sets the number of connection attempts per request. Values
// below one are treated as one.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = max(n, 1)
}

// SetTimeout sets the overall request timeout.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
	if tr, ok := c.c.Transport.(*http.Transport); ok {
		tr.ResponseHeaderTimeout = d
	}
}

// Request sends a raw request to the endpoint built by joining urlPath and
// returns the response body and status code. A non-nil jsonBody is sent as
// JSON. params holds query parameters as key/value pairs; a trailing key
// without a value is ignored.
func (c *HTTPclient) Request(method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, fmt.Errorf("could not encode request: %w", err)
		}
	}
	u := c.endpoint(params, urlPath...)
	log.Debugw("api request", "method", method, "url", u, "body", truncate(body))

	resp, err := c.do(method, u, body)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("could not close response body", "error", err)
		}
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("could not read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func (c *HTTPclient) endpoint(params []string, urlPath ...string) string {
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if len(params) > 1 {
		values := url.Values{}
		for i := 0; i+1 < len(params); i += 2 {
			values.Set(params[i], params[i+1])
		}
		u.RawQuery = values.Encode()
	}
	return u.String()
}

func (c *HTTPclient) do(method, u string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := http.NewRequest(method, u, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("could not build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.c.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Warnw("api request failed", "error", err, "attempt", attempt, "retries", c.retries)
		if attempt < c.retries {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.retries, lastErr)
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBytes {
		return string(b[:maxLoggedBytes]) + "..."
	}
	return string(b)
}
