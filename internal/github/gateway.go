package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/danielolaszy/release-pr/internal/logging"
	"github.com/google/go-github/v41/github"
	"github.com/google/go-querystring/query"
)

const userAgent = "release-pr"

// Response is a GitHub API response with its body already read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// NextPage is the page number of the rel="next" link, or 0 on the last page.
	NextPage int
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// Message extracts GitHub's error message. The first entry of the "errors"
// array is preferred over the top level message since validation failures
// put the useful text there.
func (r *Response) Message() string {
	var errResp github.ErrorResponse
	if err := json.Unmarshal(r.Body, &errResp); err != nil {
		return http.StatusText(r.StatusCode)
	}
	for _, e := range errResp.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return http.StatusText(r.StatusCode)
}

// Gateway performs authenticated JSON requests against the GitHub REST API.
// Non-2xx responses are returned as ordinary responses; only transport
// failures produce an error.
type Gateway struct {
	client  *github.Client
	timeout time.Duration
}

// NewGateway creates a gateway that sends requests through httpClient, which is
// expected to add the authorization header, resolving paths against endpoint.
func NewGateway(httpClient *http.Client, endpoint string, timeout time.Duration) (*Gateway, error) {
	baseURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}

	client := github.NewClient(httpClient)
	client.BaseURL = baseURL
	client.UploadURL = baseURL
	client.UserAgent = userAgent

	return &Gateway{
		client:  client,
		timeout: timeout,
	}, nil
}

// Get issues a GET request. opts, when not nil, is encoded into the query
// string using its `url` struct tags.
func (g *Gateway) Get(ctx context.Context, path string, opts interface{}) (*Response, error) {
	if opts != nil {
		var err error
		path, err = addOptions(path, opts)
		if err != nil {
			return nil, err
		}
	}
	return g.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return g.do(ctx, http.MethodPost, path, body)
}

// Patch issues a PATCH request with a JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return g.do(ctx, http.MethodPatch, path, body)
}

func (g *Gateway) do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	req, err := g.client.NewRequest(method, path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	op := method + " " + req.URL.Path
	start := time.Now()

	// BareDo reports non-2xx statuses as an error alongside the response. Only
	// a missing response means the request never completed.
	resp, err := g.client.BareDo(ctx, req)
	if resp == nil || resp.Response == nil {
		logging.Debug("github request failed", "method", method, "path", req.URL.Path, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	var data []byte
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		data = accepted.Raw
	} else if data, err = io.ReadAll(resp.Body); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	logging.Debug("github request",
		"method", method,
		"path", req.URL.Path,
		"status_code", resp.StatusCode,
		"rate_remaining", resp.Rate.Remaining,
		"duration", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		NextPage:   resp.NextPage,
	}, nil
}

// addOptions merges the query parameters described by opts into path.
func addOptions(path string, opts interface{}) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return path, fmt.Errorf("invalid request path %q: %w", path, err)
	}

	values, err := query.Values(opts)
	if err != nil {
		return path, fmt.Errorf("failed to encode query options: %w", err)
	}

	existing := u.Query()
	for key, vals := range values {
		existing[key] = vals
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}
