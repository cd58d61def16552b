// Package backend is the HTTP client for the resume verification backend.
// Each call maps the backend's status codes and loosely shaped bodies onto
// typed results, ErrStillProcessing, or a *Error with a Kind.
package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "ProfileAuditor/1.0"

// DefaultBaseURL is where the backend listens in local development.
const DefaultBaseURL = "http://localhost:8000"

// API paths relative to the base URL.
const (
	pathUpload       = "/api/resume/upload"
	pathResume       = "/api/resume/{id}"
	pathVerification = "/api/verification/{id}"
	pathScore        = "/api/score/{id}"
	pathInvite       = "/api/invite/{id}"
)

// Options configures the client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// HTTPClient replaces the default transport, mostly for tests.
	HTTPClient *http.Client
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client talks to the verification backend.
type Client struct {
	rest    *resty.Client
	baseURL string
}

// New creates a client. A nil opts uses DefaultOptions.
func New(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	for key, value := range opts.Headers {
		rc.SetHeader(key, value)
	}

	return &Client{rest: rc, baseURL: baseURL}
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) request(ctx context.Context, id string) *resty.Request {
	return c.rest.R().SetContext(ctx).SetPathParam("id", id)
}

// endpoint renders a path for error messages.
func (c *Client) endpoint(path, id string) string {
	return c.baseURL + strings.Replace(path, "{id}", id, 1)
}

func checkID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return &Error{Op: op, Kind: KindInvalidInput, Detail: ErrEmptyResumeID.Error(), Cause: ErrEmptyResumeID}
	}
	return nil
}
