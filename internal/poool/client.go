// Package poool is the typed HTTP client for the Poool CRM API. It owns base
// URL selection, auth header injection and the translation of HTTP failure
// statuses into user-facing domain errors. Expected failures are returned as
// typed errors, never panics.
package poool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"crmbulk_backend/platform/apperr"
	"crmbulk_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	productionBaseURL = "https://app.poool.cc/api/2"
	stagingBaseURL    = "https://staging-app.poool.rocks/api/2"

	searchPageSize = 10

	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Options configures a Client for one credential set.
type Options struct {
	APIKey      string
	Environment string // production, staging or custom
	CustomURL   string // required for custom
	Timeout     time.Duration
	// ConnectTimeout applies to TestConnection only.
	ConnectTimeout time.Duration
	// RateLimit is the request budget toward the CRM in requests per second.
	// Zero disables client-side pacing.
	RateLimit float64
}

// Client talks to one Poool instance with one API key. It is safe to build
// per request; it holds no state beyond the HTTP client and limiter.
type Client struct {
	baseURL     string
	apiKey      string
	environment string
	http        *http.Client
	connect     *http.Client
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewClient builds a client for the given credentials and environment.
func NewClient(opts Options, log *logger.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL:     resolveBaseURL(opts.Environment, opts.CustomURL),
		apiKey:      opts.APIKey,
		environment: opts.Environment,
		http:        &http.Client{Timeout: timeout},
		connect:     &http.Client{Timeout: connectTimeout},
		limiter:     limiter,
		log:         log,
	}
}

// BaseURL reports the resolved API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func resolveBaseURL(environment, customURL string) string {
	switch strings.ToLower(environment) {
	case "staging":
		return stagingBaseURL
	case "custom":
		if customURL == "" {
			return productionBaseURL
		}
		trimmed := strings.TrimRight(customURL, "/")
		if strings.HasSuffix(trimmed, "/api/2") {
			return trimmed
		}
		return trimmed + "/api/2"
	default:
		return productionBaseURL
	}
}

// TestConnection performs a lightweight GET used purely for credential
// validation. It uses the short connect timeout.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/contact_types", nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not build request", err)
	}
	c.setHeaders(req)

	resp, err := c.connect.Do(req)
	if err != nil {
		return transportError("connection test", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return apperr.Unauthorized("Invalid API key")
	default:
		return apperr.Newf(apperr.KindUnavailable, "API returned status %d", resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// envelope is the top-level response/request wrapper used by every Poool
// endpoint.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// do performs one CRM request and decodes the data envelope. A nil body means
// no payload. The returned raw message is the "data" member of the response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, resource string) (*envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(resource, err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(map[string]interface{}{"data": body})
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not encode request payload", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not build request", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.UpstreamError(resource, 0, err)
		return nil, transportError(resource, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.UpstreamError(resource, resp.StatusCode, err)
		return nil, transportError(resource, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := translateStatus(resp.StatusCode, raw, resource)
		c.log.UpstreamError(resource, resp.StatusCode, err)
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.UpstreamError(resource, resp.StatusCode, err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return &env, nil
}

// getPaginated follows links.next until exhausted, invoking collect with each
// page's data member.
func (c *Client) getPaginated(ctx context.Context, path, resource string, collect func(data json.RawMessage) (int, error)) error {
	page := 1
	for {
		query := url.Values{}
		query.Set("page", fmt.Sprintf("%d", page))

		env, err := c.do(ctx, http.MethodGet, path, query, nil, resource)
		if err != nil {
			return err
		}

		count, err := collect(env.Data)
		if err != nil {
			return err
		}
		if count == 0 || env.Links.Next == "" {
			return nil
		}
		page++
	}
}

// translateStatus maps a CRM failure status to a user-facing error. The
// messages are rendered directly in row reports.
func translateStatus(status int, body []byte, resource string) error {
	switch status {
	case http.StatusBadRequest:
		return apperr.Validation(validationMessage(body))
	case http.StatusUnauthorized:
		return apperr.Unauthorized("Authentication failed: Invalid or expired API key")
	case http.StatusForbidden:
		return apperr.Newf(apperr.KindForbidden, "Permission denied: Insufficient privileges for %s", resource)
	case http.StatusNotFound:
		return apperr.Newf(apperr.KindNotFound, "%s not found", titleWord(resource))
	case http.StatusTooManyRequests:
		return apperr.RateLimited("Rate limit exceeded: Please wait before retrying")
	default:
		if status >= 500 {
			return apperr.Unavailable("Server error: Please try again later")
		}
		var parsed struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
			return apperr.Newf(apperr.KindUnknown, "API error (%d): %s", status, parsed.Message)
		}
		return apperr.Newf(apperr.KindUnknown, "HTTP %d: Unknown error", status)
	}
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// validationMessage joins per-field messages from a 400 body.
func validationMessage(body []byte) string {
	var parsed struct {
		Errors  map[string][]string `json:"errors"`
		Message string              `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "Bad request: Invalid data format"
	}
	if len(parsed.Errors) > 0 {
		parts := make([]string, 0, len(parsed.Errors))
		for field, msgs := range parsed.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, ", ")))
		}
		sort.Strings(parts)
		return "Validation errors: " + strings.Join(parts, "; ")
	}
	if parsed.Message != "" {
		return "Bad request: " + parsed.Message
	}
	return "Bad request: Invalid data"
}

func transportError(resource string, err error) error {
	return apperr.Wrap(apperr.KindUnavailable, fmt.Sprintf("Unexpected error during %s: %v", resource, err), err)
}
