package bindb

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Client represents a bindb API client.
//
// Configuration calls (Error, Fields, Query) return a new Client snapshot and
// leave the receiver untouched, so a configured client can be shared between
// call sites without one of them changing the field filter of another.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger

	errorMode bool
	fields    []string
	query     *queryState

	last *rawResponse
}

// queryState is what Query leaves behind for Run
type queryState struct {
	query *Query
	err   error
}

// rawResponse retains the body of the last request made by a snapshot
type rawResponse struct {
	mu   sync.Mutex
	body string
}

func (r *rawResponse) store(body string) {
	r.mu.Lock()
	r.body = body
	r.mu.Unlock()
}

func (r *rawResponse) load() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body
}

// ParseToken converts an untyped token, as read from configuration, to a
// string. nil means no token (public access); anything other than a string is
// rejected with ErrInvalidArgument.
func ParseToken(v any) (string, error) {
	switch token := v.(type) {
	case nil:
		return "", nil
	case string:
		return token, nil
	default:
		return "", fmt.Errorf("%w: app token must be string, %T given", ErrInvalidArgument, v)
	}
}

// NewClient creates a new bindb client. An empty token selects the public API;
// any other string is used as the app token and path-escaped in request URLs.
// No request is made until a lookup.
func NewClient(token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(o.baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be an absolute http(s) URL", ErrInvalidArgument, o.baseURL)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = newHTTPClient(o.timeout, o.verifyTLS)
	}

	return &Client{
		baseURL:    o.baseURL,
		token:      token,
		userAgent:  o.userAgent,
		httpClient: httpClient,
		logger:     logger,
		last:       &rawResponse{},
	}, nil
}

func newHTTPClient(timeout time.Duration, verifyTLS bool) *http.Client {
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: timeout,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !verifyTLS}, //nolint:gosec // configurable, off by default
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// clone returns a snapshot with its own field filter and raw response
func (c *Client) clone() *Client {
	cp := *c
	cp.fields = slices.Clone(c.fields)
	cp.last = &rawResponse{}
	return &cp
}

// Error switches error mode. When enabled, lookup failures are returned as
// errors; otherwise they yield a nil record and a nil error.
func (c *Client) Error(enabled bool) *Client {
	cp := c.clone()
	cp.errorMode = enabled
	return cp
}

// Fields restricts lookups to the given fields, in that order. Calling it
// with no fields selects all fields again.
func (c *Client) Fields(fields ...string) *Client {
	cp := c.clone()
	cp.fields = nil
	if len(fields) > 0 {
		cp.fields = slices.Clone(fields)
	}
	return cp
}

// Query parses a BinDBQL statement for a later Run. "SELECT *" clears the
// field filter and a field list replaces it. A statement that does not parse
// leaves the field filter alone and makes Run fail with
// ErrMissingQueryParameter.
func (c *Client) Query(query string) *Client {
	cp := c.clone()

	parsed, err := ParseQuery(query)
	cp.query = &queryState{query: parsed, err: err}
	if err != nil {
		c.logger.Debug().Err(err).Str("query", query).Msg("Failed to parse BinDBQL query")
		return cp
	}

	if parsed.Fields.All {
		cp.fields = nil
	} else {
		cp.fields = slices.Clone(parsed.Fields.Names)
	}

	return cp
}

// ErrorMode reports whether errors are returned instead of a nil record
func (c *Client) ErrorMode() bool {
	return c.errorMode
}

// SelectedFields returns the active field filter; empty means all fields
func (c *Client) SelectedFields() []string {
	return slices.Clone(c.fields)
}

// LastResponse returns the raw body of the last request made through this client
func (c *Client) LastResponse() string {
	return c.last.load()
}

// lookupURL builds <base>/api/<public|private/token>/json/<bin>[?fields=a,b]
func (c *Client) lookupURL(bin string) string {
	resource := "public"
	if c.token != "" {
		resource = "private/" + url.PathEscape(c.token)
	}

	requestURL := fmt.Sprintf("%s/api/%s/json/%s", c.baseURL, resource, bin)
	if len(c.fields) > 0 {
		requestURL += "?fields=" + strings.Join(c.fields, ",")
	}
	return requestURL
}

// redact hides the app token in URLs that end up in logs and errors
func (c *Client) redact(requestURL string) string {
	if c.token == "" {
		return requestURL
	}
	return strings.Replace(requestURL, "/private/"+url.PathEscape(c.token)+"/", "/private/***/", 1)
}

// RawLookup performs the GET request and returns the response body unparsed.
// The bin is embedded in the path as given. A transport failure yields an
// empty body and a *TransportError.
func (c *Client) RawLookup(ctx context.Context, bin any) (string, error) {
	requestURL := c.lookupURL(formatBin(bin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		c.last.store("")
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInvalidArgument, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug().
		Str("method", http.MethodGet).
		Str("url", c.redact(requestURL)).
		Msg("Making bindb API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = c.redact(urlErr.URL)
		}
		c.last.store("")
		return "", &TransportError{URL: c.redact(requestURL), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.last.store("")
		return "", &TransportError{URL: c.redact(requestURL), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("Received bindb API response")

	c.last.store(string(body))
	return string(body), nil
}

// Lookup fetches the record for a bin. A bin the service does not know, or
// any other failure, yields (nil, nil) unless error mode is on.
func (c *Client) Lookup(ctx context.Context, bin any) (*Record, error) {
	body, err := c.RawLookup(ctx, bin)
	if err != nil {
		return c.fail(err)
	}

	rec, err := decodeRecord([]byte(body))
	if err != nil {
		return c.fail(err)
	}

	if details, ok := rec.remoteError(); ok {
		return c.fail(&RemoteError{
			Bin:     formatBin(bin),
			Message: details.Message,
			Code:    details.Code,
		})
	}

	return rec.project(c.fields), nil
}

// Search is an alias of Lookup.
func (c *Client) Search(ctx context.Context, bin any) (*Record, error) {
	return c.Lookup(ctx, bin)
}

// Get is an alias of Lookup.
func (c *Client) Get(ctx context.Context, bin any) (*Record, error) {
	return c.Lookup(ctx, bin)
}

// LookupMap is Lookup returning a plain map. Maps are unordered; callers
// that need the requested field order should use Lookup and Record.Keys.
func (c *Client) LookupMap(ctx context.Context, bin any) (map[string]any, error) {
	rec, err := c.Lookup(ctx, bin)
	if rec == nil {
		return nil, err
	}
	return rec.Map(), nil
}

// Run executes the query built by Query. A placeholder bin is taken from the
// first parameter, which may be a scalar or a non-empty slice whose first
// element is used; a literal bin ignores params.
func (c *Client) Run(ctx context.Context, params ...any) (*Record, error) {
	if c.query == nil {
		return c.fail(ErrQueryNotBuilt)
	}
	if c.query.err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrMissingQueryParameter, c.query.err))
	}

	bin := c.query.query.Bin.Value
	if c.query.query.Bin.Placeholder {
		value, ok := firstParam(params)
		if !ok {
			return c.fail(ErrMissingQueryParameter)
		}
		bin = url.QueryEscape(value)
	}

	return c.Lookup(ctx, bin)
}

// fail applies error mode to err
func (c *Client) fail(err error) (*Record, error) {
	if c.errorMode {
		return nil, err
	}
	c.logger.Debug().Err(err).Msg("bindb lookup returned no result")
	return nil, nil
}

// firstParam extracts the value bound to the placeholder
func firstParam(params []any) (string, bool) {
	if len(params) == 0 || params[0] == nil {
		return "", false
	}

	p := params[0]
	if b, ok := p.([]byte); ok {
		p = string(b)
	}

	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return "", false
		}
		p = rv.Index(0).Interface()
		if p == nil {
			return "", false
		}
	}

	s := formatBin(p)
	return s, s != ""
}

func formatBin(bin any) string {
	switch b := bin.(type) {
	case string:
		return b
	case nil:
		return ""
	default:
		return fmt.Sprint(b)
	}
}
