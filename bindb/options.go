package bindb

import (
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the bindb service root
	DefaultBaseURL = "https://bindb.me"

	// DefaultTimeout bounds both connecting and the whole request
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "bindb-go/1.0"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	verifyTLS  bool
	userAgent  string
	httpClient *http.Client
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		verifyTLS: false,
		userAgent: defaultUserAgent,
	}
}

// WithBaseURL points the client at another bindb deployment or a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the connect and total request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithVerifyTLS turns certificate verification on or off.
// The service has historically been queried with verification disabled, which
// remains the default.
func WithVerifyTLS(verify bool) Option {
	return func(o *clientOptions) {
		o.verifyTLS = verify
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithHTTPClient sets a custom HTTP client. Timeout and TLS options are then
// the caller's responsibility.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}
