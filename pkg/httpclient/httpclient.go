package httpclient

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// New creates an HTTP client with a bounded per-call timeout that attaches
// the GITHUB_TOKEN bearer header to GitHub requests when the variable is set.
// A hung remote endpoint must never stall an install indefinitely, so every
// client carries a timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &gitHubTransport{
			Base: http.DefaultTransport,
		},
	}
}

// gitHubTransport is a RoundTripper that adds GitHub authentication.
type gitHubTransport struct {
	Base http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface.
func (t *gitHubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req2 := req.Clone(req.Context())

	if isGitHubURL(req2.URL.String()) {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			req2.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return t.Base.RoundTrip(req2)
}

// isGitHubURL checks if a URL is a GitHub URL
func isGitHubURL(url string) bool {
	return strings.Contains(url, "github.com") || strings.Contains(url, "api.github.com") || strings.Contains(url, "githubusercontent.com")
}
