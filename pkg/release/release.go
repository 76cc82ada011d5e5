package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/ahmetbarut/ratlog-install/pkg/platform"
)

// DefaultAPIBaseURL is the GitHub API endpoint used when no override is
// configured.
const DefaultAPIBaseURL = "https://api.github.com"

// ErrNoAsset signals that the latest release has no asset for the requested
// platform, or that no release exists at all. This is an expected branch of
// the fallback chain, not a bug: it means "no prebuilt binary for this host".
var ErrNoAsset = errors.New("no matching release asset")

// TransientError wraps a failure that might not recur on a different
// strategy: network errors, timeouts, server errors, malformed responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err represents a transient resolution failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Asset describes one downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// releaseDoc is the minimal schema decoded from the release metadata
// document. Every other field the API returns is ignored.
type releaseDoc struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Resolver locates the release asset matching a platform. It keeps no state
// between calls; every resolution fetches the metadata document fresh.
type Resolver struct {
	// APIBaseURL is the release metadata endpoint, overridable for tests.
	APIBaseURL string
	// Repo is the "owner/name" GitHub repository.
	Repo string
	// Client performs the metadata request. It must carry a timeout.
	Client *http.Client
}

// ResolveAsset fetches the latest-release metadata and returns the first
// asset whose filename contains the platform identifier as a substring.
// Releases are expected to publish at most one asset per platform, so
// first-in-listed-order is the explicit tie-break.
//
// A missing release or a release with no matching asset returns ErrNoAsset.
// Network failures, server errors, and malformed documents return a
// *TransientError.
func (r *Resolver) ResolveAsset(ctx context.Context, p platform.Platform) (Asset, error) {
	base := r.APIBaseURL
	if base == "" {
		base = DefaultAPIBaseURL
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", base, r.Repo)
	log.WithField("url", url).Debug("fetching release metadata")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, errors.Wrap(err, "failed to create release request")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return Asset{}, &TransientError{Err: errors.Wrap(err, "failed to fetch release metadata")}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No published release at all.
		return Asset{}, errors.Wrapf(ErrNoAsset, "no release found for %s", r.Repo)
	case resp.StatusCode != http.StatusOK:
		return Asset{}, &TransientError{Err: fmt.Errorf("release metadata request returned status %d", resp.StatusCode)}
	}

	var doc releaseDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Asset{}, &TransientError{Err: errors.Wrap(err, "malformed release metadata")}
	}
	log.WithField("tag", doc.TagName).WithField("assets", len(doc.Assets)).Debug("release metadata fetched")

	want := strings.ToLower(p.String())
	for _, a := range doc.Assets {
		if strings.Contains(strings.ToLower(a.Name), want) {
			log.WithField("asset", a.Name).Debug("matched release asset")
			return a, nil
		}
	}

	return Asset{}, errors.Wrapf(ErrNoAsset, "release %s has no asset for %s", doc.TagName, p)
}
