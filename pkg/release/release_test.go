package release

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetbarut/ratlog-install/pkg/platform"
)

func newResolver(serverURL string) *Resolver {
	return &Resolver{
		APIBaseURL: serverURL,
		Repo:       "ahmetbarut/ratlog",
		Client:     &http.Client{Timeout: 2 * time.Second},
	}
}

func releaseJSON(assetNames ...string) string {
	out := `{"tag_name":"v0.3.1","assets":[`
	for i, n := range assetNames {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"name":%q,"browser_download_url":"https://example.com/%s","size":12345}`, n, n)
	}
	return out + `]}`
}

func TestResolveAsset(t *testing.T) {
	linuxX86 := platform.Normalize("linux", "amd64")

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantAsset string
		wantErr   error
		transient bool
	}{
		{
			name: "single matching asset",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, releaseJSON("ratlog-v0.3.1-linux-x86_64.tar.gz", "ratlog-v0.3.1-darwin-aarch64.tar.gz"))
			},
			wantAsset: "ratlog-v0.3.1-linux-x86_64.tar.gz",
		},
		{
			name: "case insensitive match",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, releaseJSON("Ratlog-Linux-X86_64.zip"))
			},
			wantAsset: "Ratlog-Linux-X86_64.zip",
		},
		{
			name: "several matches picks first in listed order",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, releaseJSON(
					"ratlog-linux-x86_64.tar.gz",
					"ratlog-linux-x86_64.zip",
				))
			},
			wantAsset: "ratlog-linux-x86_64.tar.gz",
		},
		{
			name: "no matching asset",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, releaseJSON("ratlog-darwin-aarch64.tar.gz", "ratlog-windows-x86_64.zip"))
			},
			wantErr: ErrNoAsset,
		},
		{
			name: "empty asset list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"tag_name":"v0.3.1","assets":[]}`)
			},
			wantErr: ErrNoAsset,
		},
		{
			name: "no release published",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: ErrNoAsset,
		},
		{
			name: "server error is transient",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			transient: true,
		},
		{
			name: "rate limited is transient",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			transient: true,
		},
		{
			name: "malformed document is transient",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"assets": not json`)
			},
			transient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			asset, err := newResolver(server.URL).ResolveAsset(context.Background(), linuxX86)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, IsTransient(err))
				return
			}
			if tt.transient {
				require.Error(t, err)
				assert.True(t, IsTransient(err))
				assert.False(t, errors.Is(err, ErrNoAsset))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAsset, asset.Name)
			assert.NotEmpty(t, asset.DownloadURL)
		})
	}
}

func TestResolveAssetRequestShape(t *testing.T) {
	var gotPath, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, releaseJSON("ratlog-linux-x86_64.tar.gz"))
	}))
	defer server.Close()

	_, err := newResolver(server.URL).ResolveAsset(context.Background(), platform.Normalize("linux", "amd64"))
	require.NoError(t, err)
	assert.Equal(t, "/repos/ahmetbarut/ratlog/releases/latest", gotPath)
	assert.Equal(t, "application/vnd.github.v3+json", gotAccept)
}

func TestResolveAssetUnreachableEndpoint(t *testing.T) {
	r := &Resolver{
		APIBaseURL: "http://127.0.0.1:1",
		Repo:       "ahmetbarut/ratlog",
		Client:     &http.Client{Timeout: time.Second},
	}
	_, err := r.ResolveAsset(context.Background(), platform.Normalize("linux", "amd64"))
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestResolveAssetTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	r := newResolver(server.URL)
	r.Client = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := r.ResolveAsset(context.Background(), platform.Normalize("linux", "amd64"))
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
