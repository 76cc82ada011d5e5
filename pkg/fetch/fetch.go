package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// maxAttempts bounds the retry loop for one download.
const maxAttempts = 3

// Download fetches url into destPath. The body is written to a uniquely
// named temporary file next to the destination and renamed into place only
// after the full body has arrived, so a partial download never lands at
// destPath. Server errors and transport failures are retried with a linear
// backoff; client errors are not.
func Download(ctx context.Context, client *http.Client, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create destination directory")
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "failed to create request")
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resp.StatusCode >= 500 {
				// Server error, retry
				continue
			}
			return lastErr
		}

		// Rewind in case a previous attempt wrote a partial body.
		if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
			resp.Body.Close()
			return errors.Wrap(err, "failed to seek to beginning of file")
		}
		if err := tmpFile.Truncate(0); err != nil {
			resp.Body.Close()
			return errors.Wrap(err, "failed to truncate file")
		}

		written, err := io.Copy(tmpFile, resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if written == 0 {
			lastErr = fmt.Errorf("no content downloaded")
			continue
		}

		if err := tmpFile.Close(); err != nil {
			return errors.Wrap(err, "failed to close temporary file")
		}
		if err := os.Rename(tmpPath, destPath); err != nil {
			return errors.Wrap(err, "failed to move downloaded file")
		}
		return nil
	}

	return errors.Wrapf(lastErr, "download failed after %d attempts", maxAttempts)
}
