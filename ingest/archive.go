package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"planscape/utils"
)

// Archive is an opened landscape archive. Close releases the file and any
// downloaded temporary copy.
type Archive struct {
	*zip.ReadCloser
	tempPath string
}

// Close closes the archive and removes a downloaded copy.
func (a *Archive) Close() error {
	err := a.ReadCloser.Close()
	if a.tempPath != "" {
		os.Remove(a.tempPath)
	}
	return err
}

// OpenArchive opens location as a ZIP archive. An http(s) location is first
// downloaded to a temporary file, with retries; a missing archive is fatal
// for the run.
func OpenArchive(ctx context.Context, location string, client *http.Client, retry *utils.RetryConfig) (*Archive, error) {
	path := location
	var tempPath string

	if isRemote(location) {
		err := retry.Do(ctx, "download-landscape", func() error {
			p, err := downloadArchive(ctx, client, location)
			if err != nil {
				return err
			}
			tempPath = p
			return nil
		})
		if err != nil {
			return nil, err
		}
		path = tempPath
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		if tempPath != "" {
			os.Remove(tempPath)
		}
		return nil, fmt.Errorf("ingest: open archive %s: %w", location, err)
	}
	return &Archive{ReadCloser: rc, tempPath: tempPath}, nil
}

func isRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func downloadArchive(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "landscape_*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to save archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to save archive: %w", err)
	}
	return f.Name(), nil
}
