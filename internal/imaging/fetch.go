package imaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDownloadName is used when a URL path carries no usable file name.
const DefaultDownloadName = "CustomizableCard.png"

// IsURL reports whether s is an http or https URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetcher downloads card scans that are referenced by URL.
type Fetcher struct {
	HTTPClient *http.Client

	// Dir receives downloaded files. Empty means os.TempDir().
	Dir string
}

// NewFetcher creates a fetcher with a 30 second timeout that writes to the
// system temp directory.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads rawURL and returns the local path of the file.
//
// The local file keeps the (unescaped) name of the last URL path element so
// the generated script and debug image are named after the card. URLs
// without a name that has an extension are saved as DefaultDownloadName.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	name, err := DownloadName(rawURL)
	if err != nil {
		return "", err
	}

	dir := f.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	target := filepath.Join(dir, name)

	slog.Info("Downloading image", "url", rawURL, "path", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: unexpected status %s", resp.Status)
	}

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write download file: %w", err)
	}

	return target, nil
}

// DownloadName derives the local file name for a downloaded URL.
func DownloadName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid image URL: %w", err)
	}

	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	// Never let an encoded separator escape the download directory.
	name = filepath.Base(filepath.FromSlash(name))

	if strings.Trim(name, ".") == "" || name == "/" || !strings.Contains(name, ".") {
		return DefaultDownloadName, nil
	}
	return name, nil
}
