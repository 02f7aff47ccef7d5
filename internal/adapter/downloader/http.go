package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"devboot/internal/domain"
	"devboot/internal/retry"
)

// DefaultBaseURL serves the standalone VS Code CLI builds.
const DefaultBaseURL = "https://code.visualstudio.com"

// HTTPDownloader downloads VS Code CLI tarballs via HTTP.
type HTTPDownloader struct {
	cacheDir string
	baseURL  string
	client   *http.Client
	policy   retry.Policy
	logger   domain.Logger
}

// Option configures an HTTPDownloader.
type Option func(*HTTPDownloader)

// WithBaseURL points the downloader at another host, mainly for tests.
func WithBaseURL(u string) Option { return func(d *HTTPDownloader) { d.baseURL = u } }

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option { return func(d *HTTPDownloader) { d.client = c } }

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) Option { return func(d *HTTPDownloader) { d.policy = p } }

// NewHTTPDownloader creates a downloader that stages archives in cacheDir.
func NewHTTPDownloader(cacheDir string, logger domain.Logger, opts ...Option) *HTTPDownloader {
	d := &HTTPDownloader{
		cacheDir: cacheDir,
		baseURL:  DefaultBaseURL,
		client:   &http.Client{},
		policy:   retry.DefaultPolicy(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// URL returns the download address for a channel and arch.
func (d *HTTPDownloader) URL(channel domain.Channel, arch string) string {
	q := url.Values{}
	q.Set("build", string(channel))
	q.Set("os", "cli-alpine-"+arch)
	return d.baseURL + "/sha/download?" + q.Encode()
}

// Download fetches the CLI tarball and returns the path of the archive.
// The caller bounds the whole operation through ctx and owns the returned file.
func (d *HTTPDownloader) Download(ctx context.Context, channel domain.Channel, arch string) (string, error) {
	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	dest := filepath.Join(d.cacheDir, fmt.Sprintf("vscode-cli-%s-%s.tar.gz", channel, arch))
	src := d.URL(channel, arch)

	d.logger.Info("downloading VS Code CLI", "channel", string(channel), "arch", arch)

	err := d.policy.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			d.logger.Info("retrying download", "attempt", attempt+1)
		}
		return d.fetch(ctx, src, dest)
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

func (d *HTTPDownloader) fetch(ctx context.Context, src, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("download returned HTTP %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return retry.Permanent(fmt.Errorf("download returned HTTP %d", resp.StatusCode))
	}

	// Write to temp file then rename atomically
	tmp, err := os.CreateTemp(d.cacheDir, ".download-*")
	if err != nil {
		return retry.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write tarball: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return retry.Permanent(fmt.Errorf("close temp file: %w", closeErr))
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return retry.Permanent(fmt.Errorf("rename tarball: %w", err))
	}

	d.logger.Info("download complete", "path", dest, "size", humanize.Bytes(uint64(n)))
	return nil
}
