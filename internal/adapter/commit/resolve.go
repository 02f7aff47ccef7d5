package commit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"devboot/internal/domain"
)

var (
	hexHashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)
	semverRe  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

const (
	defaultBaseURL = "https://update.code.visualstudio.com"
	zeroCommit     = "0000000000000000000000000000000000000000"
)

// Resolver turns a pinned version or "latest" into a full commit hash using
// the update API. Any other non-empty value is passed through untouched.
type Resolver struct {
	arch    string
	channel domain.Channel
	client  *http.Client
	baseURL string
}

// NewResolver creates a Resolver for an architecture (x64, arm64) and channel.
func NewResolver(arch string, channel domain.Channel) *Resolver {
	if channel == "" {
		channel = domain.ChannelStable
	}
	return &Resolver{
		arch:    arch,
		channel: channel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Resolve returns ("", nil) for empty input, the lowercased hash for a 40-char
// hash, a looked-up hash for "X.Y.Z" or "latest", and input otherwise.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	lower := strings.ToLower(input)

	switch {
	case hexHashRe.MatchString(lower):
		return lower, nil
	case semverRe.MatchString(input):
		return r.fetchCommit(ctx, input)
	case lower == "latest":
		return r.fetchCommit(ctx, zeroCommit)
	default:
		return input, nil
	}
}

func (r *Resolver) fetchCommit(ctx context.Context, ref string) (string, error) {
	url := fmt.Sprintf("%s/api/update/server-linux-%s/%s/%s", r.baseURL, r.arch, r.channel, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("resolve commit: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve commit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve commit: update API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("resolve commit: read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("resolve commit: invalid API response")
	}

	// "version" carries the commit hash; "productVersion" the X.Y.Z release.
	version := gjson.GetBytes(body, "version").String()
	if !hexHashRe.MatchString(version) {
		return "", fmt.Errorf("resolve commit: API returned unexpected version format %q", version)
	}
	return version, nil
}
