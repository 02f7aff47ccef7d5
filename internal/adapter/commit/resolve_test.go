package commit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"devboot/internal/domain"
)

const testCommit = "abc123def456abc123def456abc123def456abc1"

func apiServer(t *testing.T, check func(path string), body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r.URL.Path)
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testResolver(ts *httptest.Server, arch string, ch domain.Channel) *Resolver {
	r := NewResolver(arch, ch)
	r.baseURL = ts.URL
	r.client = ts.Client()
	return r
}

func TestResolve_PassThrough(t *testing.T) {
	r := NewResolver("x64", domain.ChannelStable)
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  \n  ", ""},
		{testCommit, testCommit},
		{strings.ToUpper(testCommit), testCommit},
		{"abc123def456", "abc123def456"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("Resolve(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve_Semver(t *testing.T) {
	ts := apiServer(t, func(p string) {
		if p != "/api/update/server-linux-x64/stable/1.109.5" {
			t.Errorf("unexpected path: %s", p)
		}
	}, `{"version":"`+testCommit+`","productVersion":"1.109.5"}`)

	got, err := testResolver(ts, "x64", domain.ChannelStable).Resolve(context.Background(), "1.109.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != testCommit {
		t.Errorf("got %q, want %q", got, testCommit)
	}
}

func TestResolve_Latest(t *testing.T) {
	ts := apiServer(t, func(p string) {
		if !strings.HasSuffix(p, "/insiders/"+zeroCommit) {
			t.Errorf("expected insiders channel and zero commit, got path: %s", p)
		}
		if !strings.Contains(p, "server-linux-arm64") {
			t.Errorf("expected arm64 in URL, got: %s", p)
		}
	}, `{"version":"`+testCommit+`"}`)

	got, err := testResolver(ts, "arm64", domain.ChannelInsiders).Resolve(context.Background(), "LATEST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != testCommit {
		t.Errorf("got %q, want %q", got, testCommit)
	}
}

func TestResolve_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := testResolver(ts, "x64", domain.ChannelStable).Resolve(context.Background(), "latest")
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Fatalf("expected HTTP 500 error, got %v", err)
	}
}

func TestResolve_APIBadJSON(t *testing.T) {
	ts := apiServer(t, nil, "not json")

	_, err := testResolver(ts, "x64", domain.ChannelStable).Resolve(context.Background(), "latest")
	if err == nil || !strings.Contains(err.Error(), "invalid API response") {
		t.Fatalf("expected invalid response error, got %v", err)
	}
}

func TestResolve_APIBadVersion(t *testing.T) {
	ts := apiServer(t, nil, `{"version":"not-a-hash"}`)

	_, err := testResolver(ts, "x64", domain.ChannelStable).Resolve(context.Background(), "latest")
	if err == nil || !strings.Contains(err.Error(), "unexpected version format") {
		t.Fatalf("expected version format error, got %v", err)
	}
}

func TestResolve_Cancelled(t *testing.T) {
	ts := apiServer(t, nil, `{"version":"`+testCommit+`"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testResolver(ts, "x64", domain.ChannelStable).Resolve(ctx, "latest"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
