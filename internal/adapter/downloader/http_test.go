package downloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devboot/internal/adapter/logger"
	"devboot/internal/domain"
	"devboot/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func TestURL(t *testing.T) {
	d := NewHTTPDownloader(t.TempDir(), logger.Discard())
	assert.Equal(t,
		"https://code.visualstudio.com/sha/download?build=insiders&os=cli-alpine-arm64",
		d.URL(domain.ChannelInsiders, "arm64"))
}

func TestDownload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sha/download", r.URL.Path)
		assert.Equal(t, "stable", r.URL.Query().Get("build"))
		assert.Equal(t, "cli-alpine-x64", r.URL.Query().Get("os"))
		w.Write([]byte("tarball"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewHTTPDownloader(dir, logger.Discard(), WithBaseURL(srv.URL), WithPolicy(fastPolicy()))
	path, err := d.Download(context.Background(), domain.ChannelStable, "x64")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tarball", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDownload_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewHTTPDownloader(t.TempDir(), logger.Discard(), WithBaseURL(srv.URL), WithPolicy(fastPolicy()))
	_, err := d.Download(context.Background(), domain.ChannelStable, "x64")
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load())
}

func TestDownload_NotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewHTTPDownloader(t.TempDir(), logger.Discard(), WithBaseURL(srv.URL), WithPolicy(fastPolicy()))
	_, err := d.Download(context.Background(), domain.ChannelStable, "x64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.EqualValues(t, 1, hits.Load())
}

func TestDownload_Deadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	d := NewHTTPDownloader(t.TempDir(), logger.Discard(), WithBaseURL(srv.URL), WithPolicy(fastPolicy()))
	_, err := d.Download(ctx, domain.ChannelStable, "x64")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}
