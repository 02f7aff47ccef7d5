package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBackend(t *testing.T, root, ide string, mode os.FileMode) string {
	t.Helper()
	bin := filepath.Join(root, ide, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	script := filepath.Join(bin, "remote-dev-server.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), mode))
	return script
}

func TestFindRemoteDevServers(t *testing.T) {
	root := t.TempDir()
	want := makeBackend(t, root, "IU-233.11799", 0o755)
	makeBackend(t, root, "GO-233.11799", 0o644)

	assert.Equal(t, []string{want}, FindRemoteDevServers([]string{root, filepath.Join(root, "missing")}))
}

func TestPluginInstaller_InstallsIntoBackend(t *testing.T) {
	root := t.TempDir()
	script := makeBackend(t, root, "IU-233.11799", 0o755)
	f := newFixture()

	err := f.service().PluginInstaller(context.Background(), PluginInstallOptions{
		Project:   "/home/coder/project",
		PluginIDs: []string{"org.rust.lang", "com.github.copilot"},
		Roots:     []string{root},
		Interval:  10 * time.Millisecond,
		Wait:      time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{script, "installPlugins", "/home/coder/project", "org.rust.lang"},
		{script, "installPlugins", "/home/coder/project", "com.github.copilot"},
	}, f.runner.calls)
	assert.Contains(t, f.reporter.output(), "Installing plugin org.rust.lang")
	assert.Contains(t, f.reporter.output(), "2 installed, 0 failed")
}

func TestPluginInstaller_WaitsForBackend(t *testing.T) {
	root := t.TempDir()
	f := newFixture()

	bin := filepath.Join(root, "PY-233", "bin")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.MkdirAll(bin, 0o755)
		_ = os.WriteFile(filepath.Join(bin, "remote-dev-server.sh"), []byte("#!/bin/sh\n"), 0o755)
	}()

	err := f.service().PluginInstaller(context.Background(), PluginInstallOptions{
		Project:   "/p",
		PluginIDs: []string{"x"},
		Roots:     []string{root},
		Interval:  10 * time.Millisecond,
		Wait:      5 * time.Second,
	})
	require.NoError(t, err)
	assert.Len(t, f.runner.calls, 1)
}

func TestPluginInstaller_GivesUp(t *testing.T) {
	f := newFixture()
	err := f.service().PluginInstaller(context.Background(), PluginInstallOptions{
		Project:   "/p",
		PluginIDs: []string{"x"},
		Roots:     []string{t.TempDir()},
		Interval:  10 * time.Millisecond,
		Wait:      50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JetBrains IDE backend appeared")
	assert.Empty(t, f.runner.calls)
}

func TestPluginInstaller_Cancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := f.service().PluginInstaller(ctx, PluginInstallOptions{
		Roots:    []string{t.TempDir()},
		Interval: 10 * time.Millisecond,
		Wait:     time.Minute,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
