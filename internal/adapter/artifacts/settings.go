// Package artifacts writes editor settings and IDE plugin manifests.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"devboot/internal/domain"
	derrors "devboot/internal/errors"
)

// Provisioner implements domain.ArtifactProvisioner on the local filesystem.
type Provisioner struct {
	logger domain.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(logger domain.Logger) *Provisioner {
	return &Provisioner{logger: logger}
}

// ProvisionSettings writes settings to path unless a file is already there.
// The document is staged in a temp file and hard-linked into place, so the
// target either does not exist or holds the complete document, and an
// existing file is never touched.
func (p *Provisioner) ProvisionSettings(path string, settings domain.Settings) (domain.WriteOutcome, error) {
	if _, err := os.Lstat(path); err == nil {
		return domain.SkippedExisting, nil
	}

	doc, err := RenderSettings(settings)
	if err != nil {
		return 0, derrors.IO("render settings", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, derrors.IO("create settings directory", err)
	}

	tmpPath, err := writeTemp(dir, ".settings-*", doc, 0o644)
	if err != nil {
		return 0, derrors.IO("stage settings", err)
	}
	defer os.Remove(tmpPath)

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.SkippedExisting, nil
		}
		return 0, derrors.IO("install settings", err)
	}
	p.logger.Info("settings written", "path", path, "keys", len(settings))
	return domain.Created, nil
}

// RenderSettings builds the pretty-printed JSON object for settings, keeping
// their order.
func RenderSettings(settings domain.Settings) ([]byte, error) {
	doc := []byte(`{}`)
	for _, s := range settings {
		if !gjson.ValidBytes(s.Value) {
			return nil, fmt.Errorf("setting %q has an invalid JSON value", s.Key)
		}
		var err error
		doc, err = sjson.SetRawBytes(doc, escapeKey(s.Key), s.Value)
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", s.Key, err)
		}
	}
	return pretty.PrettyOptions(doc, &pretty.Options{Width: 80, Indent: "  "}), nil
}

// escapeKey turns a literal object key into an sjson path selecting exactly
// that key.
func escapeKey(key string) string {
	var b strings.Builder
	if n := strings.TrimPrefix(key, "-"); n != "" && strings.Trim(n, "0123456789") == "" {
		// numeric keys would otherwise address array elements
		b.WriteByte(':')
	}
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', ':', '[', ']', '{', '}', ',':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func writeTemp(dir, pattern string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(name, perm)
	}
	if werr != nil {
		os.Remove(name)
		return "", werr
	}
	return name, nil
}
