package artifacts

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"text/template"

	"devboot/internal/domain"
	derrors "devboot/internal/errors"
)

var manifestTmpl = template.Must(template.New("externalDependencies").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="ExternalDependencies">
{{- range .}}
    <plugin id="{{xml .}}" />
{{- end}}
  </component>
</project>
`))

func xmlEscape(s string) (string, error) {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderManifest returns the externalDependencies.xml document for ids.
func RenderManifest(ids []string) ([]byte, error) {
	var b bytes.Buffer
	if err := manifestTmpl.Execute(&b, ids); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// ProvisionManifest writes the plugin manifest at path, which lives in the
// project's .idea directory. A project directory that does not exist yet is
// skipped rather than created. An existing manifest is replaced atomically.
func (p *Provisioner) ProvisionManifest(path string, ids []string) (domain.ManifestOutcome, error) {
	if len(ids) == 0 {
		return domain.NothingToDo, nil
	}

	ideaDir := filepath.Dir(path)
	project := filepath.Dir(ideaDir)
	if info, err := os.Stat(project); err != nil || !info.IsDir() {
		p.logger.Info("project directory missing, manifest skipped", "path", project)
		return domain.SkippedMissingDir, nil
	}

	doc, err := RenderManifest(ids)
	if err != nil {
		return 0, derrors.IO("render plugin manifest", err)
	}
	if err := os.MkdirAll(ideaDir, 0o755); err != nil {
		return 0, derrors.IO("create .idea directory", err)
	}

	tmpPath, err := writeTemp(ideaDir, ".externalDependencies-*", doc, 0o644)
	if err != nil {
		return 0, derrors.IO("stage plugin manifest", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, derrors.IO("install plugin manifest", err)
	}
	p.logger.Info("plugin manifest written", "path", path, "plugins", len(ids))
	return domain.Written, nil
}
