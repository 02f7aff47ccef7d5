package extractor

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"devboot/internal/domain"
)

// maxBinarySize guards against a corrupt or hostile archive filling the disk.
const maxBinarySize = 512 << 20

// TarExtractor pulls a single executable out of a gzipped tarball.
type TarExtractor struct {
	logger domain.Logger
}

// NewTarExtractor creates a TarExtractor.
func NewTarExtractor(logger domain.Logger) *TarExtractor {
	return &TarExtractor{logger: logger}
}

// ExtractBinary finds the regular file named binaryName at any depth of the
// archive and installs it at destPath with mode 0755. The destination is
// replaced atomically so a concurrent reader never sees a partial binary.
func (e *TarExtractor) ExtractBinary(archivePath, binaryName, destPath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read gzip header: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("archive %s has no %q entry, delete it and retry", archivePath, binaryName)
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != binaryName {
			continue
		}
		if hdr.Size > maxBinarySize {
			return fmt.Errorf("archive entry %s is too large (%d bytes)", hdr.Name, hdr.Size)
		}
		e.logger.Info("extracting binary", "entry", hdr.Name, "path", destPath)
		return install(tr, destPath)
	}
}

func install(r io.Reader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".extract-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, io.LimitReader(r, maxBinarySize))
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write binary: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod binary: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename binary: %w", err)
	}
	return nil
}
