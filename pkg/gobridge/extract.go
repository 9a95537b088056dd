package gobridge

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// An Extractor unpacks a toolchain distribution archive into a directory.
// Distribution archives are conventionally rooted in a single top-level
// directory, which implementations strip so the toolchain lands directly
// in dir.
type Extractor interface {
	Extract(dir string, archive io.Reader) error
}

// extractorsByExt maps archive extensions to their container format decoder.
var extractorsByExt = map[string]Extractor{
	"tar.gz": tarGzExtractor{},
	"zip":    zipExtractor{},
}

type tarGzExtractor struct{}

func (tarGzExtractor) Extract(dir string, archive io.Reader) error {
	gzr, err := gzip.NewReader(archive)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar stream: %w", err)
		}

		target, ok, err := stripRoot(dir, header.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)|0o700); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil && !os.IsExist(err) {
				return fmt.Errorf("link %s: %w", target, err)
			}
		}
	}

	return nil
}

type zipExtractor struct{}

// Extract buffers the archive in a scratch file first: the zip central
// directory lives at the end of the container, so the format cannot be
// decoded from a forward-only stream.
func (zipExtractor) Extract(dir string, archive io.Reader) error {
	scratch, err := os.CreateTemp("", "gobridge-zip-*")
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	defer os.Remove(scratch.Name())
	defer scratch.Close()

	size, err := io.Copy(scratch, archive)
	if err != nil {
		return fmt.Errorf("buffer zip archive: %w", err)
	}

	zr, err := zip.NewReader(scratch, size)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	for _, f := range zr.File {
		target, ok, err := stripRoot(dir, f.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode()|0o700); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s in zip archive: %w", f.Name, err)
		}

		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// stripRoot drops the single top-level path component of an archive entry
// and anchors the rest below dir. Entries with nothing below the root and
// entries that would escape dir are reported through ok and err.
func stripRoot(dir, name string) (target string, ok bool, err error) {
	name = path.Clean(strings.TrimPrefix(name, "./"))

	i := strings.IndexByte(name, '/')
	if i < 0 {
		return "", false, nil
	}

	rel := name[i+1:]
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false, fmt.Errorf("entry %q escapes the install directory", name)
	}

	return filepath.Join(dir, filepath.FromSlash(rel)), true, nil
}

func writeFile(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}

	return f.Close()
}
