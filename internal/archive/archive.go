// Package archive unpacks the zip bundles MAT datasets are shipped in.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/robert-malhotra/mat2img/internal/logger"
)

const Pattern = "*.zip"

var (
	// ErrInsecurePath is returned for an entry that would land outside the
	// destination directory.
	ErrInsecurePath = errors.New("archive: insecure entry path")
	ErrNotArchive   = errors.New("archive: not a zip archive")
)

// ExtractAll unpacks every archive in dir matching Pattern into out and
// returns the number of archives extracted.
func ExtractAll(ctx context.Context, fs afero.Fs, dir, out string) (int, error) {
	log := logger.FromContext(ctx)
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := doublestar.Match(Pattern, e.Name()); !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		src := filepath.Join(dir, e.Name())
		files, err := Extract(fs, src, out)
		if err != nil {
			return n, err
		}
		log.Info("Extracted", "archive", src, "files", len(files))
		n++
	}
	return n, nil
}

// Extract unpacks one archive into out and returns the written paths.
func Extract(fs afero.Fs, src, out string) ([]string, error) {
	f, err := fs.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if ok, err := isZip(f); err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotArchive, src)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}

	var written []string
	for _, entry := range zr.File {
		name := path.Clean(entry.Name)
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return written, fmt.Errorf("%w: %s in %s", ErrInsecurePath, entry.Name, src)
		}
		target := filepath.Join(out, filepath.FromSlash(name))
		if entry.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, 0o755); err != nil {
				return written, err
			}
			continue
		}
		if err := extractFile(fs, entry, target); err != nil {
			return written, fmt.Errorf("extracting %s from %s: %w", entry.Name, src, err)
		}
		written = append(written, target)
	}
	return written, nil
}

// isZip sniffs the content of r. Formats built on zip count.
func isZip(r io.Reader) (bool, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return false, err
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true, nil
		}
	}
	return false, nil
}

func extractFile(fs afero.Fs, entry *zip.File, target string) (err error) {
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	w, err := fs.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(w, rc)
	return err
}
