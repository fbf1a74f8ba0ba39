// Package archive builds the dated ZIP snapshot from a date directory
// already populated with per-chain CSV output.
package archive

import (
	"archive/zip"
	"compress/flate"
	_ "embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed archive-info.txt
var noticeTemplate []byte

// NoticeFileName is the sidecar notice copied into every date
// directory before it is zipped.
const NoticeFileName = "archive-info.txt"

// WriteNotice copies the bundled archive-info.txt template into dir.
func WriteNotice(dir string) error {
	return os.WriteFile(filepath.Join(dir, NoticeFileName), noticeTemplate, 0o644)
}

// Build deflate-compresses dir's contents at level 9 into a ZIP at
// zipPath, with entries rooted at dir (no leading path component).
// Entry ordering is not a contract; it follows filesystem iteration
// order.
func Build(dir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", zipPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, deflateLevel9)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("archive: relative path for %s: %w", path, err)
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: finalize %s: %w", zipPath, err)
	}
	return nil
}

func addFile(zw *zip.Writer, srcPath, arcname string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", srcPath, err)
	}
	defer f.Close()

	w, err := zw.Create(arcname)
	if err != nil {
		return fmt.Errorf("archive: create entry %s: %w", arcname, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archive: write entry %s: %w", arcname, err)
	}
	return nil
}

func deflateLevel9(out io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(out, flate.BestCompression)
}
