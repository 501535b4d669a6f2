// Package output turns collection results into files: one CSV per
// (account, kind), a zip archive bundling them, and terminal summaries.
package output

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
)

// ArchiveName returns the archive file name for a run started at t.
func ArchiveName(t time.Time) string {
	return "aws-inventory-" + t.UTC().Format("20060102-150405") + ".zip"
}

// Packager owns the temporary files of one run. It is not safe for
// concurrent use.
type Packager struct {
	dir     string
	tracked []string
}

// NewPackager returns a Packager writing under dir. An empty dir means the
// OS temp dir.
func NewPackager(dir string) *Packager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Packager{dir: dir}
}

// Dir returns the directory files are written to.
func (p *Packager) Dir() string { return p.dir }

// Files returns every path the packager has created, in creation order.
func (p *Packager) Files() []string {
	out := make([]string, len(p.tracked))
	copy(out, p.tracked)
	return out
}

func (p *Packager) track(path string) { p.tracked = append(p.tracked, path) }

// Package builds a deflate-compressed zip named name from files, stored flat
// by base name. When the archive exceeds budget bytes a warning is logged and
// OverBudget is set; the archive is still returned. A budget <= 0 disables
// the check.
func (p *Packager) Package(files []string, name string, budget int64) (*models.Archive, error) {
	path := filepath.Join(p.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("create archive %s", path), err)
	}
	p.track(path)

	zw := zip.NewWriter(f)
	entries := make([]string, 0, len(files))
	for _, src := range files {
		if err := addFile(zw, src); err != nil {
			zw.Close()
			f.Close()
			return nil, inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("add %s to archive", src), err)
		}
		entries = append(entries, filepath.Base(src))
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return nil, inverr.Wrap(inverr.ErrCodeIO, "finalize archive", err)
	}
	if err := f.Close(); err != nil {
		return nil, inverr.Wrap(inverr.ErrCodeIO, "close archive", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, inverr.Wrap(inverr.ErrCodeIO, "stat archive", err)
	}

	a := &models.Archive{Path: path, Name: name, Files: entries, SizeBytes: info.Size()}
	if budget > 0 && a.SizeBytes > budget {
		a.OverBudget = true
		slog.Warn("archive exceeds size budget",
			"archive", name,
			"size_mb", fmt.Sprintf("%.1f", a.SizeMB()),
			"budget_mb", fmt.Sprintf("%.1f", float64(budget)/(1024*1024)))
	}
	return a, nil
}

// addFile copies the file at src into zw under its base name.
func addFile(zw *zip.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create file header: %w", err)
	}
	header.Name = filepath.Base(src)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	return nil
}

// Cleanup removes every tracked file. It never fails: missing files are
// ignored and other errors are logged. Calling it again is harmless.
func (p *Packager) Cleanup() {
	Cleanup(p.tracked...)
	p.tracked = nil
}

// Cleanup removes paths, best effort.
func Cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("cleanup failed", "path", path, "error", err)
		}
	}
}
