package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
)

// WriteTable writes headers and rows as {name}.csv under p's directory and
// tracks the file for Cleanup. Any failure is an IO error.
func (p *Packager) WriteTable(rows []models.Row, headers []string, name string) (string, error) {
	path := filepath.Join(p.dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("create %s", path), err)
	}
	p.track(path)

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		f.Close()
		return "", inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("write %s", path), err)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			f.Close()
			return "", inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("write %s", path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("flush %s", path), err)
	}
	if err := f.Close(); err != nil {
		return "", inverr.Wrap(inverr.ErrCodeIO, fmt.Sprintf("close %s", path), err)
	}
	return path, nil
}
