package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// scrape writes r to a textfile and returns its contents.
func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orginv.prom")
	if err := r.WriteToTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRecorder_Units(t *testing.T) {
	r := New()
	r.ObserveUnit("EC2", nil, 2, time.Second)
	r.ObserveUnit("EC2", errors.New("boom"), 0, time.Second)
	r.ObserveUnit("S3", nil, 1, time.Second)

	out := scrape(t, r)
	for _, want := range []string{
		`orginv_collection_units_total{kind="EC2",status="success"} 1`,
		`orginv_collection_units_total{kind="EC2",status="error"} 1`,
		`orginv_rows_collected_total{kind="EC2"} 2`,
		`orginv_rows_collected_total{kind="S3"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveUnit("EC2", nil, 1, time.Second)
	r.AccountSkipped()
	r.SetOrgCache(1, 2)
	r.ObserveArchive(10)
	r.ObserveRun("success", time.Second, time.Now())
	if err := r.WriteToTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("nil WriteToTextfile: %v", err)
	}
}

func TestRecorder_WriteToTextfile(t *testing.T) {
	r := New()
	r.AccountSkipped()
	r.ObserveArchive(2048)
	r.SetOrgCache(4, 1)
	r.ObserveRun("success", 3*time.Second, time.Unix(1700000000, 0))

	out := scrape(t, r)
	for _, want := range []string{
		"orginv_accounts_skipped_total 1",
		"orginv_archive_size_bytes 2048",
		`orginv_org_cache_lookups{result="hit"} 4`,
		`orginv_runs_total{status="success"} 1`,
		"orginv_run_duration_seconds 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
