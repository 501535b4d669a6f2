package output_test

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/output"
)

func TestArchiveName(t *testing.T) {
	ts := time.Date(2026, 10, 15, 8, 4, 5, 0, time.FixedZone("X", 2*3600))
	if got := output.ArchiveName(ts); got != "aws-inventory-20261015-060405.zip" {
		t.Errorf("ArchiveName = %q", got)
	}
}

func TestWriteTable(t *testing.T) {
	p := output.NewPackager(t.TempDir())
	rows := []models.Row{
		{"us-east-1", "111122223333", "i-1"},
		{"us-east-1", "111122223333", "has,comma"},
	}

	path, err := p.WriteTable(rows, []string{"Region", "AccountId", "InstanceId"}, "111122223333_EC2")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "111122223333_EC2.csv" {
		t.Errorf("path = %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0][2] != "InstanceId" || records[2][2] != "has,comma" {
		t.Errorf("records = %v", records)
	}
}

func TestWriteTable_IOError(t *testing.T) {
	p := output.NewPackager(filepath.Join(t.TempDir(), "missing-dir"))
	_, err := p.WriteTable(nil, []string{"Region"}, "x")
	if !inverr.HasCode(err, inverr.ErrCodeIO) {
		t.Errorf("err = %v; want IO", err)
	}
}

func TestPackage_BundlesFilesFlat(t *testing.T) {
	p := output.NewPackager(t.TempDir())
	a, _ := p.WriteTable([]models.Row{{"r", "a"}}, []string{"Region", "AccountId"}, "111122223333_EC2")
	b, _ := p.WriteTable([]models.Row{{"r", "a"}}, []string{"Region", "AccountId"}, "111122223333_S3")

	arc, err := p.Package([]string{a, b}, "aws-inventory-20260101-000000.zip", 35*1024*1024)
	if err != nil {
		t.Fatal(err)
	}
	if arc.OverBudget || arc.SizeBytes == 0 {
		t.Errorf("archive = %+v", arc)
	}

	zr, err := zip.OpenReader(arc.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Method != zip.Deflate {
			t.Errorf("%s stored with method %d; want deflate", f.Name, f.Method)
		}
	}
	if strings.Join(names, ",") != "111122223333_EC2.csv,111122223333_S3.csv" {
		t.Errorf("entries = %v", names)
	}
}

func TestPackage_OverBudgetStillReturned(t *testing.T) {
	p := output.NewPackager(t.TempDir())
	a, _ := p.WriteTable([]models.Row{{"us-east-1", "111122223333"}}, []string{"Region", "AccountId"}, "x")

	arc, err := p.Package([]string{a}, "big.zip", 1)
	if err != nil {
		t.Fatalf("over-budget archive must not fail: %v", err)
	}
	if !arc.OverBudget {
		t.Error("OverBudget not set")
	}
	if _, err := os.Stat(arc.Path); err != nil {
		t.Errorf("archive missing: %v", err)
	}
}

func TestPackage_MissingInput(t *testing.T) {
	p := output.NewPackager(t.TempDir())
	_, err := p.Package([]string{filepath.Join(p.Dir(), "nope.csv")}, "a.zip", 0)
	if !inverr.HasCode(err, inverr.ErrCodeIO) {
		t.Errorf("err = %v; want IO", err)
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	p := output.NewPackager(t.TempDir())
	a, _ := p.WriteTable(nil, []string{"Region"}, "a")
	arc, _ := p.Package([]string{a}, "a.zip", 0)

	if len(p.Files()) != 2 {
		t.Fatalf("tracked = %v", p.Files())
	}
	// One file already gone: cleanup must still succeed silently.
	os.Remove(a)
	p.Cleanup()
	p.Cleanup()

	for _, path := range []string{a, arc.Path} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still exists", path)
		}
	}
	if len(p.Files()) != 0 {
		t.Errorf("tracked after cleanup = %v", p.Files())
	}
}
