package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/output"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func sampleResult(overrides ...func(*models.RunResult)) *models.RunResult {
	r := &models.RunResult{
		RunID:             "run-1",
		Message:           "Inventory sent to a@b.com",
		AccountsProcessed: 2,
		SuccessfulUnits:   3,
		TotalUnits:        4,
		ArchiveSizeMB:     1.25,
		DurationSeconds:   12.34,
		Stats:             models.RunStats{TotalRows: 17},
	}
	for _, fn := range overrides {
		fn(r)
	}
	return r
}

func render(r *models.RunResult) string {
	var buf bytes.Buffer
	output.RenderSummary(&buf, r)
	return buf.String()
}

// ── RenderSummary ─────────────────────────────────────────────────────────────

func TestRenderSummary_Totals(t *testing.T) {
	out := render(sampleResult())
	for _, want := range []string{"Inventory sent to a@b.com", "run-1", "3 / 4", "17", "1.2", "12.3"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Skipped accounts") || strings.Contains(out, "Failed collections") {
		t.Errorf("empty failure tables must not render\ngot:\n%s", out)
	}
}

func TestRenderSummary_Failures(t *testing.T) {
	out := render(sampleResult(func(r *models.RunResult) {
		r.Stats.AccountsSkipped = []models.SkippedAccount{{AccountID: "444455556666", Reason: "AccessDenied"}}
		r.Stats.RegionFailures = []models.RegionFailure{{AccountID: "111122223333", Kind: "EC2", Region: "eu-west-1", Error: "throttled"}}
		r.Stats.UnknownKinds = []string{"Widgets"}
	}))
	for _, want := range []string{"Skipped accounts", "444455556666", "Failed collections", "eu-west-1", "Widgets"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\ngot:\n%s", want, out)
		}
	}
}

// ── RenderKinds ───────────────────────────────────────────────────────────────

func TestRenderKinds(t *testing.T) {
	var buf bytes.Buffer
	output.RenderKinds(&buf, []output.KindInfo{
		{Kind: "EC2", MaxRetries: 3, Columns: 10},
		{Kind: "S3", Global: true, MaxRetries: 3, Columns: 5},
	})
	out := buf.String()
	if !strings.Contains(out, "regional") || !strings.Contains(out, "global") {
		t.Errorf("scope column missing\ngot:\n%s", out)
	}
}

// ── ShortenMessage ────────────────────────────────────────────────────────────

func TestShortenMessage(t *testing.T) {
	if got := output.ShortenMessage("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := output.ShortenMessage("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("got %q; want abcde...", got)
	}
	if got := output.ShortenMessage("abcdefghijkl", 1); got != "a..." {
		t.Errorf("got %q; want a... (min width 4)", got)
	}
}
