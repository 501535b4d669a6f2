package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pankaj-dahiya-devops/orginv/internal/config"
	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/metrics"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/notify"
	"github.com/pankaj-dahiya-devops/orginv/internal/org"
	"github.com/pankaj-dahiya-devops/orginv/internal/output"
)

// Result messages.
const (
	MessageNoData = "No data found, notification sent"
	messageSent   = "Inventory sent to %s"
)

// RegionSource discovers the enabled regions when the configured region list
// is "all".
type RegionSource func(ctx context.Context) ([]string, error)

// Runner is the production Engine. It is built once per process and reused
// across runs, so the resolver's organization cache outlives a single run.
type Runner struct {
	cfg          *config.Config
	resolver     org.ScopeResolver
	orchestrator *Orchestrator
	notifier     *notify.Dispatcher
	discover     RegionSource
	metrics      *metrics.Recorder
	now          func() time.Time
	newRunID     func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRegionSource sets the region discovery used for REGIONS=all.
func WithRegionSource(src RegionSource) RunnerOption {
	return func(r *Runner) { r.discover = src }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec *metrics.Recorder) RunnerOption {
	return func(r *Runner) { r.metrics = rec }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithRunID replaces the run ID generator.
func WithRunID(fn func() string) RunnerOption {
	return func(r *Runner) { r.newRunID = fn }
}

// NewRunner wires a Runner. The sender address is required.
func NewRunner(
	cfg *config.Config,
	resolver org.ScopeResolver,
	orchestrator *Orchestrator,
	notifier *notify.Dispatcher,
	opts ...RunnerOption,
) (*Runner, error) {
	if strings.TrimSpace(cfg.Sender) == "" {
		return nil, inverr.New(inverr.ErrCodeValidation, "SENDER is required")
	}
	r := &Runner{
		cfg:          cfg,
		resolver:     resolver,
		orchestrator: orchestrator,
		notifier:     notifier,
		now:          time.Now,
		newRunID:     uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Run implements Engine. Temporary files are removed on every return path.
func (r *Runner) Run(ctx context.Context, req models.Request) (*models.RunResult, error) {
	started := r.now().UTC()
	runID := r.newRunID()
	log := slog.With("run_id", runID)

	pkg := output.NewPackager(r.cfg.OutputDir)
	defer pkg.Cleanup()

	status := "error"
	defer func() {
		finished := r.now()
		r.metrics.ObserveRun(status, finished.Sub(started), finished)
		r.writeMetrics()
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	kinds := req.NormalizedResources()
	scope := req.ScopeOf()
	log.Info("inventory run started", "scope", scope.Kind, "target", scope.Target, "resources", kinds)

	if r.cfg.ResetOrgCache {
		r.resolver.ClearCache()
	}
	accounts, err := r.resolver.ResolveScope(ctx, scope)
	r.publishCacheStats()
	if err != nil {
		return nil, err
	}
	log.Info("scope resolved", "accounts", len(accounts))

	regions, err := r.regions(ctx)
	if err != nil {
		return nil, err
	}

	results, stats, err := r.orchestrator.forRun(runID).CollectAll(ctx, accounts, kinds, regions)
	if err != nil {
		return nil, inverr.Wrap(inverr.ErrCodeInternal, "run interrupted", err)
	}

	var files []string
	for _, res := range results {
		if len(res.Rows) == 0 {
			continue
		}
		path, err := pkg.WriteTable(res.Rows, res.Headers, res.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	result := &models.RunResult{
		RunID:             runID,
		AccountsProcessed: stats.AccountsProcessed,
		SuccessfulUnits:   stats.SuccessfulUnits,
		TotalUnits:        stats.TotalUnits,
		StartedAt:         started,
		Stats:             stats,
	}

	if len(files) == 0 {
		log.Warn("no data collected, sending notification")
		if err := r.notifier.NotifyNoData(ctx, req.Email); err != nil {
			return nil, err
		}
		status = "no_data"
		result.Message = MessageNoData
		result.DurationSeconds = round1(r.now().Sub(started).Seconds())
		return result, nil
	}

	archive, err := pkg.Package(files, output.ArchiveName(started), r.cfg.MaxArchiveBytes())
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveArchive(archive.SizeBytes)

	report := notify.Report{
		Scope:             string(scope.Kind),
		Target:            scope.Target,
		Resources:         kinds,
		Generated:         started,
		AccountsProcessed: stats.AccountsProcessed,
		SuccessfulUnits:   stats.SuccessfulUnits,
		TotalUnits:        stats.TotalUnits,
		ArchiveSizeMB:     archive.SizeMB(),
	}
	if err := r.notifier.NotifyReport(ctx, req.Email, report, archive.Path); err != nil {
		return nil, err
	}

	status = "success"
	result.Message = fmt.Sprintf(messageSent, req.Email)
	result.ArchiveSizeMB = round1(archive.SizeMB())
	result.DurationSeconds = round1(r.now().Sub(started).Seconds())
	log.Info("inventory run completed",
		"duration_seconds", result.DurationSeconds,
		"files", len(files),
		"zip_size_mb", result.ArchiveSizeMB)
	return result, nil
}

// regions returns the configured region list, or the discovered one for "all".
func (r *Runner) regions(ctx context.Context) ([]string, error) {
	if !r.cfg.DiscoverRegions() {
		return r.cfg.Regions, nil
	}
	if r.discover == nil {
		return nil, inverr.New(inverr.ErrCodeValidation, `REGIONS=all needs region discovery`)
	}
	regions, err := r.discover(ctx)
	if err != nil {
		return nil, inverr.Wrap(inverr.ErrCodeResolution, "discover regions", err)
	}
	if len(regions) == 0 {
		return nil, inverr.New(inverr.ErrCodeResolution, "region discovery returned no regions")
	}
	return regions, nil
}

func (r *Runner) publishCacheStats() {
	c, ok := r.resolver.(interface{ Cache() *org.Cache })
	if !ok {
		return
	}
	s := c.Cache().Stats()
	r.metrics.SetOrgCache(
		s.AccountHits+s.OUHits+s.OUAccountsHits,
		s.AccountMisses+s.OUMisses+s.OUAccountsMisses)
}

func (r *Runner) writeMetrics() {
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := r.metrics.WriteToTextfile(r.cfg.MetricsFile); err != nil {
		slog.Warn("write metrics file failed", "path", r.cfg.MetricsFile, "error", err)
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
