package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pankaj-dahiya-devops/orginv/internal/collectors"
	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/metrics"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/orginv/internal/retry"
)

// OrchestratorConfig holds the per-run collection settings.
type OrchestratorConfig struct {
	// RoleName is assumed in every member account.
	RoleName string

	// SessionLabel names the STS role sessions.
	SessionLabel string

	// GlobalRegion is the single region used for global-scope kinds.
	GlobalRegion string

	// Retry is the default per-unit policy. Registry entries may override
	// MaxRetries.
	Retry retry.Policy
}

// Orchestrator walks the collection work list sequentially. One account is
// processed at a time and its credential is discarded as soon as its units
// are done.
type Orchestrator struct {
	broker   common.CredentialBroker
	registry *collectors.Registry
	cfg      OrchestratorConfig
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewOrchestrator returns an Orchestrator. rec may be nil.
func NewOrchestrator(broker common.CredentialBroker, registry *collectors.Registry, cfg OrchestratorConfig, rec *metrics.Recorder) *Orchestrator {
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = retry.IsRetryable
	}
	return &Orchestrator{
		broker:   broker,
		registry: registry,
		cfg:      cfg,
		metrics:  rec,
		now:      time.Now,
	}
}

// forRun returns a copy of o whose STS sessions carry the run ID, so
// CloudTrail entries in member accounts can be traced back to one run.
func (o *Orchestrator) forRun(runID string) *Orchestrator {
	c := *o
	if len(runID) > 8 {
		runID = runID[:8]
	}
	if runID != "" {
		c.cfg.SessionLabel = o.cfg.SessionLabel + "-" + runID
	}
	return &c
}

// Plan expands accounts × kinds × regions into the ordered work list:
// account order, then kind order, then region order. Global kinds get the
// single global region. Unregistered kinds produce no units.
func (o *Orchestrator) Plan(accounts, kinds, regions []string) []models.CollectionUnit {
	var units []models.CollectionUnit
	for _, acct := range accounts {
		for _, kind := range kinds {
			entry, ok := o.registry.Lookup(kind)
			if !ok {
				continue
			}
			for _, region := range o.regionsFor(entry, regions) {
				units = append(units, models.CollectionUnit{AccountID: acct, Kind: kind, Region: region})
			}
		}
	}
	return units
}

func (o *Orchestrator) regionsFor(e collectors.Entry, regions []string) []string {
	if e.Global {
		return []string{o.cfg.GlobalRegion}
	}
	return regions
}

// CollectAll runs every unit of the plan and aggregates rows per
// (account, kind). Failures below the account level are recorded in the
// returned stats and never stop the pass. Repeated kinds are collected once.
// The error is non-nil only when ctx ends; results gathered so far are still
// returned.
func (o *Orchestrator) CollectAll(ctx context.Context, accounts, kinds, regions []string) ([]models.CollectionResult, models.RunStats, error) {
	kinds = uniqueKinds(kinds)
	stats := models.RunStats{
		AccountsResolved: len(accounts),
		TotalUnits:       len(accounts) * len(kinds),
	}
	for _, kind := range kinds {
		if _, ok := o.registry.Lookup(kind); !ok {
			slog.Warn("unknown resource kind, skipping", "kind", kind)
			stats.UnknownKinds = append(stats.UnknownKinds, kind)
		}
	}

	units := o.Plan(accounts, kinds, regions)
	var results []models.CollectionResult
	for start := 0; start < len(units); {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		end := start
		for end < len(units) && units[end].AccountID == units[start].AccountID {
			end++
		}
		results = append(results, o.collectAccount(ctx, units[start:end], &stats)...)
		start = end
	}

	slog.Info("collection complete",
		"successful", stats.SuccessfulUnits,
		"total", stats.TotalUnits,
		"rows", stats.TotalRows,
		"accounts_skipped", len(stats.AccountsSkipped),
		"region_failures", len(stats.RegionFailures))
	return results, stats, ctx.Err()
}

// collectAccount runs the units of one account, all of which share
// units[0].AccountID.
func (o *Orchestrator) collectAccount(ctx context.Context, units []models.CollectionUnit, stats *models.RunStats) []models.CollectionResult {
	acct := units[0].AccountID
	cred, err := o.broker.Assume(ctx, acct, o.cfg.RoleName, o.cfg.SessionLabel)
	if err != nil {
		slog.Error("skipping account, role assumption failed", "account", acct, "error", err)
		stats.AccountsSkipped = append(stats.AccountsSkipped, models.SkippedAccount{AccountID: acct, Reason: err.Error()})
		o.metrics.AccountSkipped()
		return nil
	}
	stats.AccountsProcessed++
	defer func() { cred.Discard() }()

	var results []models.CollectionResult
	for start := 0; start < len(units); {
		end := start
		for end < len(units) && units[end].Kind == units[start].Kind {
			end++
		}
		kind := units[start].Kind
		entry, _ := o.registry.Lookup(kind)

		res := models.CollectionResult{AccountID: acct, Kind: kind, Headers: entry.Collector.Headers()}
		for _, u := range units[start:end] {
			if cred.Expired(o.now()) {
				if fresh, err := o.broker.Assume(ctx, acct, o.cfg.RoleName, o.cfg.SessionLabel); err == nil {
					cred.Discard()
					cred = fresh
				}
			}
			rows, err := o.collectUnit(ctx, entry, cred, u)
			if err != nil {
				slog.Error("collection failed", "account", acct, "kind", kind, "region", u.Region, "error", err)
				stats.RegionFailures = append(stats.RegionFailures, models.RegionFailure{
					AccountID: acct, Kind: kind, Region: u.Region, Error: err.Error(),
				})
				continue
			}
			res.Rows = append(res.Rows, rows...)
			res.Regions = append(res.Regions, u.Region)
		}

		if len(res.Regions) > 0 {
			stats.SuccessfulUnits++
		}
		stats.TotalRows += len(res.Rows)
		if len(res.Rows) == 0 {
			slog.Info("no data found", "account", acct, "kind", kind)
		}
		results = append(results, res)
		start = end
	}
	return results
}

// collectUnit runs one collector invocation under the kind's retry policy
// and checks every row against the header arity.
func (o *Orchestrator) collectUnit(ctx context.Context, e collectors.Entry, cred *common.Credential, u models.CollectionUnit) ([]models.Row, error) {
	p := o.cfg.Retry
	p.MaxRetries = e.MaxRetries(p.MaxRetries)
	p.Name = fmt.Sprintf("collect %s in %s/%s", u.Kind, u.AccountID, u.Region)

	began := time.Now()
	rows, err := retry.Execute(ctx, p, func(ctx context.Context) ([]models.Row, error) {
		return e.Collector.Collect(ctx, cred, u.AccountID, u.Region)
	})
	if err == nil {
		err = checkArity(rows, len(e.Collector.Headers()))
	}
	o.metrics.ObserveUnit(u.Kind, err, len(rows), time.Since(began))
	if err != nil {
		return nil, inverr.WrapWithContext(inverr.ErrCodeCollection, "collection unit failed", err,
			map[string]any{"account": u.AccountID, "kind": u.Kind, "region": u.Region})
	}
	return rows, nil
}

func checkArity(rows []models.Row, want int) error {
	for i, r := range rows {
		if len(r) != want {
			return fmt.Errorf("row %d has %d columns, headers have %d", i, len(r), want)
		}
	}
	return nil
}

func uniqueKinds(kinds []string) []string {
	seen := make(map[string]struct{}, len(kinds))
	var out []string
	for _, k := range kinds {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
