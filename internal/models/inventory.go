package models

import "time"

// Row is one fixed-arity record produced by a collector. Its length always
// equals the length of the collector's headers.
type Row []string

// CollectionUnit is the atomic scheduling unit of a run's fan-out.
type CollectionUnit struct {
	AccountID string `json:"account_id"`
	Kind      string `json:"kind"`
	Region    string `json:"region"`
}

// CollectionResult holds every row collected for one (account, kind) pair,
// concatenated across regions in region order.
type CollectionResult struct {
	AccountID string   `json:"account_id"`
	Kind      string   `json:"kind"`
	Headers   []string `json:"headers"`
	Rows      []Row    `json:"rows"`

	// Regions lists the regions that completed successfully.
	Regions []string `json:"regions"`
}

// Name is the output file stem for this result: "{accountId}_{kind}".
func (r CollectionResult) Name() string {
	return r.AccountID + "_" + r.Kind
}

// RegionFailure records one collection unit that failed after retries.
type RegionFailure struct {
	AccountID string `json:"account_id"`
	Kind      string `json:"kind"`
	Region    string `json:"region"`
	Error     string `json:"error"`
}

// SkippedAccount records an account whose credentials could not be obtained.
type SkippedAccount struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
}

// RunStats is the partial-failure accounting of a collection pass.
//
// TotalUnits is fixed up front as accounts × requested kinds, including kinds
// later found to be unregistered and accounts later skipped. SuccessfulUnits
// counts (account, kind) pairs where the kind is registered and at least one
// region completed.
type RunStats struct {
	AccountsResolved  int              `json:"accounts_resolved"`
	AccountsProcessed int              `json:"accounts_processed"`
	SuccessfulUnits   int              `json:"successful_units"`
	TotalUnits        int              `json:"total_units"`
	TotalRows         int              `json:"total_rows"`
	AccountsSkipped   []SkippedAccount `json:"accounts_skipped,omitempty"`
	UnknownKinds      []string         `json:"unknown_kinds,omitempty"`
	RegionFailures    []RegionFailure  `json:"region_failures,omitempty"`
}

// Archive is the packaged output of a run.
type Archive struct {
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	Files     []string `json:"files"`
	SizeBytes int64    `json:"size_bytes"`

	// OverBudget is set when SizeBytes exceeded the configured budget. The
	// archive is still delivered.
	OverBudget bool `json:"over_budget"`
}

// SizeMB returns the archive size in mebibytes.
func (a *Archive) SizeMB() float64 {
	if a == nil {
		return 0
	}
	return float64(a.SizeBytes) / (1024 * 1024)
}

// RunResult is the outcome returned to the caller of a run. JSON field names
// follow the Lambda response contract.
type RunResult struct {
	RunID             string    `json:"run_id"`
	Message           string    `json:"message"`
	AccountsProcessed int       `json:"accounts_processed"`
	SuccessfulUnits   int       `json:"successful_collections"`
	TotalUnits        int       `json:"total_collections"`
	ArchiveSizeMB     float64   `json:"zip_size_mb"`
	DurationSeconds   float64   `json:"duration_seconds"`
	StartedAt         time.Time `json:"started_at"`
	Stats             RunStats  `json:"stats"`
}
