// Package collectors holds the per-resource-kind inventory collectors and the
// fixed registry that maps a logical kind name ("EC2", "S3", ...) to one.
//
// Every collector builds its SDK client from the member account's assumed-role
// credential for the region being collected, pages through the service's list
// or describe API, and flattens each resource into one row. Region and account
// ID are always the first two columns.
package collectors

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

// Collector produces inventory rows for one resource kind in one account and
// region. Headers is constant; every returned row has len(Headers()) columns.
type Collector interface {
	Headers() []string
	Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error)
}

// Entry is a registered collector with its scheduling attributes.
type Entry struct {
	Kind      string
	Collector Collector

	// Global kinds are collected once, in the configured global region,
	// regardless of the region list.
	Global bool

	maxRetries     int
	overridesRetry bool
}

// MaxRetries returns the entry's retry override, or def when it has none.
func (e Entry) MaxRetries(def int) int {
	if e.overridesRetry {
		return e.maxRetries
	}
	return def
}

// Option configures a registry entry.
type Option func(*Entry)

// Global marks a kind as global-scope.
func Global() Option {
	return func(e *Entry) { e.Global = true }
}

// WithMaxRetries overrides the collector retry count for this kind.
func WithMaxRetries(n int) Option {
	return func(e *Entry) {
		e.maxRetries = n
		e.overridesRetry = true
	}
}

// Registry is an ordered, in-memory table of collectors keyed by kind.
// Register panics on duplicate kinds to catch wiring mistakes at startup.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds c under kind. Panics if kind is already registered.
func (r *Registry) Register(kind string, c Collector, opts ...Option) {
	if _, exists := r.index[kind]; exists {
		panic(fmt.Sprintf("duplicate collector kind: %q", kind))
	}
	e := Entry{Kind: kind, Collector: c}
	for _, o := range opts {
		o(&e)
	}
	r.index[kind] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Lookup returns the entry for kind. Matching is exact and case-sensitive.
func (r *Registry) Lookup(kind string) (Entry, bool) {
	i, ok := r.index[kind]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, len(r.entries))
	for i, e := range r.entries {
		kinds[i] = e.Kind
	}
	return kinds
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// NewDefaultRegistry returns a registry with every built-in collector wired
// to production SDK clients.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("EC2", newEC2Collector())
	r.Register("EBS", newEBSCollector())
	r.Register("S3", newS3Collector(), Global())
	r.Register("RDS", newRDSCollector())
	r.Register("Lambda", newLambdaCollector())
	r.Register("ELB", newELBCollector())
	r.Register("IAM", newIAMCollector(), Global())
	r.Register("EKS", newEKSCollector())
	r.Register("CloudTrail", newCloudTrailCollector())
	r.Register("GuardDuty", newGuardDutyCollector())
	r.Register("Config", newConfigCollector())
	r.Register("CloudWatch", newCloudWatchCollector())
	// Cost Explorer requests are billed; retry once at most.
	r.Register("Cost", newCostCollector(), Global(), WithMaxRetries(1))
	return r
}
