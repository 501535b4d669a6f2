package models

import (
	"strings"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
)

// ScopeKind selects how a run's target is interpreted.
type ScopeKind string

const (
	// ScopeAccount targets a single account by its friendly name.
	ScopeAccount ScopeKind = "Account"
	// ScopeOU targets every active account beneath an organizational unit.
	ScopeOU ScopeKind = "OU"
)

// Scope is the immutable description of what a run covers.
type Scope struct {
	Kind   ScopeKind `json:"scope"`
	Target string    `json:"target"`
}

// String renders the scope as "Kind: Target".
func (s Scope) String() string {
	return string(s.Kind) + ": " + s.Target
}

// Request is the trigger input of an inventory run. Field names match the
// Lambda event contract.
type Request struct {
	Scope     ScopeKind `json:"scope"`
	Target    string    `json:"target"`
	Resources []string  `json:"resources"`
	Email     string    `json:"email"`
}

// ScopeOf returns the Scope portion of r.
func (r Request) ScopeOf() Scope {
	return Scope{Kind: r.Scope, Target: r.Target}
}

// MissingFields returns the names of required fields that are absent or
// empty, in contract order. A resources list containing only blank names
// counts as empty.
func (r Request) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(string(r.Scope)) == "" {
		missing = append(missing, "scope")
	}
	if strings.TrimSpace(r.Target) == "" {
		missing = append(missing, "target")
	}
	if len(r.NormalizedResources()) == 0 {
		missing = append(missing, "resources")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// NormalizedResources returns the requested resource kinds with surrounding
// whitespace trimmed and blank entries dropped. Duplicates are kept here; the
// orchestrator collects a repeated kind once.
func (r Request) NormalizedResources() []string {
	out := make([]string, 0, len(r.Resources))
	for _, res := range r.Resources {
		if s := strings.TrimSpace(res); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate returns a VALIDATION error naming every missing field, or nil.
// Entry points call it before any upstream work.
func (r Request) Validate() error {
	missing := r.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	return inverr.WrapWithContext(inverr.ErrCodeValidation,
		"missing required fields: "+strings.Join(missing, ", "), nil,
		map[string]any{"fields": missing})
}
