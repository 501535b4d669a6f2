// Package org resolves an inventory scope (one account, or every account
// beneath an organizational unit) to a set of AWS account IDs using the
// AWS Organizations API.
//
// The organization tree is fetched lazily and cached by stable node ID, so a
// parent's children are listed at most once per cache lifetime. The three
// name/ID lookups are additionally memoized by their exact input.
//
// OU names are not unique across an organization. ResolveOU therefore uses
// a fixed tie-break: roots are visited in ListRoots order, and each root's
// subtree is searched depth-first in pre-order, siblings in API order. The
// first OU whose name matches exactly wins.
package org

import (
	"context"
	"log/slog"
	"sort"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/retry"
)

// ScopeResolver resolves scopes to account IDs.
type ScopeResolver interface {
	ResolveScope(ctx context.Context, scope models.Scope) ([]string, error)
	ClearCache()
}

// Resolver is the production ScopeResolver backed by AWS Organizations.
type Resolver struct {
	fetch  fetcher
	policy retry.Policy
	cache  *Cache
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRetryPolicy sets the policy applied to every upstream listing. The
// policy's Retryable classifier is replaced with retry.IsRetryable when nil.
func WithRetryPolicy(p retry.Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithCache makes the resolver use an externally owned resolution context.
func WithCache(c *Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// NewResolver returns a Resolver reading from client.
func NewResolver(client OrganizationsAPI, opts ...Option) *Resolver {
	r := &Resolver{
		fetch:  fetcher{client: client},
		policy: retry.Policy{MaxRetries: 3, BackoffFactor: retry.DefaultBackoffFactor},
	}
	for _, o := range opts {
		o(r)
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	if r.policy.Retryable == nil {
		r.policy.Retryable = retry.IsRetryable
	}
	if r.policy.Name == "" {
		r.policy.Name = "organizations"
	}
	return r
}

// ClearCache resets all memoization and the fetched tree.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
	slog.Info("cleared organization caches")
}

// Cache exposes the resolver's resolution context.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// ResolveScope dispatches on scope.Kind. An Account scope always resolves to
// exactly one account; an OU scope to the deduplicated active accounts of its
// subtree.
func (r *Resolver) ResolveScope(ctx context.Context, scope models.Scope) ([]string, error) {
	switch scope.Kind {
	case models.ScopeAccount:
		id, err := r.ResolveAccount(ctx, scope.Target)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	case models.ScopeOU:
		ouID, err := r.ResolveOU(ctx, scope.Target)
		if err != nil {
			return nil, err
		}
		accounts, err := r.AccountsInOU(ctx, ouID)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			return nil, inverr.Wrap(inverr.ErrCodeResolution, "resolve scope "+scope.String(),
				inverr.Newf(inverr.ErrCodeNotFound, "OU %q (%s) has no active accounts", scope.Target, ouID))
		}
		return accounts, nil
	default:
		return nil, inverr.Wrap(inverr.ErrCodeResolution, "resolve scope",
			inverr.Newf(inverr.ErrCodeInvalidScope, "invalid scope %q: want %q or %q",
				scope.Kind, models.ScopeAccount, models.ScopeOU))
	}
}

// ResolveAccount returns the ID of the active account named exactly name.
func (r *Resolver) ResolveAccount(ctx context.Context, name string) (string, error) {
	if id, ok := r.cache.accountByName[name]; ok {
		r.cache.stats.AccountHits++
		return id, nil
	}
	r.cache.stats.AccountMisses++

	ids, err := r.allAccounts(ctx)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		n := r.cache.tree.nodes[id]
		if n.Name == name && n.Active {
			r.cache.accountByName[name] = id
			slog.Info("resolved account", "name", name, "account", id)
			return id, nil
		}
	}
	return "", inverr.Wrap(inverr.ErrCodeResolution, "resolve account",
		inverr.Newf(inverr.ErrCodeNotFound, "account %q not found or not active", name))
}

// ResolveOU returns the ID of the first OU named exactly name, in the
// documented traversal order.
func (r *Resolver) ResolveOU(ctx context.Context, name string) (string, error) {
	if id, ok := r.cache.ouByName[name]; ok {
		r.cache.stats.OUHits++
		return id, nil
	}
	r.cache.stats.OUMisses++

	roots, err := r.roots(ctx)
	if err != nil {
		return "", err
	}
	visited := make(map[string]bool)
	for _, root := range roots {
		id, found, err := r.findOU(ctx, root, name, visited)
		if err != nil {
			return "", err
		}
		if found {
			r.cache.ouByName[name] = id
			slog.Info("resolved OU", "name", name, "ou", id)
			return id, nil
		}
	}
	return "", inverr.Wrap(inverr.ErrCodeResolution, "resolve OU",
		inverr.Newf(inverr.ErrCodeNotFound, "OU %q not found", name))
}

func (r *Resolver) findOU(ctx context.Context, parentID, name string, visited map[string]bool) (string, bool, error) {
	if visited[parentID] {
		return "", false, nil
	}
	visited[parentID] = true

	children, err := r.childOUs(ctx, parentID)
	if err != nil {
		return "", false, err
	}
	for _, child := range children {
		if r.cache.tree.nodes[child].Name == name {
			return child, true, nil
		}
		id, found, err := r.findOU(ctx, child, name, visited)
		if err != nil || found {
			return id, found, err
		}
	}
	return "", false, nil
}

// AccountsInOU returns the active accounts directly under ouID together with
// those of every descendant OU, deduplicated and sorted.
func (r *Resolver) AccountsInOU(ctx context.Context, ouID string) ([]string, error) {
	if ids, ok := r.cache.accountsInOU[ouID]; ok {
		r.cache.stats.OUAccountsHits++
		return append([]string(nil), ids...), nil
	}
	r.cache.stats.OUAccountsMisses++

	seen := make(map[string]struct{})
	if err := r.collectAccounts(ctx, ouID, seen, make(map[string]bool)); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	r.cache.accountsInOU[ouID] = ids
	slog.Info("found accounts in OU", "ou", ouID, "count", len(ids))
	return append([]string(nil), ids...), nil
}

func (r *Resolver) collectAccounts(ctx context.Context, parentID string, seen map[string]struct{}, visited map[string]bool) error {
	if visited[parentID] {
		return nil
	}
	visited[parentID] = true

	direct, err := r.childAccounts(ctx, parentID)
	if err != nil {
		return err
	}
	for _, id := range direct {
		if r.cache.tree.nodes[id].Active {
			seen[id] = struct{}{}
		}
	}

	children, err := r.childOUs(ctx, parentID)
	if err != nil {
		return err
	}
	for _, child := range children {
		// A memoized child subtree is reused rather than walked again.
		if ids, ok := r.cache.accountsInOU[child]; ok {
			for _, id := range ids {
				seen[id] = struct{}{}
			}
			continue
		}
		if err := r.collectAccounts(ctx, child, seen, visited); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tree accessors: fetch once per parent, with retry
// ---------------------------------------------------------------------------

func (r *Resolver) roots(ctx context.Context) ([]string, error) {
	t := r.cache.tree
	if t.rootsLoaded {
		return t.roots, nil
	}
	nodes, err := r.list(ctx, "list roots", r.fetch.listRoots)
	if err != nil {
		return nil, err
	}
	t.roots = t.roots[:0]
	for _, n := range nodes {
		t.put(n)
		t.roots = append(t.roots, n.ID)
	}
	t.rootsLoaded = true
	return t.roots, nil
}

func (r *Resolver) childOUs(ctx context.Context, parentID string) ([]string, error) {
	t := r.cache.tree
	if ids, ok := t.ouChildren[parentID]; ok {
		return ids, nil
	}
	nodes, err := r.list(ctx, "list OUs for "+parentID, func(ctx context.Context) ([]*Node, error) {
		return r.fetch.listOUs(ctx, parentID)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		t.put(n)
		ids = append(ids, n.ID)
	}
	t.ouChildren[parentID] = ids
	return ids, nil
}

func (r *Resolver) childAccounts(ctx context.Context, parentID string) ([]string, error) {
	t := r.cache.tree
	if ids, ok := t.accountChildren[parentID]; ok {
		return ids, nil
	}
	nodes, err := r.list(ctx, "list accounts for "+parentID, func(ctx context.Context) ([]*Node, error) {
		return r.fetch.listAccountsForParent(ctx, parentID)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		t.put(n)
		ids = append(ids, n.ID)
	}
	t.accountChildren[parentID] = ids
	return ids, nil
}

func (r *Resolver) allAccounts(ctx context.Context) ([]string, error) {
	t := r.cache.tree
	if t.allAccountsLoaded {
		return t.allAccounts, nil
	}
	nodes, err := r.list(ctx, "list accounts", r.fetch.listAccounts)
	if err != nil {
		return nil, err
	}
	t.allAccounts = t.allAccounts[:0]
	for _, n := range nodes {
		t.put(n)
		t.allAccounts = append(t.allAccounts, n.ID)
	}
	t.allAccountsLoaded = true
	return t.allAccounts, nil
}

// list runs one paginated listing under the retry policy. Terminal upstream
// errors, and retryable ones that exhaust the policy, surface as RESOLUTION
// errors.
func (r *Resolver) list(ctx context.Context, what string, fn func(context.Context) ([]*Node, error)) ([]*Node, error) {
	p := r.policy
	p.Name = r.policy.Name + ": " + what
	nodes, err := retry.Execute(ctx, p, fn)
	if err != nil {
		slog.Error("organization lookup failed", "op", what, "error", err)
		return nil, inverr.Wrap(inverr.ErrCodeResolution, what, err)
	}
	return nodes, nil
}
