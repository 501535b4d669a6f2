package org

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/smithy-go"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/retry"
)

// ── fake Organizations client ────────────────────────────────────────────────

// fakeOrg serves a static organization tree and counts calls per operation.
// errs maps an operation name (or "op:parentID") to a queue of errors that
// are returned, one per call, before the canned data.
type fakeOrg struct {
	roots    []orgtypes.Root
	ous      map[string][]orgtypes.OrganizationalUnit
	accounts map[string][]orgtypes.Account

	errs  map[string][]error
	calls map[string]int
}

func newFakeOrg() *fakeOrg {
	return &fakeOrg{
		ous:      make(map[string][]orgtypes.OrganizationalUnit),
		accounts: make(map[string][]orgtypes.Account),
		errs:     make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeOrg) root(id string) *fakeOrg {
	f.roots = append(f.roots, orgtypes.Root{Id: aws.String(id), Name: aws.String("Root")})
	return f
}

func (f *fakeOrg) ou(parent, id, name string) *fakeOrg {
	f.ous[parent] = append(f.ous[parent], orgtypes.OrganizationalUnit{Id: aws.String(id), Name: aws.String(name)})
	return f
}

func (f *fakeOrg) account(parent, id, name string, status orgtypes.AccountStatus) *fakeOrg {
	f.accounts[parent] = append(f.accounts[parent], orgtypes.Account{
		Id: aws.String(id), Name: aws.String(name), Status: status,
	})
	return f
}

func (f *fakeOrg) popErr(key string) error {
	q := f.errs[key]
	if len(q) == 0 {
		return nil
	}
	f.errs[key] = q[1:]
	return q[0]
}

func (f *fakeOrg) ListRoots(_ context.Context, _ *organizations.ListRootsInput, _ ...func(*organizations.Options)) (*organizations.ListRootsOutput, error) {
	f.calls["ListRoots"]++
	if err := f.popErr("ListRoots"); err != nil {
		return nil, err
	}
	return &organizations.ListRootsOutput{Roots: f.roots}, nil
}

func (f *fakeOrg) ListOrganizationalUnitsForParent(_ context.Context, in *organizations.ListOrganizationalUnitsForParentInput, _ ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error) {
	f.calls["ListOrganizationalUnitsForParent"]++
	if err := f.popErr("ListOrganizationalUnitsForParent:" + aws.ToString(in.ParentId)); err != nil {
		return nil, err
	}
	return &organizations.ListOrganizationalUnitsForParentOutput{OrganizationalUnits: f.ous[aws.ToString(in.ParentId)]}, nil
}

func (f *fakeOrg) ListAccountsForParent(_ context.Context, in *organizations.ListAccountsForParentInput, _ ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error) {
	f.calls["ListAccountsForParent"]++
	if err := f.popErr("ListAccountsForParent:" + aws.ToString(in.ParentId)); err != nil {
		return nil, err
	}
	return &organizations.ListAccountsForParentOutput{Accounts: f.accounts[aws.ToString(in.ParentId)]}, nil
}

func (f *fakeOrg) ListAccounts(_ context.Context, _ *organizations.ListAccountsInput, _ ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	f.calls["ListAccounts"]++
	if err := f.popErr("ListAccounts"); err != nil {
		return nil, err
	}
	var all []orgtypes.Account
	for _, accts := range f.accounts {
		all = append(all, accts...)
	}
	return &organizations.ListAccountsOutput{Accounts: all}, nil
}

func (f *fakeOrg) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// ── helpers ──────────────────────────────────────────────────────────────────

func noSleep(context.Context, time.Duration) error { return nil }

func newTestResolver(f *fakeOrg) *Resolver {
	return NewResolver(f, WithRetryPolicy(retry.Policy{MaxRetries: 2, BackoffFactor: 1.5, Sleep: noSleep}))
}

// sampleOrg:
//
//	r-root
//	├── ou-prod "Prod"   accounts: 111122223333 (ACTIVE), 444455556666 (SUSPENDED)
//	│   └── ou-web "Web" accounts: 777788889999 (ACTIVE)
//	│       └── ou-edge "Edge" accounts: 222233334444 (ACTIVE)
//	└── ou-dev  "Dev"    accounts: 555566667777 (ACTIVE)
func sampleOrg() *fakeOrg {
	return newFakeOrg().
		root("r-root").
		ou("r-root", "ou-prod", "Prod").
		ou("r-root", "ou-dev", "Dev").
		ou("ou-prod", "ou-web", "Web").
		ou("ou-web", "ou-edge", "Edge").
		account("ou-prod", "111122223333", "Prod", orgtypes.AccountStatusActive).
		account("ou-prod", "444455556666", "Legacy", orgtypes.AccountStatusSuspended).
		account("ou-web", "777788889999", "Web", orgtypes.AccountStatusActive).
		account("ou-edge", "222233334444", "Edge", orgtypes.AccountStatusActive).
		account("ou-dev", "555566667777", "Dev", orgtypes.AccountStatusActive)
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ── ResolveAccount / Account scope ───────────────────────────────────────────

func TestResolveScope_AccountYieldsExactlyOne(t *testing.T) {
	r := newTestResolver(sampleOrg())

	got, err := r.ResolveScope(context.Background(), models.Scope{Kind: models.ScopeAccount, Target: "Prod"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, []string{"111122223333"}) {
		t.Errorf("got %v; want [111122223333]", got)
	}
}

func TestResolveAccount_InactiveIsNotFound(t *testing.T) {
	r := newTestResolver(sampleOrg())

	_, err := r.ResolveAccount(context.Background(), "Legacy")
	if !inverr.HasCode(err, inverr.ErrCodeNotFound) || !inverr.HasCode(err, inverr.ErrCodeResolution) {
		t.Errorf("err = %v; want RESOLUTION wrapping NOT_FOUND", err)
	}
}

func TestResolveAccount_NameMatchIsExact(t *testing.T) {
	r := newTestResolver(sampleOrg())

	if _, err := r.ResolveAccount(context.Background(), "prod"); !inverr.HasCode(err, inverr.ErrCodeNotFound) {
		t.Errorf("lower-case name must not match; err = %v", err)
	}
}

// ── OU scope ─────────────────────────────────────────────────────────────────

func TestResolveScope_OUUnionOfSubtree(t *testing.T) {
	r := newTestResolver(sampleOrg())

	got, err := r.ResolveScope(context.Background(), models.Scope{Kind: models.ScopeOU, Target: "Prod"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"111122223333", "222233334444", "777788889999"}
	if !equalIDs(got, want) {
		t.Errorf("got %v; want %v (suspended account excluded)", got, want)
	}
}

func TestAccountsInOU_Deduplicates(t *testing.T) {
	f := sampleOrg()
	// The same account reported under two parents must appear once.
	f.account("ou-edge", "777788889999", "Web", orgtypes.AccountStatusActive)
	r := newTestResolver(f)

	got, err := r.AccountsInOU(context.Background(), "ou-prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"111122223333", "222233334444", "777788889999"}
	if !equalIDs(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}
}

func TestAccountsInOU_EqualsDirectPlusChildren(t *testing.T) {
	r := newTestResolver(sampleOrg())
	ctx := context.Background()

	parent, err := r.AccountsInOU(ctx, "ou-prod")
	if err != nil {
		t.Fatal(err)
	}
	child, err := r.AccountsInOU(ctx, "ou-web")
	if err != nil {
		t.Fatal(err)
	}

	union := map[string]bool{"111122223333": true} // direct active account of ou-prod
	for _, id := range child {
		union[id] = true
	}
	if len(parent) != len(union) {
		t.Fatalf("parent %v does not equal direct ∪ child %v", parent, union)
	}
	for _, id := range parent {
		if !union[id] {
			t.Errorf("unexpected account %s", id)
		}
	}
}

func TestResolveScope_OUWithNoActiveAccounts(t *testing.T) {
	f := newFakeOrg().root("r-1").ou("r-1", "ou-empty", "Empty").
		account("ou-empty", "999988887777", "Closed", orgtypes.AccountStatusSuspended)
	r := newTestResolver(f)

	_, err := r.ResolveScope(context.Background(), models.Scope{Kind: models.ScopeOU, Target: "Empty"})
	if !inverr.HasCode(err, inverr.ErrCodeResolution) {
		t.Errorf("err = %v; want RESOLUTION", err)
	}
}

func TestResolveOU_NotFound(t *testing.T) {
	r := newTestResolver(sampleOrg())

	_, err := r.ResolveOU(context.Background(), "Nope")
	if !inverr.HasCode(err, inverr.ErrCodeNotFound) {
		t.Errorf("err = %v; want NOT_FOUND", err)
	}
}

// TestResolveOU_TieBreak verifies the documented order for duplicate names:
// roots in order, then pre-order depth-first within each root.
func TestResolveOU_TieBreak(t *testing.T) {
	f := newFakeOrg().
		root("r-1").
		root("r-2").
		ou("r-1", "ou-a", "Shared").
		ou("r-1", "ou-b", "Target").
		ou("ou-a", "ou-a1", "Target").
		ou("r-2", "ou-c", "Target")
	r := newTestResolver(f)

	got, err := r.ResolveOU(context.Background(), "Target")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ou-a1" {
		t.Errorf("got %s; want ou-a1 (depth-first into ou-a before its sibling ou-b)", got)
	}
}

func TestResolveOU_SecondRootSearchedWhenFirstMisses(t *testing.T) {
	f := newFakeOrg().
		root("r-1").
		root("r-2").
		ou("r-1", "ou-a", "Other").
		ou("r-2", "ou-c", "Target")
	r := newTestResolver(f)

	got, err := r.ResolveOU(context.Background(), "Target")
	if err != nil || got != "ou-c" {
		t.Errorf("got (%s, %v); want ou-c", got, err)
	}
}

// ── memoization ──────────────────────────────────────────────────────────────

func TestResolveScope_RepeatedScopeUsesCache(t *testing.T) {
	f := sampleOrg()
	r := newTestResolver(f)
	ctx := context.Background()
	scope := models.Scope{Kind: models.ScopeOU, Target: "Prod"}

	first, err := r.ResolveScope(ctx, scope)
	if err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := f.totalCalls()

	second, err := r.ResolveScope(ctx, scope)
	if err != nil {
		t.Fatal(err)
	}
	if f.totalCalls() != callsAfterFirst {
		t.Errorf("second resolution made %d upstream calls; want 0", f.totalCalls()-callsAfterFirst)
	}
	if !equalIDs(first, second) {
		t.Errorf("cached result %v differs from first %v", second, first)
	}

	stats := r.Cache().Stats()
	if stats.OUHits != 1 || stats.OUAccountsHits != 1 {
		t.Errorf("stats = %+v; want one OU hit and one OU-accounts hit", stats)
	}
}

func TestResolveAccount_ListsAccountsOnce(t *testing.T) {
	f := sampleOrg()
	r := newTestResolver(f)
	ctx := context.Background()

	for _, name := range []string{"Prod", "Dev", "Prod"} {
		if _, err := r.ResolveAccount(ctx, name); err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
	}
	if f.calls["ListAccounts"] != 1 {
		t.Errorf("ListAccounts called %d times; want 1", f.calls["ListAccounts"])
	}
}

func TestClearCache_RefetchesAndSeesChanges(t *testing.T) {
	f := sampleOrg()
	r := newTestResolver(f)
	ctx := context.Background()

	if _, err := r.ResolveAccount(ctx, "Prod"); err != nil {
		t.Fatal(err)
	}
	f.account("ou-dev", "121212121212", "NewAcct", orgtypes.AccountStatusActive)

	// Stale until cleared.
	if _, err := r.ResolveAccount(ctx, "NewAcct"); !inverr.HasCode(err, inverr.ErrCodeNotFound) {
		t.Fatalf("expected stale cache miss, got %v", err)
	}

	r.ClearCache()
	id, err := r.ResolveAccount(ctx, "NewAcct")
	if err != nil || id != "121212121212" {
		t.Errorf("after ClearCache got (%s, %v); want 121212121212", id, err)
	}
	if f.calls["ListAccounts"] != 2 {
		t.Errorf("ListAccounts called %d times; want 2", f.calls["ListAccounts"])
	}
}

// ── failure classification ───────────────────────────────────────────────────

func TestResolveScope_InvalidKind(t *testing.T) {
	f := sampleOrg()
	r := newTestResolver(f)

	_, err := r.ResolveScope(context.Background(), models.Scope{Kind: "Region", Target: "x"})
	if !inverr.HasCode(err, inverr.ErrCodeInvalidScope) || !inverr.HasCode(err, inverr.ErrCodeResolution) {
		t.Errorf("err = %v; want RESOLUTION wrapping INVALID_SCOPE", err)
	}
	if f.totalCalls() != 0 {
		t.Errorf("invalid scope made %d upstream calls", f.totalCalls())
	}
}

func TestResolve_ThrottlingRetried(t *testing.T) {
	f := sampleOrg()
	throttle := &smithy.GenericAPIError{Code: "TooManyRequestsException"}
	f.errs["ListAccounts"] = []error{throttle, throttle}
	r := newTestResolver(f)

	id, err := r.ResolveAccount(context.Background(), "Dev")
	if err != nil || id != "555566667777" {
		t.Fatalf("got (%s, %v); want 555566667777 after retries", id, err)
	}
	if f.calls["ListAccounts"] != 3 {
		t.Errorf("ListAccounts called %d times; want 3", f.calls["ListAccounts"])
	}
}

func TestResolve_ThrottlingExhausted(t *testing.T) {
	f := sampleOrg()
	throttle := &smithy.GenericAPIError{Code: "TooManyRequestsException"}
	f.errs["ListRoots"] = []error{throttle, throttle, throttle}
	r := newTestResolver(f)

	_, err := r.ResolveOU(context.Background(), "Prod")
	if !inverr.HasCode(err, inverr.ErrCodeResolution) {
		t.Errorf("err = %v; want RESOLUTION", err)
	}
	if f.calls["ListRoots"] != 3 {
		t.Errorf("ListRoots called %d times; want MaxRetries+1 = 3", f.calls["ListRoots"])
	}
}

func TestResolve_AccessDeniedIsTerminal(t *testing.T) {
	f := sampleOrg()
	f.errs["ListOrganizationalUnitsForParent:ou-prod"] = []error{&smithy.GenericAPIError{Code: "AccessDeniedException"}}
	r := newTestResolver(f)

	_, err := r.ResolveScope(context.Background(), models.Scope{Kind: models.ScopeOU, Target: "Web"})
	if !inverr.HasCode(err, inverr.ErrCodeResolution) {
		t.Fatalf("err = %v; want RESOLUTION", err)
	}
	if f.calls["ListOrganizationalUnitsForParent"] != 2 {
		// r-root once, ou-prod once (no retry).
		t.Errorf("ListOrganizationalUnitsForParent called %d times; want 2", f.calls["ListOrganizationalUnitsForParent"])
	}
}

func TestThrottledClient_PassesThrough(t *testing.T) {
	f := sampleOrg()
	r := newTestResolver(f)
	r.fetch = fetcher{client: NewThrottledClient(f, 1000, 10)}

	id, err := r.ResolveAccount(context.Background(), "Prod")
	if err != nil || id != "111122223333" {
		t.Errorf("got (%s, %v)", id, err)
	}
}

func TestThrottledClient_HonoursContext(t *testing.T) {
	f := sampleOrg()
	client := NewThrottledClient(f, 0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// The first call consumes the single burst token; the second must wait
	// and observe the cancelled context.
	if _, err := client.ListRoots(ctx, &organizations.ListRootsInput{}); err != nil {
		t.Fatal(err)
	}
	cancel()
	if _, err := client.ListRoots(ctx, &organizations.ListRootsInput{}); err == nil {
		t.Error("expected context error from limiter")
	}
	if f.calls["ListRoots"] != 1 {
		t.Errorf("ListRoots reached upstream %d times; want 1", f.calls["ListRoots"])
	}
}
