package org

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"golang.org/x/time/rate"
)

// OrganizationsAPI is the subset of AWS Organizations operations used by the
// resolver. *organizations.Client satisfies it, as do the paginator client
// interfaces it embeds. Tests supply a struct returning canned pages.
type OrganizationsAPI interface {
	ListRoots(
		ctx context.Context,
		params *organizations.ListRootsInput,
		optFns ...func(*organizations.Options),
	) (*organizations.ListRootsOutput, error)

	ListOrganizationalUnitsForParent(
		ctx context.Context,
		params *organizations.ListOrganizationalUnitsForParentInput,
		optFns ...func(*organizations.Options),
	) (*organizations.ListOrganizationalUnitsForParentOutput, error)

	ListAccountsForParent(
		ctx context.Context,
		params *organizations.ListAccountsForParentInput,
		optFns ...func(*organizations.Options),
	) (*organizations.ListAccountsForParentOutput, error)

	ListAccounts(
		ctx context.Context,
		params *organizations.ListAccountsInput,
		optFns ...func(*organizations.Options),
	) (*organizations.ListAccountsOutput, error)
}

// throttledClient paces every Organizations call through a token bucket.
// The Organizations API has a low per-account request quota and the tree walk
// issues one call per OU.
type throttledClient struct {
	next    OrganizationsAPI
	limiter *rate.Limiter
}

// NewThrottledClient wraps client so that at most rps calls per second are
// issued, with bursts of up to burst calls.
func NewThrottledClient(client OrganizationsAPI, rps float64, burst int) OrganizationsAPI {
	if burst < 1 {
		burst = 1
	}
	return &throttledClient{next: client, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (c *throttledClient) ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ListRoots(ctx, params, optFns...)
}

func (c *throttledClient) ListOrganizationalUnitsForParent(ctx context.Context, params *organizations.ListOrganizationalUnitsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ListOrganizationalUnitsForParent(ctx, params, optFns...)
}

func (c *throttledClient) ListAccountsForParent(ctx context.Context, params *organizations.ListAccountsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ListAccountsForParent(ctx, params, optFns...)
}

func (c *throttledClient) ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ListAccounts(ctx, params, optFns...)
}
