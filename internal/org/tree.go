package org

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
)

// NodeKind distinguishes the entities of an organization tree.
type NodeKind string

const (
	NodeRoot    NodeKind = "ROOT"
	NodeOU      NodeKind = "OU"
	NodeAccount NodeKind = "ACCOUNT"
)

// Node is one entity of the organization tree, keyed by its stable ID.
type Node struct {
	ID       string
	Name     string
	Kind     NodeKind
	ParentID string

	// Active is meaningful for accounts only.
	Active bool
}

// tree is the lazily fetched organization structure. Edges are fetched at
// most once per parent ID and kept until the cache is cleared.
type tree struct {
	nodes map[string]*Node

	roots       []string
	rootsLoaded bool

	// ouChildren and accountChildren map a parent ID to the IDs of its direct
	// OU and account children, in API order.
	ouChildren      map[string][]string
	accountChildren map[string][]string

	// allAccounts is the organization-wide account listing.
	allAccounts       []string
	allAccountsLoaded bool
}

func newTree() *tree {
	return &tree{
		nodes:           make(map[string]*Node),
		ouChildren:      make(map[string][]string),
		accountChildren: make(map[string][]string),
	}
}

func (t *tree) put(n *Node) {
	if existing, ok := t.nodes[n.ID]; ok && n.ParentID == "" {
		n.ParentID = existing.ParentID
	}
	t.nodes[n.ID] = n
}

func accountNode(a orgtypes.Account, parentID string) *Node {
	return &Node{
		ID:       aws.ToString(a.Id),
		Name:     aws.ToString(a.Name),
		Kind:     NodeAccount,
		ParentID: parentID,
		Active:   a.Status == orgtypes.AccountStatusActive,
	}
}

// fetcher performs single, un-retried upstream listings. Retries and caching
// are layered on by the Resolver.
type fetcher struct {
	client OrganizationsAPI
}

func (f fetcher) listRoots(ctx context.Context) ([]*Node, error) {
	p := organizations.NewListRootsPaginator(f.client, &organizations.ListRootsInput{})
	var out []*Node
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListRoots: %w", err)
		}
		for _, r := range page.Roots {
			out = append(out, &Node{ID: aws.ToString(r.Id), Name: aws.ToString(r.Name), Kind: NodeRoot})
		}
	}
	return out, nil
}

func (f fetcher) listOUs(ctx context.Context, parentID string) ([]*Node, error) {
	p := organizations.NewListOrganizationalUnitsForParentPaginator(f.client,
		&organizations.ListOrganizationalUnitsForParentInput{ParentId: aws.String(parentID)})
	var out []*Node
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListOrganizationalUnitsForParent %s: %w", parentID, err)
		}
		for _, ou := range page.OrganizationalUnits {
			out = append(out, &Node{
				ID:       aws.ToString(ou.Id),
				Name:     aws.ToString(ou.Name),
				Kind:     NodeOU,
				ParentID: parentID,
			})
		}
	}
	return out, nil
}

func (f fetcher) listAccountsForParent(ctx context.Context, parentID string) ([]*Node, error) {
	p := organizations.NewListAccountsForParentPaginator(f.client,
		&organizations.ListAccountsForParentInput{ParentId: aws.String(parentID)})
	var out []*Node
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAccountsForParent %s: %w", parentID, err)
		}
		for _, a := range page.Accounts {
			out = append(out, accountNode(a, parentID))
		}
	}
	return out, nil
}

func (f fetcher) listAccounts(ctx context.Context) ([]*Node, error) {
	p := organizations.NewListAccountsPaginator(f.client, &organizations.ListAccountsInput{})
	var out []*Node
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: %w", err)
		}
		for _, a := range page.Accounts {
			out = append(out, accountNode(a, ""))
		}
	}
	return out, nil
}
