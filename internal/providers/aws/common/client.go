package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// HubConfig is the resolved configuration of the hub account: the
// organization management (or delegated administrator) account that orginv
// runs in. Organizations lookups and role assumption start here.
type HubConfig struct {
	// ProfileName is the shared-config profile used, or "default".
	ProfileName string

	// AccountID is the hub account ID (via STS).
	AccountID string

	// Region is the hub's home region.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds initialised hub service clients.
	Clients *ClientSet
}

// AWSClientProvider loads the hub configuration and resolves regions.
// It is the sole entry point for hub-side credential and region management.
type AWSClientProvider interface {
	// LoadHub returns a HubConfig for the named profile. Pass an empty string
	// to use the default credential chain (environment, Lambda role, ...).
	LoadHub(ctx context.Context, profile string) (*HubConfig, error)

	// GetActiveRegions returns all regions enabled for the hub account. It
	// backs the REGIONS=all setting.
	GetActiveRegions(ctx context.Context, hub *HubConfig) ([]string, error)

	// ConfigForRegion clones the hub config with the target region set.
	ConfigForRegion(hub *HubConfig, region string) aws.Config
}
