package common

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/orginv/internal/version"
)

// DefaultRegion is used when the hub profile has no region configured.
const DefaultRegion = "us-east-1"

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
// It uses the standard AWS SDK v2 credential chain, so it works the same on a
// workstation (shared config profiles) and inside Lambda (execution role).
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
	loadFn  func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error)
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet, loadFn: awsconfig.LoadDefaultConfig}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f, loadFn: awsconfig.LoadDefaultConfig}
}

// LoadHub loads the AWS SDK config for the named profile and returns a
// HubConfig including the resolved account ID and initialised clients.
func (p *DefaultAWSClientProvider) LoadHub(ctx context.Context, profile string) (*HubConfig, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithAppID(version.AppID())}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := p.loadFn(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}

	// Organizations and STS are reachable from us-east-1 regardless of where
	// the hub normally operates.
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	clients := p.factory(cfg)

	accountID, err := resolveAccountID(ctx, clients.STS)
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", profileDisplayName(profile), err)
	}

	return &HubConfig{
		ProfileName: profileDisplayName(profile),
		AccountID:   accountID,
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// GetActiveRegions returns all regions enabled (opted-in) for the hub
// account, sorted by name.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, hub *HubConfig) ([]string, error) {
	out, err := hub.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false returns only regions the account has opted into.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", hub.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

// ConfigForRegion returns a copy of hub.Config with Region set to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(hub *HubConfig, region string) aws.Config {
	regional := hub.Config
	regional.Region = region
	return regional
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default chain) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func resolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}
