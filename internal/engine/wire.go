package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pankaj-dahiya-devops/orginv/internal/collectors"
	"github.com/pankaj-dahiya-devops/orginv/internal/config"
	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/metrics"
	"github.com/pankaj-dahiya-devops/orginv/internal/notify"
	"github.com/pankaj-dahiya-devops/orginv/internal/org"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

// orgAPIBurst is the token bucket size of the throttled Organizations client.
const orgAPIBurst = 1

// BuildOptions controls how NewRunnerFromConfig wires a Runner.
type BuildOptions struct {
	// Profile selects the hub credentials. Empty uses the default chain.
	Profile string

	// DryRun replaces the configured transport with a LogTransport.
	DryRun bool

	// Registry overrides the built-in collectors.
	Registry *collectors.Registry
}

// NewRunnerFromConfig loads the hub account through provider and wires the
// production components around it. It returns the hub so callers can report
// which account the run executes from.
func NewRunnerFromConfig(ctx context.Context, cfg *config.Config, provider common.AWSClientProvider, opts BuildOptions) (*Runner, *common.HubConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	hub, err := provider.LoadHub(ctx, opts.Profile)
	if err != nil {
		return nil, nil, inverr.Wrap(inverr.ErrCodeCredential, "load hub account", err)
	}
	slog.Debug("hub account loaded", "account", hub.AccountID, "profile", hub.ProfileName, "region", hub.Region)

	rec := metrics.New()

	resolver := org.NewResolver(
		org.NewThrottledClient(hub.Clients.Organizations, cfg.OrgAPIRPS, orgAPIBurst),
		org.WithRetryPolicy(cfg.Retry.Resolver.Policy("organizations")),
	)

	broker := common.NewSTSBroker(hub.Clients.STS, hub.Config,
		common.WithPartition(cfg.Partition),
		common.WithSessionDuration(cfg.SessionDuration),
		common.WithBrokerRetryPolicy(cfg.Retry.Credentials.Policy("assume role")),
	)

	registry := opts.Registry
	if registry == nil {
		registry = collectors.NewDefaultRegistry()
	}
	orch := NewOrchestrator(broker, registry, OrchestratorConfig{
		RoleName:     cfg.MemberRole,
		SessionLabel: cfg.SessionName,
		GlobalRegion: cfg.GlobalRegion,
		Retry:        cfg.Retry.Collector.Policy("collect"),
	}, rec)

	transport, err := newTransport(cfg, provider, hub, opts.DryRun)
	if err != nil {
		return nil, nil, err
	}
	notifier := notify.NewDispatcher(transport, cfg.Sender,
		notify.WithRetryPolicy(cfg.Retry.Notification.Policy("notify")))

	runner, err := NewRunner(cfg, resolver, orch, notifier,
		WithMetrics(rec),
		WithRegionSource(func(ctx context.Context) ([]string, error) {
			return provider.GetActiveRegions(ctx, hub)
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	return runner, hub, nil
}

func newTransport(cfg *config.Config, provider common.AWSClientProvider, hub *common.HubConfig, dryRun bool) (notify.Transport, error) {
	if dryRun {
		return notify.LogTransport{Logger: slog.Default()}, nil
	}
	switch cfg.Notify.Transport {
	case config.TransportSES:
		return notify.NewSESTransport(provider.ConfigForRegion(hub, cfg.Notify.SESRegion)), nil
	case config.TransportSMTP:
		return notify.NewSMTPTransport(
			provider.ConfigForRegion(hub, cfg.Notify.SESRegion),
			cfg.Notify.SMTPEndpoint,
			cfg.Notify.SMTPPort,
			cfg.Notify.SMTPSecretARN,
		), nil
	case config.TransportLog:
		return notify.LogTransport{Logger: slog.Default()}, nil
	}
	return nil, inverr.New(inverr.ErrCodeValidation, fmt.Sprintf("unknown notification transport %q", cfg.Notify.Transport))
}
