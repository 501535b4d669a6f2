// Command orginv-lambda runs inventory requests as an AWS Lambda function.
// The Runner is built on the first successful invocation and reused for the
// life of the execution environment, so organization lookups stay cached
// across warm invocations.
package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/pankaj-dahiya-devops/orginv/internal/config"
	"github.com/pankaj-dahiya-devops/orginv/internal/engine"
	"github.com/pankaj-dahiya-devops/orginv/internal/logging"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/orginv/internal/version"
)

// handler lazily builds one Engine and serves every invocation with it. A
// failed build is retried on the next invocation; a successful one is kept.
type handler struct {
	build func(ctx context.Context) (engine.Engine, error)

	mu  sync.Mutex
	eng engine.Engine
}

func (h *handler) load(ctx context.Context) (engine.Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.eng != nil {
		return h.eng, nil
	}
	eng, err := h.build(ctx)
	if err != nil {
		return nil, err
	}
	h.eng = eng
	return eng, nil
}

// Handle serves one trigger event. Malformed events are rejected before the
// engine is built. Errors are returned to Lambda, which reports them as a
// failed invocation.
func (h *handler) Handle(ctx context.Context, req models.Request) (*models.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	eng, err := h.load(ctx)
	if err != nil {
		slog.Error("engine build failed", "error", err)
		return nil, err
	}
	res, err := eng.Run(ctx, req)
	if err != nil {
		slog.Error("inventory run failed", "error", err)
		return nil, err
	}
	return res, nil
}

func buildEngine(ctx context.Context) (engine.Engine, error) {
	cfg, err := config.NewFileLoader("").Load()
	if err != nil {
		return nil, err
	}
	logging.SetDefaultStructuredLoggerWithLevel("orginv-lambda", version.Version, cfg.LogLevel)

	runner, hub, err := engine.NewRunnerFromConfig(ctx, cfg, common.NewDefaultAWSClientProvider(), engine.BuildOptions{})
	if err != nil {
		return nil, err
	}
	slog.Info("runner ready", "hub_account", hub.AccountID, "regions", cfg.Regions)
	return runner, nil
}

func main() {
	h := &handler{build: buildEngine}
	lambda.Start(h.Handle)
}
