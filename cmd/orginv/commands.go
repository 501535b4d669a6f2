package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/orginv/internal/collectors"
	"github.com/pankaj-dahiya-devops/orginv/internal/config"
	"github.com/pankaj-dahiya-devops/orginv/internal/engine"
	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/logging"
	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/output"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/orginv/internal/version"
)

const appName = "orginv"

// newProvider is swapped in tests.
var newProvider = func() common.AWSClientProvider {
	return common.NewDefaultAWSClientProvider()
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// loadConfig assembles the configuration and installs the default logger.
// The result is not validated.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.NewFileLoader(g.configPath).Load()
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	logging.SetDefaultStructuredLoggerWithLevel(appName, version.Version, cfg.LogLevel)
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   appName,
		Short: "orginv: cross-account AWS Organization resource inventory",
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (default: $"+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (default: $LOG_LEVEL or info)")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newResourcesCmd(g))
	root.AddCommand(newDoctorCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

// runFlags are the flags of "orginv run".
type runFlags struct {
	scope       string
	target      string
	resources   []string
	email       string
	event       string
	profile     string
	regions     []string
	dryRun      bool
	format      string
	metricsFile string
}

func newRunCmd(g *globalOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect an inventory for an account or OU and email it",
		Example: `  orginv run --scope Account --target Prod --resources EC2,S3 --email ops@example.com
  orginv run --event event.json --dry-run --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if len(f.regions) > 0 {
				cfg.Regions = f.regions
			}
			if f.metricsFile != "" {
				cfg.MetricsFile = f.metricsFile
			}

			req, err := buildRequest(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}

			runner, hub, err := engine.NewRunnerFromConfig(cmd.Context(), cfg, newProvider(), engine.BuildOptions{
				Profile: f.profile,
				DryRun:  f.dryRun,
			})
			if err != nil {
				return err
			}
			slog.Info("hub account", "account", hub.AccountID, "profile", hub.ProfileName)

			res, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("inventory run failed: %w", err)
			}
			return printResult(cmd.OutOrStdout(), res, engine.ReportFormat(f.format))
		},
	}

	cmd.Flags().StringVar(&f.scope, "scope", "", "Scope kind: Account or OU")
	cmd.Flags().StringVar(&f.target, "target", "", "Account name or OU name")
	cmd.Flags().StringSliceVar(&f.resources, "resources", nil, "Resource kinds to collect, e.g. EC2,S3 (see orginv resources)")
	cmd.Flags().StringVar(&f.email, "email", "", "Recipient address, or a comma-separated list")
	cmd.Flags().StringVar(&f.event, "event", "", "Read the trigger input from this JSON file; explicit flags override its fields")
	cmd.Flags().StringVar(&f.profile, "profile", "", "AWS profile of the hub account (default: credential chain)")
	cmd.Flags().StringSliceVar(&f.regions, "regions", nil, `Regions to scan, or "all" (default: $REGIONS or us-east-1)`)
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Log the notification instead of sending it")
	cmd.Flags().StringVar(&f.format, "format", string(engine.ReportFormatTable), "Output format: json or table")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	return cmd
}

// buildRequest assembles the trigger input from the --event file and the
// flags. A flag overrides the event field only when changed reports it set.
func buildRequest(f *runFlags, changed func(string) bool) (models.Request, error) {
	var req models.Request
	if f.event != "" {
		data, err := os.ReadFile(f.event)
		if err != nil {
			return req, inverr.Wrap(inverr.ErrCodeValidation, fmt.Sprintf("read event %q", f.event), err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, inverr.Wrap(inverr.ErrCodeValidation, fmt.Sprintf("parse event %q", f.event), err)
		}
	}
	if changed("scope") {
		req.Scope = models.ScopeKind(f.scope)
	}
	if changed("target") {
		req.Target = f.target
	}
	if changed("resources") {
		req.Resources = f.resources
	}
	if changed("email") {
		req.Email = f.email
	}
	return req, nil
}

// printResult writes res to w as indented JSON or as a summary table.
func printResult(w io.Writer, res *models.RunResult, format engine.ReportFormat) error {
	switch format {
	case engine.ReportFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case engine.ReportFormatTable, "":
		output.RenderSummary(w, res)
		return nil
	}
	return fmt.Errorf("unknown format %q: want json or table", format)
}

func newResourcesCmd(g *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:          "resources",
		Short:        "List the resource kinds that can be collected",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			kinds := kindInfos(collectors.NewDefaultRegistry(), cfg.Retry.Collector.MaxRetries)
			if format == string(engine.ReportFormatJSON) {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(kinds)
			}
			output.RenderKinds(cmd.OutOrStdout(), kinds)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(engine.ReportFormatTable), "Output format: json or table")
	return cmd
}

// kindInfos describes every registry entry, resolving retry overrides
// against defaultRetries.
func kindInfos(reg *collectors.Registry, defaultRetries int) []output.KindInfo {
	entries := reg.Entries()
	out := make([]output.KindInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, output.KindInfo{
			Kind:       e.Kind,
			Global:     e.Global,
			MaxRetries: e.MaxRetries(defaultRetries),
			Columns:    len(e.Collector.Headers()),
		})
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}
