package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/orginv/internal/config"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

// DoctorResult is the structured output of orginv doctor.
type DoctorResult struct {
	Config struct {
		Path  string `json:"path,omitempty"`
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	} `json:"config"`

	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Organizations struct {
		Reachable bool   `json:"reachable"`
		RootID    string `json:"root_id,omitempty"`
		Error     string `json:"error,omitempty"`
	} `json:"organizations"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Check configuration, hub credentials and Organizations access",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")

			loader := config.NewFileLoader(g.configPath)
			result, err := runDoctor(cmd.Context(), loader, newProvider(), cmd.OutOrStdout(), format, profile)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile of the hub account (default: credential chain)")
	return cmd
}

// runDoctor collects every check, renders it to w and returns the result.
// The error covers rendering only; an unhealthy result is not an error.
func runDoctor(ctx context.Context, loader config.Loader, provider common.AWSClientProvider, w io.Writer, format, profile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, loader, provider, profile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}
	return result, nil
}

func collectDoctorResult(ctx context.Context, loader config.Loader, provider common.AWSClientProvider, profile string) DoctorResult {
	var result DoctorResult

	result.Config.Path = loader.ConfigPath()
	cfg, err := loader.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		result.Config.Error = err.Error()
	} else {
		result.Config.Valid = true
	}

	// Hub: credential chain, then STS identity, then Organizations ListRoots.
	result.AWS.Profile = profile
	hub, err := provider.LoadHub(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = hub.AccountID

		out, err := hub.Clients.Organizations.ListRoots(ctx, &organizations.ListRootsInput{})
		switch {
		case err != nil:
			result.Organizations.Error = err.Error()
		case len(out.Roots) == 0:
			result.Organizations.Error = "organization has no root"
		default:
			result.Organizations.Reachable = true
			result.Organizations.RootID = aws.ToString(out.Roots[0].Id)
		}
	}

	result.OverallHealthy = result.Config.Valid &&
		result.AWS.Credentials &&
		result.Organizations.Reachable
	return result
}

func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nConfiguration:")
	source := result.Config.Path
	if source == "" {
		source = "defaults + environment"
	}
	if result.Config.Valid {
		doctorPrint(w, "Settings", "OK", source)
	} else {
		doctorPrint(w, "Settings", "FAIL", result.Config.Error)
	}

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nHub account (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nHub account:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Organizations", "FAIL", "skipped")
		return
	}
	doctorPrint(w, "Credentials", "OK", "")
	doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
	if result.Organizations.Reachable {
		doctorPrint(w, "Organizations", "OK", "Root: "+result.Organizations.RootID)
	} else {
		doctorPrint(w, "Organizations", "FAIL", result.Organizations.Error)
	}
}

// doctorPrint writes one check line, with detail in parentheses when set.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
