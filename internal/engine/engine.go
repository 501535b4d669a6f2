// Package engine runs an inventory: it resolves the requested scope to
// accounts, fans collection out over (account, kind, region) units, packages
// the results, and sends the notification.
package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// Engine is the central orchestration interface. Run is the sole entry point
// shared by the CLI and the Lambda handler.
type Engine interface {
	Run(ctx context.Context, req models.Request) (*models.RunResult, error)
}
