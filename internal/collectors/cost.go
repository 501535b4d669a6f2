package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

const (
	costExplorerRegion = "us-east-1"
	costLookbackDays   = 30
	costMetric         = "UnblendedCost"
)

var costHeaders = []string{"Region", "AccountId", "Service", "AmountUSD", "PeriodStart", "PeriodEnd"}

// costCollector reports unblended spend per service over the last 30 days,
// one row per service per monthly period returned by Cost Explorer.
type costCollector struct {
	newClient func(aws.Config) costAPI
	now       func() time.Time
}

func newCostCollector() *costCollector {
	return &costCollector{newClient: newCostClient, now: time.Now}
}

func (c *costCollector) Headers() []string { return costHeaders }

func (c *costCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	client := c.newClient(cred.Config(region))
	end := c.now().UTC()
	start := end.AddDate(0, 0, -costLookbackDays)

	var rows []models.Row
	var nextToken *string
	for {
		out, err := client.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start.Format(time.DateOnly)),
				End:   aws.String(end.Format(time.DateOnly)),
			},
			Granularity: cetypes.GranularityMonthly,
			Metrics:     []string{costMetric},
			GroupBy: []cetypes.GroupDefinition{{
				Key:  aws.String("SERVICE"),
				Type: cetypes.GroupDefinitionTypeDimension,
			}},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("GetCostAndUsage: %w", err)
		}

		for _, period := range out.ResultsByTime {
			var pStart, pEnd string
			if period.TimePeriod != nil {
				pStart = str(period.TimePeriod.Start)
				pEnd = str(period.TimePeriod.End)
			}
			for _, g := range period.Groups {
				metric, ok := g.Metrics[costMetric]
				if !ok || len(g.Keys) == 0 {
					continue
				}
				rows = append(rows, models.Row{
					region, accountID,
					g.Keys[0],
					str(metric.Amount),
					pStart,
					pEnd,
				})
			}
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}
	return rows, nil
}
