package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var cloudWatchHeaders = []string{
	"Region", "AccountId", "AlarmName", "MetricName", "Namespace", "State", "Threshold",
}

// cloudWatchCollector lists metric alarms. Composite alarms have no metric
// and are not included.
type cloudWatchCollector struct {
	newClient func(aws.Config) cloudWatchAPI
}

func newCloudWatchCollector() *cloudWatchCollector {
	return &cloudWatchCollector{newClient: newCloudWatchClient}
}

func (c *cloudWatchCollector) Headers() []string { return cloudWatchHeaders }

func (c *cloudWatchCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	paginator := cloudwatch.NewDescribeAlarmsPaginator(c.newClient(cred.Config(region)), &cloudwatch.DescribeAlarmsInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeAlarms page: %w", err)
		}
		for _, a := range page.MetricAlarms {
			rows = append(rows, models.Row{
				region, accountID,
				str(a.AlarmName),
				str(a.MetricName),
				str(a.Namespace),
				string(a.StateValue),
				float(a.Threshold),
			})
		}
	}
	return rows, nil
}
