package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var elbHeaders = []string{
	"Region", "AccountId", "Name", "Type", "Scheme", "State", "DNSName", "VpcId", "CreatedTime",
}

// elbCollector lists ELBv2 load balancers (application, network, gateway).
// Classic load balancers are not included.
type elbCollector struct {
	newClient func(aws.Config) elbAPI
}

func newELBCollector() *elbCollector {
	return &elbCollector{newClient: newELBClient}
}

func (c *elbCollector) Headers() []string { return elbHeaders }

func (c *elbCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	paginator := elbv2.NewDescribeLoadBalancersPaginator(c.newClient(cred.Config(region)), &elbv2.DescribeLoadBalancersInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeLoadBalancers page: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			var state string
			if lb.State != nil {
				state = string(lb.State.Code)
			}
			rows = append(rows, models.Row{
				region, accountID,
				str(lb.LoadBalancerName),
				string(lb.Type),
				string(lb.Scheme),
				state,
				str(lb.DNSName),
				str(lb.VpcId),
				timestamp(lb.CreatedTime),
			})
		}
	}
	return rows, nil
}
