package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var eksHeaders = []string{
	"Region", "AccountId", "ClusterName", "Version", "Status", "Endpoint", "PlatformVersion",
}

// eksCollector lists EKS clusters and describes each one.
type eksCollector struct {
	newClient func(aws.Config) eksAPI
}

func newEKSCollector() *eksCollector {
	return &eksCollector{newClient: newEKSClient}
}

func (c *eksCollector) Headers() []string { return eksHeaders }

func (c *eksCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	client := c.newClient(cred.Config(region))
	paginator := eks.NewListClustersPaginator(client, &eks.ListClustersInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListClusters page: %w", err)
		}
		for _, name := range page.Clusters {
			out, err := client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
			if err != nil {
				return nil, fmt.Errorf("describe EKS cluster %q: %w", name, err)
			}
			if out.Cluster == nil {
				return nil, fmt.Errorf("describe EKS cluster %q: empty response", name)
			}
			cl := out.Cluster
			rows = append(rows, models.Row{
				region, accountID,
				name,
				str(cl.Version),
				string(cl.Status),
				str(cl.Endpoint),
				str(cl.PlatformVersion),
			})
		}
	}
	return rows, nil
}
