package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var rdsHeaders = []string{
	"Region", "AccountId", "DBInstanceId", "Engine", "EngineVersion",
	"InstanceClass", "Status", "MultiAZ", "StorageEncrypted", "AllocatedStorageGiB",
}

type rdsCollector struct {
	newClient func(aws.Config) rdsAPI
}

func newRDSCollector() *rdsCollector {
	return &rdsCollector{newClient: newRDSClient}
}

func (c *rdsCollector) Headers() []string { return rdsHeaders }

func (c *rdsCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	paginator := rds.NewDescribeDBInstancesPaginator(c.newClient(cred.Config(region)), &rds.DescribeDBInstancesInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeDBInstances page: %w", err)
		}
		for _, db := range page.DBInstances {
			rows = append(rows, models.Row{
				region, accountID,
				str(db.DBInstanceIdentifier),
				str(db.Engine),
				str(db.EngineVersion),
				str(db.DBInstanceClass),
				str(db.DBInstanceStatus),
				boolean(db.MultiAZ),
				boolean(db.StorageEncrypted),
				int32s(db.AllocatedStorage),
			})
		}
	}
	return rows, nil
}
