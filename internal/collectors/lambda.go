package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var lambdaHeaders = []string{
	"Region", "AccountId", "FunctionName", "Runtime", "MemoryMB", "TimeoutSec", "LastModified",
}

type lambdaCollector struct {
	newClient func(aws.Config) lambdaAPI
}

func newLambdaCollector() *lambdaCollector {
	return &lambdaCollector{newClient: newLambdaClient}
}

func (c *lambdaCollector) Headers() []string { return lambdaHeaders }

func (c *lambdaCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	paginator := lambda.NewListFunctionsPaginator(c.newClient(cred.Config(region)), &lambda.ListFunctionsInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListFunctions page: %w", err)
		}
		for _, fn := range page.Functions {
			rows = append(rows, models.Row{
				region, accountID,
				str(fn.FunctionName),
				string(fn.Runtime),
				int32s(fn.MemorySize),
				int32s(fn.Timeout),
				str(fn.LastModified),
			})
		}
	}
	return rows, nil
}
