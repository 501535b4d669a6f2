package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var iamHeaders = []string{
	"Region", "AccountId", "UserName", "UserId", "Arn", "CreateDate", "PasswordLastUsed",
}

// iamCollector lists IAM users. IAM is a global service.
type iamCollector struct {
	newClient func(aws.Config) iamAPI
}

func newIAMCollector() *iamCollector {
	return &iamCollector{newClient: newIAMClient}
}

func (c *iamCollector) Headers() []string { return iamHeaders }

func (c *iamCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	paginator := iam.NewListUsersPaginator(c.newClient(cred.Config(region)), &iam.ListUsersInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list IAM users: %w", err)
		}
		for _, u := range page.Users {
			rows = append(rows, models.Row{
				region, accountID,
				str(u.UserName),
				str(u.UserId),
				str(u.Arn),
				timestamp(u.CreateDate),
				timestamp(u.PasswordLastUsed),
			})
		}
	}
	return rows, nil
}
