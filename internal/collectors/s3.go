package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var s3Headers = []string{"Region", "AccountId", "BucketName", "BucketRegion", "CreationDate"}

// s3Collector lists every bucket the account owns. S3 bucket listing is
// account-wide, so the kind is registered as global.
type s3Collector struct {
	newClient func(aws.Config) s3API
}

func newS3Collector() *s3Collector {
	return &s3Collector{newClient: newS3Client}
}

func (c *s3Collector) Headers() []string { return s3Headers }

func (c *s3Collector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	client := c.newClient(cred.Config(region))
	paginator := s3.NewListBucketsPaginator(client, &s3.ListBucketsInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list S3 buckets: %w", err)
		}
		for _, b := range page.Buckets {
			name := str(b.Name)
			bucketRegion := str(b.BucketRegion)
			if bucketRegion == "" {
				bucketRegion = bucketLocation(ctx, client, name)
			}
			rows = append(rows, models.Row{
				region, accountID,
				name,
				bucketRegion,
				timestamp(b.CreationDate),
			})
		}
	}
	return rows, nil
}

// bucketLocation falls back to GetBucketLocation when ListBuckets omits the
// region. An empty LocationConstraint means us-east-1. Lookup errors leave
// the cell blank rather than failing the whole listing.
func bucketLocation(ctx context.Context, client s3API, name string) string {
	out, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(name)})
	if err != nil {
		return ""
	}
	if out.LocationConstraint == "" {
		return "us-east-1"
	}
	return string(out.LocationConstraint)
}
