package collectors

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ---------------------------------------------------------------------------
// Narrow client interfaces
//
// Each interface lists only the SDK operations its collector calls, and where
// a paginator exists it embeds the SDK's *APIClient interface so the real
// paginator can drive a stub in tests.
// ---------------------------------------------------------------------------

type ec2InstancesAPI interface {
	ec2.DescribeInstancesAPIClient
}

type ec2VolumesAPI interface {
	ec2.DescribeVolumesAPIClient
}

type s3API interface {
	s3.ListBucketsAPIClient
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
}

type rdsAPI interface {
	rds.DescribeDBInstancesAPIClient
}

type lambdaAPI interface {
	lambda.ListFunctionsAPIClient
}

type elbAPI interface {
	elbv2.DescribeLoadBalancersAPIClient
}

type iamAPI interface {
	iam.ListUsersAPIClient
}

type eksAPI interface {
	eks.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

type cloudTrailAPI interface {
	DescribeTrails(ctx context.Context, params *cloudtrail.DescribeTrailsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.DescribeTrailsOutput, error)
}

type guardDutyAPI interface {
	guardduty.ListDetectorsAPIClient
	GetDetector(ctx context.Context, params *guardduty.GetDetectorInput, optFns ...func(*guardduty.Options)) (*guardduty.GetDetectorOutput, error)
}

type configAPI interface {
	DescribeConfigurationRecorderStatus(ctx context.Context, params *configservice.DescribeConfigurationRecorderStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecorderStatusOutput, error)
}

type cloudWatchAPI interface {
	cloudwatch.DescribeAlarmsAPIClient
}

// costAPI is served from us-east-1 whatever region the collector is given.
type costAPI interface {
	GetCostAndUsage(ctx context.Context, params *ce.GetCostAndUsageInput, optFns ...func(*ce.Options)) (*ce.GetCostAndUsageOutput, error)
}

// ---------------------------------------------------------------------------
// Production factories
//
// Each collector holds a factory of its own client type; tests replace it with
// a function returning a stub.
// ---------------------------------------------------------------------------

func newEC2InstancesClient(cfg aws.Config) ec2InstancesAPI { return ec2.NewFromConfig(cfg) }
func newEC2VolumesClient(cfg aws.Config) ec2VolumesAPI { return ec2.NewFromConfig(cfg) }
func newS3Client(cfg aws.Config) s3API { return s3.NewFromConfig(cfg) }
func newRDSClient(cfg aws.Config) rdsAPI { return rds.NewFromConfig(cfg) }
func newLambdaClient(cfg aws.Config) lambdaAPI { return lambda.NewFromConfig(cfg) }
func newELBClient(cfg aws.Config) elbAPI { return elbv2.NewFromConfig(cfg) }
func newIAMClient(cfg aws.Config) iamAPI { return iam.NewFromConfig(cfg) }
func newEKSClient(cfg aws.Config) eksAPI { return eks.NewFromConfig(cfg) }
func newCloudTrailClient(cfg aws.Config) cloudTrailAPI { return cloudtrail.NewFromConfig(cfg) }
func newGuardDutyClient(cfg aws.Config) guardDutyAPI { return guardduty.NewFromConfig(cfg) }
func newConfigClient(cfg aws.Config) configAPI { return configservice.NewFromConfig(cfg) }
func newCloudWatchClient(cfg aws.Config) cloudWatchAPI { return cloudwatch.NewFromConfig(cfg) }

func newCostClient(cfg aws.Config) costAPI {
	cfg.Region = costExplorerRegion
	return ce.NewFromConfig(cfg)
}
