package collectors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

// ── CloudTrail ────────────────────────────────────────────────────────────────

var cloudTrailHeaders = []string{
	"Region", "AccountId", "TrailName", "HomeRegion", "MultiRegion", "S3Bucket", "LogValidation",
}

// cloudTrailCollector lists the trails whose home is the collected region.
// Shadow copies of multi-region trails are excluded so each trail appears once.
type cloudTrailCollector struct {
	newClient func(aws.Config) cloudTrailAPI
}

func newCloudTrailCollector() *cloudTrailCollector {
	return &cloudTrailCollector{newClient: newCloudTrailClient}
}

func (c *cloudTrailCollector) Headers() []string { return cloudTrailHeaders }

func (c *cloudTrailCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	out, err := c.newClient(cred.Config(region)).DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{
		IncludeShadowTrails: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe CloudTrail trails: %w", err)
	}

	rows := make([]models.Row, 0, len(out.TrailList))
	for _, t := range out.TrailList {
		rows = append(rows, models.Row{
			region, accountID,
			str(t.Name),
			str(t.HomeRegion),
			boolean(t.IsMultiRegionTrail),
			str(t.S3BucketName),
			boolean(t.LogFileValidationEnabled),
		})
	}
	return rows, nil
}

// ── GuardDuty ─────────────────────────────────────────────────────────────────

var guardDutyHeaders = []string{"Region", "AccountId", "DetectorId", "Status", "FindingFrequency"}

type guardDutyCollector struct {
	newClient func(aws.Config) guardDutyAPI
}

func newGuardDutyCollector() *guardDutyCollector {
	return &guardDutyCollector{newClient: newGuardDutyClient}
}

func (c *guardDutyCollector) Headers() []string { return guardDutyHeaders }

func (c *guardDutyCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	client := c.newClient(cred.Config(region))
	paginator := guardduty.NewListDetectorsPaginator(client, &guardduty.ListDetectorsInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list GuardDuty detectors: %w", err)
		}
		for _, id := range page.DetectorIds {
			det, err := client.GetDetector(ctx, &guardduty.GetDetectorInput{DetectorId: aws.String(id)})
			if err != nil {
				return nil, fmt.Errorf("get GuardDuty detector %s: %w", id, err)
			}
			rows = append(rows, models.Row{
				region, accountID,
				id,
				string(det.Status),
				string(det.FindingPublishingFrequency),
			})
		}
	}
	return rows, nil
}

// ── AWS Config ────────────────────────────────────────────────────────────────

var configHeaders = []string{"Region", "AccountId", "RecorderName", "Recording", "LastStatus"}

type configCollector struct {
	newClient func(aws.Config) configAPI
}

func newConfigCollector() *configCollector {
	return &configCollector{newClient: newConfigClient}
}

func (c *configCollector) Headers() []string { return configHeaders }

func (c *configCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	out, err := c.newClient(cred.Config(region)).DescribeConfigurationRecorderStatus(ctx,
		&configservice.DescribeConfigurationRecorderStatusInput{})
	if err != nil {
		return nil, fmt.Errorf("describe config recorder status: %w", err)
	}

	rows := make([]models.Row, 0, len(out.ConfigurationRecordersStatus))
	for _, s := range out.ConfigurationRecordersStatus {
		rows = append(rows, models.Row{
			region, accountID,
			str(s.Name),
			strconv.FormatBool(s.Recording),
			string(s.LastStatus),
		})
	}
	return rows, nil
}
