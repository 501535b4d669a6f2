package collectors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

var ec2Headers = []string{
	"Region", "AccountId", "InstanceId", "Name", "InstanceType", "State",
	"PrivateIp", "PublicIp", "VpcId", "LaunchTime",
}

// ec2Collector lists every EC2 instance in the region except terminated ones.
type ec2Collector struct {
	newClient func(aws.Config) ec2InstancesAPI
}

func newEC2Collector() *ec2Collector {
	return &ec2Collector{newClient: newEC2InstancesClient}
}

func (c *ec2Collector) Headers() []string { return ec2Headers }

func (c *ec2Collector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("instance-state-name"),
			Values: []string{"pending", "running", "stopping", "stopped", "shutting-down"},
		}},
	}
	paginator := ec2.NewDescribeInstancesPaginator(c.newClient(cred.Config(region)), input)

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				var state string
				if inst.State != nil {
					state = string(inst.State.Name)
				}
				rows = append(rows, models.Row{
					region, accountID,
					str(inst.InstanceId),
					nameTag(inst.Tags),
					string(inst.InstanceType),
					state,
					str(inst.PrivateIpAddress),
					str(inst.PublicIpAddress),
					str(inst.VpcId),
					timestamp(inst.LaunchTime),
				})
			}
		}
	}
	return rows, nil
}

var ebsHeaders = []string{
	"Region", "AccountId", "VolumeId", "VolumeType", "SizeGiB", "State",
	"Encrypted", "AttachedTo", "CreateTime",
}

// ebsCollector lists EBS volumes. AttachedTo is the first attachment's
// instance ID, blank for detached volumes.
type ebsCollector struct {
	newClient func(aws.Config) ec2VolumesAPI
}

func newEBSCollector() *ebsCollector {
	return &ebsCollector{newClient: newEC2VolumesClient}
}

func (c *ebsCollector) Headers() []string { return ebsHeaders }

func (c *ebsCollector) Collect(ctx context.Context, cred *common.Credential, accountID, region string) ([]models.Row, error) {
	paginator := ec2.NewDescribeVolumesPaginator(c.newClient(cred.Config(region)), &ec2.DescribeVolumesInput{})

	var rows []models.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeVolumes page: %w", err)
		}
		for _, v := range page.Volumes {
			var attachedTo string
			if len(v.Attachments) > 0 {
				attachedTo = str(v.Attachments[0].InstanceId)
			}
			rows = append(rows, models.Row{
				region, accountID,
				str(v.VolumeId),
				string(v.VolumeType),
				int32s(v.Size),
				string(v.State),
				boolean(v.Encrypted),
				attachedTo,
				timestamp(v.CreateTime),
			})
		}
	}
	return rows, nil
}

// nameTag returns the value of the "Name" tag, or "".
func nameTag(tags []ec2types.Tag) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == "Name" {
			return aws.ToString(t.Value)
		}
	}
	return ""
}
