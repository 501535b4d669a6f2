package common

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/retry"
)

// DefaultSessionDuration is the lifetime requested for assumed-role sessions.
const DefaultSessionDuration = time.Hour

var (
	accountIDPattern   = regexp.MustCompile(`^\d{12}$`)
	sessionNameInvalid = regexp.MustCompile(`[^\w+=,.@-]`)
)

// Credential is a temporary, account-scoped credential set obtained by role
// assumption. It is held in memory only, for the processing of one account.
type Credential struct {
	AccountID       string
	RoleARN         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expires         time.Time

	// base carries the non-credential SDK settings (retryer, HTTP client,
	// logger) inherited from the hub configuration.
	base aws.Config
}

// Config returns an aws.Config for region that signs requests with c.
func (c *Credential) Config(region string) aws.Config {
	cfg := c.base.Copy()
	cfg.Region = region
	cfg.Credentials = aws.NewCredentialsCache(
		credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken),
	)
	return cfg
}

// Expired reports whether the credential is no longer valid at now.
func (c *Credential) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}

// Discard zeroes the secret material. The credential is unusable afterwards.
func (c *Credential) Discard() {
	c.AccessKeyID = ""
	c.SecretAccessKey = ""
	c.SessionToken = ""
}

// CredentialBroker exchanges an account ID and role name for a scoped
// credential set.
type CredentialBroker interface {
	Assume(ctx context.Context, accountID, roleName, sessionLabel string) (*Credential, error)
}

// STSBroker is the production CredentialBroker backed by STS AssumeRole.
type STSBroker struct {
	client    STSClient
	base      aws.Config
	partition string
	duration  time.Duration
	policy    retry.Policy
}

// BrokerOption configures an STSBroker.
type BrokerOption func(*STSBroker)

// WithPartition sets the ARN partition ("aws", "aws-us-gov", "aws-cn").
func WithPartition(p string) BrokerOption {
	return func(b *STSBroker) {
		if p != "" {
			b.partition = p
		}
	}
}

// WithSessionDuration sets the requested session lifetime.
func WithSessionDuration(d time.Duration) BrokerOption {
	return func(b *STSBroker) {
		if d > 0 {
			b.duration = d
		}
	}
}

// WithBrokerRetryPolicy sets the retry policy for AssumeRole calls.
func WithBrokerRetryPolicy(p retry.Policy) BrokerOption {
	return func(b *STSBroker) { b.policy = p }
}

// NewSTSBroker returns a broker that assumes roles through client. base is
// the hub configuration whose SDK settings the issued credentials inherit.
func NewSTSBroker(client STSClient, base aws.Config, opts ...BrokerOption) *STSBroker {
	b := &STSBroker{
		client:    client,
		base:      base,
		partition: "aws",
		duration:  DefaultSessionDuration,
		policy:    retry.Policy{MaxRetries: 3, BackoffFactor: retry.DefaultBackoffFactor},
	}
	for _, o := range opts {
		o(b)
	}
	if b.policy.Retryable == nil {
		b.policy.Retryable = retry.IsRetryable
	}
	return b
}

// RoleARN builds the member role ARN for accountID.
func (b *STSBroker) RoleARN(accountID, roleName string) string {
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", b.partition, accountID, roleName)
}

// Assume assumes roleName in accountID. Access-denied and missing-role
// failures are returned at once; transient failures are retried first. Both
// surface as CREDENTIAL errors, which callers treat as "skip this account".
func (b *STSBroker) Assume(ctx context.Context, accountID, roleName, sessionLabel string) (*Credential, error) {
	if !accountIDPattern.MatchString(accountID) {
		return nil, inverr.Newf(inverr.ErrCodeCredential, "invalid account ID %q", accountID)
	}
	if roleName == "" {
		return nil, inverr.New(inverr.ErrCodeCredential, "member role name is empty")
	}

	roleARN := b.RoleARN(accountID, roleName)
	p := b.policy
	p.Name = "assume role " + roleARN

	slog.Info("assuming role", "role_arn", roleARN)
	out, err := retry.Execute(ctx, p, func(ctx context.Context) (*sts.AssumeRoleOutput, error) {
		return b.client.AssumeRole(ctx, &sts.AssumeRoleInput{
			RoleArn:         aws.String(roleARN),
			RoleSessionName: aws.String(SessionName(sessionLabel)),
			DurationSeconds: aws.Int32(int32(b.duration / time.Second)),
		})
	})
	if err != nil {
		return nil, inverr.WrapWithContext(inverr.ErrCodeCredential, "role assumption failed", err,
			map[string]any{"account": accountID, "role_arn": roleARN})
	}
	if out.Credentials == nil {
		return nil, inverr.Newf(inverr.ErrCodeCredential, "AssumeRole %s returned no credentials", roleARN)
	}

	c := out.Credentials
	return &Credential{
		AccountID:       accountID,
		RoleARN:         roleARN,
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: aws.ToString(c.SecretAccessKey),
		SessionToken:    aws.ToString(c.SessionToken),
		Expires:         aws.ToTime(c.Expiration),
		base:            b.base,
	}, nil
}

// SessionName sanitises label into a valid STS role session name: 2 to 64
// characters from [\w+=,.@-].
func SessionName(label string) string {
	s := sessionNameInvalid.ReplaceAllString(label, "-")
	if len(s) > 64 {
		s = s[:64]
	}
	for len(s) < 2 {
		s += "-"
	}
	return s
}
