package config

import (
	"time"

	"github.com/pankaj-dahiya-devops/orginv/internal/retry"
)

// Defaults.
const (
	DefaultRegion           = "us-east-1"
	DefaultMemberRole       = "ResourceReadRole"
	DefaultMaxArchiveSizeMB = 35
	DefaultSessionName      = "inventory-run"
	DefaultSessionDuration  = time.Hour
	DefaultPartition        = "aws"
	DefaultOrgAPIRPS        = 5
	DefaultSMTPPort         = 587

	// AllRegions as the sole REGIONS entry requests region discovery.
	AllRegions = "all"
)

// Notification transports.
const (
	TransportSES  = "ses"
	TransportSMTP = "smtp"
	TransportLog  = "log"
)

// Config is the top-level application configuration. It is assembled from
// defaults, an optional YAML file, and environment variables, in that order.
// It must never be committed with real secrets.
type Config struct {
	// Regions is the region list for regional resource kinds. A single
	// "all" entry means every region enabled in the hub account.
	Regions []string `yaml:"regions" json:"regions"`

	// Sender is the From address of every notification. Required.
	Sender string `yaml:"sender" json:"sender"`

	// MemberRole is the role assumed in each member account.
	MemberRole string `yaml:"member_role" json:"member_role"`

	// MaxArchiveSizeMB is the soft archive size budget. Exceeding it warns.
	MaxArchiveSizeMB float64 `yaml:"max_archive_size_mb" json:"max_archive_size_mb"`

	// GlobalRegion is where global-scope kinds (S3, IAM, Cost) are collected.
	GlobalRegion string `yaml:"global_region" json:"global_region"`

	// OutputDir holds the CSV files and archive while a run is in flight.
	// Empty means the OS temp dir.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	SessionName     string        `yaml:"session_name"     json:"session_name"`
	SessionDuration time.Duration `yaml:"session_duration" json:"session_duration"`
	Partition       string        `yaml:"partition"        json:"partition"`

	// OrgAPIRPS caps Organizations API calls per second.
	OrgAPIRPS float64 `yaml:"org_api_rps" json:"org_api_rps"`

	// ResetOrgCache clears the organization tree cache at the start of every
	// run instead of keeping it for the process lifetime.
	ResetOrgCache bool `yaml:"reset_org_cache" json:"reset_org_cache"`

	// MetricsFile, when set, receives the run metrics in Prometheus text format.
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	AWS    AWSConfig    `yaml:"aws"    json:"aws"`
	Notify NotifyConfig `yaml:"notify" json:"notify"`
	Retry  RetryConfig  `yaml:"retry"  json:"retry"`
}

// AWSConfig holds hub-account defaults used when flags are not provided.
type AWSConfig struct {
	// DefaultRegion is used when no region flag or profile region is set.
	DefaultRegion string `yaml:"default_region" json:"default_region"`

	// DefaultProfile is used when no --profile flag is provided.
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
}

// NotifyConfig selects and configures the notification transport.
type NotifyConfig struct {
	// Transport is "ses", "smtp", or "log".
	Transport string `yaml:"transport" json:"transport"`

	// SESRegion is the region of the SES API endpoint.
	SESRegion string `yaml:"ses_region" json:"ses_region"`

	// SMTPEndpoint is the SES SMTP host. Required for the smtp transport.
	SMTPEndpoint string `yaml:"smtp_endpoint" json:"smtp_endpoint"`
	SMTPPort     int    `yaml:"smtp_port"     json:"smtp_port"`

	// SMTPSecretARN names the Secrets Manager secret holding the SMTP
	// username and password. Required for the smtp transport.
	SMTPSecretARN string `yaml:"smtp_secret_arn" json:"smtp_secret_arn"`
}

// RetryConfig holds one retry setting per upstream-calling component.
type RetryConfig struct {
	Collector    RetrySettings `yaml:"collector"    json:"collector"`
	Credentials  RetrySettings `yaml:"credentials"  json:"credentials"`
	Resolver     RetrySettings `yaml:"resolver"     json:"resolver"`
	Notification RetrySettings `yaml:"notification" json:"notification"`
}

// RetrySettings configures one retry policy.
type RetrySettings struct {
	MaxRetries    int           `yaml:"max_retries"    json:"max_retries"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	MaxWait       time.Duration `yaml:"max_wait"       json:"max_wait"`
}

// Policy converts the settings to a retry.Policy named name. The caller sets
// the classifier.
func (s RetrySettings) Policy(name string) retry.Policy {
	return retry.Policy{
		Name:          name,
		MaxRetries:    s.MaxRetries,
		BackoffFactor: s.BackoffFactor,
		MaxWait:       s.MaxWait,
	}
}

// Default returns a Config populated with every default.
func Default() *Config {
	return &Config{
		Regions:          []string{DefaultRegion},
		MemberRole:       DefaultMemberRole,
		MaxArchiveSizeMB: DefaultMaxArchiveSizeMB,
		GlobalRegion:     DefaultRegion,
		SessionName:      DefaultSessionName,
		SessionDuration:  DefaultSessionDuration,
		Partition:        DefaultPartition,
		OrgAPIRPS:        DefaultOrgAPIRPS,
		AWS: AWSConfig{
			DefaultRegion: DefaultRegion,
		},
		Notify: NotifyConfig{
			Transport: TransportSES,
			SESRegion: DefaultRegion,
			SMTPPort:  DefaultSMTPPort,
		},
		Retry: RetryConfig{
			Collector:    RetrySettings{MaxRetries: 3, BackoffFactor: retry.DefaultBackoffFactor},
			Credentials:  RetrySettings{MaxRetries: 3, BackoffFactor: retry.DefaultBackoffFactor},
			Resolver:     RetrySettings{MaxRetries: 3, BackoffFactor: retry.DefaultBackoffFactor},
			Notification: RetrySettings{MaxRetries: 2, BackoffFactor: retry.DefaultBackoffFactor},
		},
	}
}

// DiscoverRegions reports whether the region list asks for discovery.
func (c *Config) DiscoverRegions() bool {
	return len(c.Regions) == 1 && c.Regions[0] == AllRegions
}

// MaxArchiveBytes returns the archive budget in bytes.
func (c *Config) MaxArchiveBytes() int64 {
	return int64(c.MaxArchiveSizeMB * 1024 * 1024)
}

// Loader is the interface for reading Config.
type Loader interface {
	// Load assembles the configuration. It does not validate it.
	Load() (*Config, error)

	// ConfigPath returns the path of the configuration file, or "" when none
	// is used.
	ConfigPath() string
}
