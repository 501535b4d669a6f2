package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
)

// EnvConfigPath names the YAML config file when --config is not given.
const EnvConfigPath = "ORGINV_CONFIG"

// Environment keys.
const (
	EnvRegions          = "REGIONS"
	EnvSender           = "SENDER"
	EnvMemberRole       = "MEMBER_ROLE"
	EnvMemberReadRole   = "MEMBER_READ_ROLE"
	EnvMaxArchiveSizeMB = "MAX_ARCHIVE_SIZE_MB"
	EnvGlobalRegion     = "GLOBAL_REGION"
	EnvOutputDir        = "OUTPUT_DIR"
	EnvSessionName      = "SESSION_NAME"
	EnvSessionDuration  = "SESSION_DURATION"
	EnvPartition        = "AWS_PARTITION"
	EnvNotifyTransport  = "NOTIFY_TRANSPORT"
	EnvSESRegion        = "SES_REGION"
	EnvSESEndpoint      = "SES_ENDPOINT"
	EnvSESSecretsARN    = "SES_SECRETS_ARN"
	EnvOrgAPIRPS        = "ORG_API_RPS"
	EnvResetOrgCache    = "RESET_ORG_CACHE"
	EnvMetricsFile      = "METRICS_FILE"
	EnvLogLevel         = "LOG_LEVEL"
)

// FileLoader loads defaults, then the YAML file at Path (if any), then the
// environment. LookupEnv defaults to os.LookupEnv.
type FileLoader struct {
	Path      string
	LookupEnv func(string) (string, bool)
}

// NewFileLoader returns a loader for path. An empty path falls back to
// $ORGINV_CONFIG, and then to no file at all.
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	return &FileLoader{Path: path, LookupEnv: os.LookupEnv}
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string { return l.Path }

// Load implements Loader. The result is not validated; callers run Validate
// after applying their own overrides.
func (l *FileLoader) Load() (*Config, error) {
	cfg := Default()
	if l.Path != "" {
		if err := loadFile(l.Path, cfg); err != nil {
			return nil, err
		}
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. Keys absent from the file
// keep their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return inverr.Wrap(inverr.ErrCodeValidation, fmt.Sprintf("read config %q", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return inverr.Wrap(inverr.ErrCodeValidation, fmt.Sprintf("parse config %q", path), err)
	}
	return nil
}

// ApplyEnv overlays every set environment key onto c. Malformed numeric,
// boolean, or duration values are VALIDATION errors.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvRegions); ok {
		c.Regions = SplitList(v)
	}
	if v, ok := get(EnvSender); ok {
		c.Sender = v
	}
	// MEMBER_READ_ROLE is the older name; MEMBER_ROLE wins when both are set.
	if v, ok := get(EnvMemberReadRole); ok {
		c.MemberRole = v
	}
	if v, ok := get(EnvMemberRole); ok {
		c.MemberRole = v
	}
	if v, ok := get(EnvMaxArchiveSizeMB); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError(EnvMaxArchiveSizeMB, v, err)
		}
		c.MaxArchiveSizeMB = f
	}
	if v, ok := get(EnvGlobalRegion); ok {
		c.GlobalRegion = v
	}
	if v, ok := get(EnvOutputDir); ok {
		c.OutputDir = v
	}
	if v, ok := get(EnvSessionName); ok {
		c.SessionName = v
	}
	if v, ok := get(EnvSessionDuration); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(EnvSessionDuration, v, err)
		}
		c.SessionDuration = d
	}
	if v, ok := get(EnvPartition); ok {
		c.Partition = v
	}
	if v, ok := get(EnvNotifyTransport); ok {
		c.Notify.Transport = strings.ToLower(v)
	}
	if v, ok := get(EnvSESRegion); ok {
		c.Notify.SESRegion = v
	}
	if v, ok := get(EnvSESEndpoint); ok {
		c.Notify.SMTPEndpoint = v
	}
	if v, ok := get(EnvSESSecretsARN); ok {
		c.Notify.SMTPSecretARN = v
	}
	if v, ok := get(EnvOrgAPIRPS); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError(EnvOrgAPIRPS, v, err)
		}
		c.OrgAPIRPS = f
	}
	if v, ok := get(EnvResetOrgCache); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvResetOrgCache, v, err)
		}
		c.ResetOrgCache = b
	}
	if v, ok := get(EnvMetricsFile); ok {
		c.MetricsFile = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

func envError(key, value string, err error) error {
	return inverr.WrapWithContext(inverr.ErrCodeValidation, "invalid environment value", err,
		map[string]any{"key": key, "value": value})
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Sender == "":
		return inverr.New(inverr.ErrCodeValidation, "SENDER is required")
	case len(c.Regions) == 0:
		return inverr.New(inverr.ErrCodeValidation, "region list is empty")
	case c.MaxArchiveSizeMB <= 0:
		return inverr.Newf(inverr.ErrCodeValidation, "max archive size must be positive, got %v", c.MaxArchiveSizeMB)
	case c.MemberRole == "":
		return inverr.New(inverr.ErrCodeValidation, "member role is empty")
	case c.GlobalRegion == "":
		return inverr.New(inverr.ErrCodeValidation, "global region is empty")
	case c.OrgAPIRPS <= 0:
		return inverr.Newf(inverr.ErrCodeValidation, "org API rate must be positive, got %v", c.OrgAPIRPS)
	}

	for _, r := range []struct {
		name string
		s    RetrySettings
	}{
		{"collector", c.Retry.Collector},
		{"credentials", c.Retry.Credentials},
		{"resolver", c.Retry.Resolver},
		{"notification", c.Retry.Notification},
	} {
		if r.s.MaxRetries < 0 || r.s.BackoffFactor < 1 {
			return inverr.Newf(inverr.ErrCodeValidation,
				"retry.%s: max_retries must be >= 0 and backoff_factor >= 1", r.name)
		}
	}

	switch c.Notify.Transport {
	case TransportSES, TransportLog:
	case TransportSMTP:
		if c.Notify.SMTPEndpoint == "" || c.Notify.SMTPSecretARN == "" {
			return inverr.New(inverr.ErrCodeValidation, "smtp transport needs SES_ENDPOINT and SES_SECRETS_ARN")
		}
	default:
		return inverr.Newf(inverr.ErrCodeValidation, "unknown notification transport %q", c.Notify.Transport)
	}
	return nil
}
