package collectors

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Cell formatting shared by every collector. Missing values render as "".

func str(p *string) string { return aws.ToString(p) }

func timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func boolean(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func int32s(p *int32) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(int64(*p), 10)
}

func float(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
