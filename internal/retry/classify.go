package retry

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// retryableCodes are AWS API error codes worth another attempt.
var retryableCodes = map[string]struct{}{
	"ConcurrentModificationException": {},
	"ServiceException":                {},
	"ServiceUnavailable":              {},
	"ServiceUnavailableException":     {},
	"InternalFailure":                 {},
	"InternalError":                   {},
	"RequestTimeout":                  {},
	"RequestTimeoutException":         {},
	"RequestLimitExceeded":            {},
	"TooManyRequestsException":        {},
	"PriorRequestNotComplete":         {},
	"IDPCommunicationError":           {},
}

// IsRetryable classifies upstream AWS errors. Throttling, transient and
// server-fault API errors are retryable; other API errors (access denied,
// not found, invalid input) are terminal. Errors that are not API errors
// at all, such as dropped connections, are retryable. Context cancellation is
// never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	code := apiErr.ErrorCode()
	if _, ok := retryableCodes[code]; ok {
		return true
	}
	if strings.Contains(code, "Throttl") {
		return true
	}
	return apiErr.ErrorFault() == smithy.FaultServer
}

// IsAccessDenied reports whether err is an AWS authorization failure.
func IsAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return strings.HasPrefix(code, "AccessDenied") || code == "UnauthorizedOperation" || code == "AuthFailure"
}
