package llm

import "strings"

type FailureClass int

const (
	// ClassFatal stops a provider's ladder immediately.
	ClassFatal FailureClass = iota
	// ClassRetryable covers transport problems and timeouts; the ladder may
	// try its remaining steps.
	ClassRetryable
	// ClassModelRejected covers the provider refusing the requested model or
	// argument shape; the ladder escalates to the next (model, budget) pair.
	ClassModelRejected
)

func (c FailureClass) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassModelRejected:
		return "model-rejected"
	default:
		return "fatal"
	}
}

var rejectionPatterns = []string{
	"not found",
	"not_found",
	"does not exist",
	"not supported",
	"not_supported",
	"unsupported",
	"invalid argument",
	"invalid_argument",
	"invalid model",
	"permission",
	"quota",
	"rate limit",
	"rate_limit",
	"too many requests",
	"status 404",
	"status 403",
	"status 429",
}

var transportPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
	"unexpected eof",
	"temporarily unavailable",
	"status 502",
	"status 503",
}

// Classify buckets a provider failure so the ladder can decide continue vs
// stop. It is a pure lexical classifier over the provider's verbatim message;
// anything unrecognized is fatal.
func Classify(f *Failure) FailureClass {
	if f == nil {
		return ClassFatal
	}
	if f.Code == CodeTimeout {
		return ClassRetryable
	}
	msg := strings.ToLower(f.Message)
	for _, pattern := range rejectionPatterns {
		if strings.Contains(msg, pattern) {
			return ClassModelRejected
		}
	}
	for _, pattern := range transportPatterns {
		if strings.Contains(msg, pattern) {
			return ClassRetryable
		}
	}
	return ClassFatal
}
