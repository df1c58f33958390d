package anthropic

import (
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
)

// Sentinel error kinds for provider failures the caller must distinguish.
// Both are fatal for the run; the pipeline surfaces them verbatim instead of
// retrying or guessing.
var (
	ErrRateLimited    = errors.New("anthropic: rate limited")
	ErrQuotaExhausted = errors.New("anthropic: quota exhausted")
)

// classifyError maps SDK errors onto the stable error kinds. Unrecognized
// errors are wrapped as-is.
func classifyError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 429:
			return eris.Wrap(ErrRateLimited, apierr.Error())
		case isQuotaMessage(apierr.Error()):
			return eris.Wrap(ErrQuotaExhausted, apierr.Error())
		}
	}
	return eris.Wrap(err, "anthropic: create message")
}

// isQuotaMessage detects credit/quota exhaustion responses, which Anthropic
// reports as 400-level errors with a descriptive message rather than a
// dedicated status code.
func isQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "credit balance") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "billing")
}
