package hcloud

import (
	"errors"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hubnet/internal/util/retry"
)

// isRetryable reports whether an API error is transient: the resource is
// locked by a running action, changed concurrently, or the client is rate
// limited.
func isRetryable(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeLocked,
		hcloud.ErrorCodeConflict,
		hcloud.ErrorCodeResourceLocked,
		hcloud.ErrorCodeResourceUnavailable,
		hcloud.ErrorCodeRateLimitExceeded,
		hcloud.ErrorCodeTimeout,
	)
}

// classify marks every non-retryable error as fatal for retry.Do.
func classify(err error) error {
	if err == nil || isRetryable(err) {
		return err
	}
	return retry.Fatal(err)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// IsInvalidInput checks if the API rejected the request parameters.
func IsInvalidInput(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeInvalidInput)
}

// IsRateLimited checks if an error indicates rate limiting.
func IsRateLimited(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeRateLimitExceeded)
}
