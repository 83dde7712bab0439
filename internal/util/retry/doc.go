// Package retry provides exponential backoff retry logic for transient failures.
//
// [Do] retries an operation with configurable max attempts, initial delay
// and maximum delay. Errors wrapped with [Fatal] stop retrying at once. It
// is used around Hetzner Cloud API calls made while applying a plan.
package retry
