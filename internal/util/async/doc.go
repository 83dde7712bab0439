// Package async runs named tasks concurrently and joins on all of them.
//
// RunParallel never returns before every task it started has finished, so
// callers can rely on it as a barrier between phases.
package async
