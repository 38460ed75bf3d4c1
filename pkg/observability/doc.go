// Package observability turns engine hooks into logs and Prometheus metrics.
//
// Hooks are plain functions on domain.MergeHooks, so the engine has no
// dependency on any metrics backend. Combine fans one event out to several
// hook sets, e.g. metrics and logging together.
package observability
