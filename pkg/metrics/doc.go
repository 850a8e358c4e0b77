// Package metrics defines the Prometheus instrumentation for the lockdown
// service.
package metrics
