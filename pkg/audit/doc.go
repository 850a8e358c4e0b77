// Package audit provides the audit trail for the lockdown service.
// Events are durably recorded through a Store and mirrored best-effort to
// configured sinks (structured log, Kafka).
package audit
