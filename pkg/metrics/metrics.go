package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Lockdown lifecycle metrics
	LockdownsTriggered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_triggered_total",
		Help: "Total number of accounts locked down via the panic button",
	}, []string{"mode"})
	LockdownsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_failed_total",
		Help: "Total number of lockdown attempts that failed",
	}, []string{"mode"})
	LockdownsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_rejected_total",
		Help: "Total number of panic button requests rejected by validation",
	}, []string{"cause"})

	// Notification metrics
	NotificationJobsQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lockdown_notification_jobs_queued_total",
		Help: "Total number of notification jobs accepted by the worker",
	})
	NotificationJobsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lockdown_notification_jobs_dropped_total",
		Help: "Total number of notification jobs dropped because the worker queue was full",
	})
	NotificationsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_notifications_dispatched_total",
		Help: "Total number of notification mails handed to the mail queue",
	}, []string{"category"})
	NotificationsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_notifications_skipped_total",
		Help: "Total number of notification categories skipped during recipient resolution",
	}, []string{"category", "cause"})

	// Mail queue metrics
	MailQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_mail_queued_total",
		Help: "Total number of mails enqueued for sending",
	}, []string{"host"})
	MailQueueDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_mail_queue_dropped_total",
		Help: "Total number of mails dropped before entering the queue",
	}, []string{"host"})
	MailSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_mail_sent_total",
		Help: "Total number of mails sent successfully",
	}, []string{"host"})
	MailFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_mail_failed_total",
		Help: "Total number of mails that failed after all retries",
	}, []string{"host"})
	MailRetryScheduled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_mail_retry_scheduled_total",
		Help: "Total number of mail send retries scheduled",
	}, []string{"host"})

	// Audit metrics
	AuditEventsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_audit_events_recorded_total",
		Help: "Total number of audit events durably recorded",
	}, []string{"action"})
	AuditEventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_audit_events_failed_total",
		Help: "Total number of audit events that could not be recorded",
	}, []string{"action"})
	AuditSinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lockdown_audit_sink_errors_total",
		Help: "Total number of errors forwarding audit events to sinks",
	}, []string{"sink"})

	// Session metrics
	SessionsTerminated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lockdown_sessions_terminated_total",
		Help: "Total number of session records removed during lockdowns",
	})

	// API metrics
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lockdown_api_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(
		LockdownsTriggered,
		LockdownsFailed,
		LockdownsRejected,
		NotificationJobsQueued,
		NotificationJobsDropped,
		NotificationsDispatched,
		NotificationsSkipped,
		MailQueued,
		MailQueueDropped,
		MailSent,
		MailFailed,
		MailRetryScheduled,
		AuditEventsRecorded,
		AuditEventsFailed,
		AuditSinkErrors,
		SessionsTerminated,
		RateLimited,
	)
}

// Handler returns the HTTP handler serving the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
