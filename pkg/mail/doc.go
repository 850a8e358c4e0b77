// Package mail delivers notification emails over SMTP. Messages go through
// an asynchronous queue that supports per-item send delays and retries
// failed deliveries with exponential backoff.
package mail
