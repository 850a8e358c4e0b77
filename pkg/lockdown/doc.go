// Package lockdown implements the emergency account lockdown feature.
// An administrator triggers it against a compromised account; the account
// is deactivated, its credential rotated to an unrecoverable hash, all of
// its sessions are terminated and an audit event is recorded. A background
// worker then fans out staggered notifications to the affected user, the
// administrator group and the configured security contact.
package lockdown
