// Package storage provides persistence for the lockdown service: user,
// group, tenant and audit records in MySQL via GORM, and live session
// records in Redis.
package storage
