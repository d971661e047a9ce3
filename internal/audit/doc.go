// Package audit records the portal's activity trail in the audit_logs table.
//
// Entries are written asynchronously by a Recorder so a slow database never
// delays a request; under back-pressure entries are dropped with a warning.
package audit
