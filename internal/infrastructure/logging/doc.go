// Package logging provides structured logging for the portal.
//
// It wraps log/slog so every component logs with the same handler,
// level filter, and default fields (service, version).
//
// Configuration lives under the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log passwords, session tokens, or password digests.
package logging
