// Package logger wraps zerolog with the structured fields used across the
// gateway client: service, operation, request and correlation IDs, retry
// counts, and circuit state. A global logger backs the package-level
// functions; components obtain tagged child loggers via Get or
// WithComponent.
package logger
