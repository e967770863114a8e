// Package app wires the survey dashboard together and manages its lifecycle.
//
// NewApplication builds, in order: the slog logger, the executable-relative
// paths, the row source selected by the config, OpenTelemetry providers and
// pipeline metrics, the dashboard and health services, and finally the chi
// router and HTTP server.
//
// Middleware runs in the order RequestID, RealIP, OTel, StructuredLogger,
// Recoverer, SecurityHeaders, RateLimiter, Timeout and Compress. The
// Prometheus endpoint at /metrics sits outside that chain.
//
// Run serves until SIGINT or SIGTERM and then shuts the server down within
// Server.ShutdownTimeout. Initialization errors are returned to the caller;
// the package never calls os.Exit.
package app
