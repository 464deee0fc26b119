// Package httpserver exposes the registry families over a JSON HTTP API.
//
// Both policy variants of every family are mounted side by side under
// /api/registries/{family}/{variant}, and the per-variant audit trail is
// exported as CSV under /api/audit/{variant}. The server also carries the
// usual operational surface: liveness and readiness probes, drain and
// undrain hooks for rolling restarts, Prometheus metrics on a separate
// listener, and optional pprof.
package httpserver
