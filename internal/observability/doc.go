// Package observability provides structured logging and Prometheus metrics
// for the climate API.
//
// Metrics are registered on a caller-supplied prometheus.Registerer.
package observability
