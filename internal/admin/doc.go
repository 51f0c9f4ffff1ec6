// Package admin serves the optional operator endpoint next to the
// pathhint listener: Prometheus metrics, health and readiness probes and
// the configured route table.
package admin
