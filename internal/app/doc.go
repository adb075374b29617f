// Package app wires the avocado dashboard together and manages its lifecycle.
//
// New builds every component from a loaded configuration: OpenTelemetry,
// the dataset, the query log, the WebSocket hub, the services, the cron
// scheduler and the chi router. NewApplication additionally loads the
// configuration and the logger, and is what cmd/avocado-dashboard calls.
//
// # Shutdown
//
// Stop notifies WebSocket clients, drains the HTTP server and the scheduler
// in parallel, stops the hub, then closes the query log and flushes
// telemetry. Errors from every step are joined and returned.
package app
