// Package services implements the business logic layer of the dashboard.
// It sits between the transports (HTTP handlers, the WebSocket hub and the CLI)
// and the pure rendering code in package dashboard.
//
// # Services
//
//	- DashboardService: options, charts, records, exports and the query log
//	- HealthService: health, readiness, liveness and version reporting
//
// # Error Handling
//
// Services return *errors.AppError values so that handlers can map them onto
// RFC 7807 problems without knowing about dataset or recorder internals.
// A query that is well formed but matches nothing is not an error: the result
// carries empty series and a list of warnings instead.
package services
