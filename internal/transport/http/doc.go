// Package http contains the HTTP handlers of the avocado dashboard.
//
// Handlers are thin: they read and validate request parameters, call the
// service layer and render the result. Every JSON success response uses the
// envelope
//
//	{"status": "success", "data": ...}
//
// and every failure is rendered as an RFC 7807 problem by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard/charts",
//	    "error_code": "VALIDATION_FAILED"
//	}
//
// Filter problems that can be parsed but match nothing (an unknown region, a
// start date after the end date) are not errors: the handlers answer 200 with
// empty series and a warnings array.
//
// # Routes
//
//	GET  /api/dashboard/options   dropdown entries, date bounds and defaults
//	GET  /api/dashboard/charts    price and volume figures for a filter
//	GET  /api/dashboard/records   the filtered rows
//	GET  /api/dashboard/export    CSV or XLSX download of the filtered rows
//	GET  /api/dashboard/queries   recent entries of the query log
//	GET  /api/stats               hub and dataset statistics
//	POST /api/client-log          browser log forwarding
//	GET  /                        dashboard page
//	GET  /static/*                embedded assets
package http
