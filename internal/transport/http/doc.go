// Package http implements the HTTP handlers of the survey dashboard. Handlers
// stay thin: they parse the route, call the services layer and format the
// result. Every error goes through apierrors.ErrorHandler so API clients
// always receive RFC 7807 problem documents:
//
//	{
//	    "type": "/errors/source/unavailable",
//	    "title": "Survey Source Unavailable",
//	    "status": 502,
//	    "detail": "fetch google sheet 1AbC: ...",
//	    "instance": "/api/dashboard",
//	    "trace_id": "6f1c..."
//	}
//
// # Routes
//
//	GET /                          HTML dashboard with inline SVG charts
//	GET /charts/{chartFile}        one chart as <id>.svg or <id>.png
//	GET /api/dashboard             every chart's distribution or error
//	GET /api/charts                configured charts
//	GET /api/charts/{chartID}      one chart's distribution
//	GET /api/table                 the cleaned survey table
//	GET /api/export.xlsx           workbook with native Excel charts
//	GET /api/export.csv            distributions as CSV
//	GET /api/health[/live|/ready]  health probes
//	GET /api/version               build information
//
// # Testing
//
// Handlers are tested with httptest against a mocked DashboardServiceInterface.
package http
