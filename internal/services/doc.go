// Package services implements the business logic layer of the survey
// dashboard. It sits between the HTTP handlers or the CLI and the
// survey pipeline, so both front ends run exactly the same steps.
//
// # Pipeline
//
// Every dashboard request is one synchronous run:
//
//	fetch (sheets.RowSource) -> clean (survey.Clean) -> aggregate (survey.Aggregate, per chart)
//
// and, for image endpoints, a final render step. Nothing is cached between
// runs; the spreadsheet is the source of truth and is read again every time.
//
// # Available Services
//
//   - DashboardService: runs the pipeline for every configured chart
//   - HealthService: liveness, readiness (the source answers) and version
//
// # Error Handling
//
// Fetch and cleaning errors abort the run and are returned unchanged so the
// HTTP layer can map them with errors.As. Aggregation errors are per chart:
// they are stored on that chart's render.ChartData and the other charts
// are still built. Unknown chart ids return an error matching
// ErrChartNotFound.
//
// # Testing
//
// Services are tested against a mocked RowSource:
//
//	src := new(mockRowSource)
//	src.On("Fetch", mock.Anything).Return(raw, nil)
//	svc := NewDashboardService(src, cfg.Dashboard, nil, nil, logger)
package services
