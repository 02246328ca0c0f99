// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the dataset, feature and rendering
// packages so the handlers stay thin and the pipeline is testable on its own.
//
// # Available Services
//
//	- DashboardService: loads the dataset, derives features and renders the page
//	- HealthService: liveness, readiness and version information
//
// # Pipeline
//
// DashboardService.Render is one synchronous pass:
//
//	dataset.Load -> features.Derive -> dashboard.BuildPage -> render.Page
//
// Nothing is cached; each call reads the file again. The outcome of every
// run is recorded through infrastructure.RecordRender under a source label
// ("http" or "snapshot").
//
// # Error Handling
//
// Services return the errors of the underlying packages unchanged or wrapped
// with %w. They are *errors.AppError values whose type the HTTP layer maps
// to a problem response:
//
//	- NOT_FOUND: the dataset file is missing
//	- PARSING, SCHEMA: the file is malformed
//	- MAPPING: a Churn label is outside Yes/No in strict mode
//	- RENDER: a chart or the page template failed
package services
