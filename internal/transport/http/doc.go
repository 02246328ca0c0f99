// Package http implements the HTTP handlers of the dashboard service. Handlers
// are a thin layer over the services package: they set headers, call one
// service method and write the result.
//
// # Routes
//
//	GET /                  DashboardHandler.ServePage, the HTML dashboard
//	GET /api/health        HealthHandler.HealthCheck
//	GET /api/health/live   HealthHandler.LivenessCheck
//	GET /api/health/ready  HealthHandler.ReadinessCheck, 503 when the dataset is missing
//	GET /api/version       HealthHandler.Version
//	GET /metrics           MetricsHandler, Prometheus exposition format
//
// # Error Handling
//
// Failures are written by errors.ErrorHandler as RFC 7807 problem documents
// (application/problem+json):
//
//	{
//	    "type": "/errors/data/corrupted",
//	    "title": "Dataset Corrupted",
//	    "status": 500,
//	    "detail": "cannot parse tenure at row 5",
//	    "instance": "/"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a chi router; the dashboard
// renderer is replaced with a testify mock where the pipeline itself is not
// under test.
package http
