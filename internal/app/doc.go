// Package app wires the dashboard service together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from environment (CHURN_ prefix) and an optional YAML file
//	2. Resolve the dataset path against the working and executable directories
//	3. Initialize logging and OpenTelemetry, create the dashboard instruments
//	4. Create DashboardService and HealthService
//	5. Build the chi router and the HTTP server
//
// Start loads the dataset once before accepting connections; a missing or
// malformed file is returned as an error and the process exits. The server
// and the shutdown watcher run in an errgroup, and Run cancels it on SIGINT
// or SIGTERM.
//
// # Usage
//
//	application, err := app.NewApplication(app.Options{ConfigPath: path})
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Snapshot renders the page once without starting the server.
package app
