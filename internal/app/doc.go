// Package app provides application initialization and lifecycle management
// for the Prerana Analytics server. It wires configuration, logging,
// observability, the dataset loader, the result cache and the three analysis
// engines, then exposes them over HTTP.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Create the dataset loader, result cache and risk scorer
//	4. Initialize the gap, fraud and migration engines
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server and background scheduler
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure:
//
//	- Active requests are completed
//	- Scheduled sweeps and the cache sweeper are stopped
//	- Final traces and metrics are flushed
//
// # Error Handling
//
// All initialization errors are returned to the caller for proper
// handling. The app does not call os.Exit() directly, allowing
// the main function to control the exit process.
package app
