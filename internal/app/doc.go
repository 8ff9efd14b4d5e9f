// Package app wires the feedback export server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML, .env and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Build the feedback source selected by sheets.mode
//	4. Start the status hub and create the export and health services
//	5. Set up the chi router, middleware and handlers
//	6. Start the HTTP server
//
// # Usage
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
// Run waits for SIGINT or SIGTERM, then drains in-flight requests, closes
// websocket clients and flushes telemetry. Errors are returned to the
// caller; the package never calls os.Exit.
package app
