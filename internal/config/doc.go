// Package config provides centralized configuration for the feedback
// exporter binaries.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Process environment variables (highest priority)
//	2. A .env file in the working directory
//	3. config.yaml or configs/config.yaml
//	4. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CXF_<SECTION>_<FIELD>:
//
//	CXF_SERVER_PORT=8080
//	CXF_SHEETS_MODE=rest
//	CXF_SHEETS_API_KEY=...
//	CXF_SHEETS_RANGE=2026!A:L
//	CXF_EXPORT_CENTERS=TEP,Buwelo,WNS,Concentrix
//	CXF_LOGGING_LEVEL=debug
//
// REACT_APP_SHEETS_API_KEY is honoured when CXF_SHEETS_API_KEY is unset.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// Default returns a valid configuration that needs no environment or files.
package config
