// Package http implements the HTTP handlers of the feedback export server.
// Handlers are thin: they decode and validate requests, call the export or
// health service, and format the response.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → ExportService
//	                                              ↓
//	HTTP Response ← Handler ← Report ←───────────┘
//
// # Routes
//
//	GET  /                      operator form
//	GET  /recent                recent feedback page
//	POST /api/exports           run one export; artifacts in the response
//	GET  /api/exports/{format}  csv or xlsx as an attachment
//	GET  /api/feedback/recent   rows of the last N days
//	GET  /api/centers           selectable call centers
//	POST /api/logs              browser-side events
//	GET  /ws                    submission status feed
//
// # Error Handling
//
// Errors are rendered as RFC 7807 problem details by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/feedback/schema",
//	    "title": "Feedback Sheet Layout Not Recognised",
//	    "status": 422,
//	    "detail": "The feedback sheet has no call center column.",
//	    "instance": "/api/exports"
//	}
//
// An export that matched no rows is not an error; it answers 200 with
// state "empty".
package http
