// Package http implements the HTTP request handlers for the subscription
// analytics dashboard. It is a thin layer between chi routing and the
// service layer: handlers parse and validate requests, delegate to
// services, and format responses.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//	5. Consistent patterns - standardized request/response handling
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Snapshot
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Endpoints
//
// The handlers cover the dashboard surface:
//
//	GET  /api/dashboard        aggregate views over the full snapshot
//	POST /api/dashboard/query  aggregate views under a facet selection
//	GET  /api/dashboard/facets distinct facet values for filter menus
//	POST /api/records/query    filtered cleaned records for the raw table
//	GET  /api/snapshot         metadata of the cached snapshot
//	POST /api/snapshot/reload  explicit reload, optionally forced
//	POST /api/exports          write the aggregate bundle to disk
//	GET  /api/exports          list previously exported files
//	GET  /api/health[...]      health, readiness, liveness, version
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "https://api.example.com/problems/source-unavailable",
//	    "title": "Data Source Unavailable",
//	    "status": 503,
//	    "detail": "subscription source file is not accessible",
//	    "instance": "/api/dashboard"
//	}
//
// A missing source file maps to 503 with the attempted path and discovered
// candidate files attached as extensions, so operators can fix the
// configuration from the error alone.
//
// # Testing
//
// Handlers are tested with httptest against their chi routers, with the
// service layer replaced by small fakes implementing the handler-side
// interfaces.
package http
