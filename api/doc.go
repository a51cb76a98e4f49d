// Package api defines the HTTP request and response types of the handoffd
// trigger API.
//
// # API Overview
//
// handoffd exposes a small trigger surface for hosts that push events
// instead of streaming them:
//   - POST /v1/handoffs creates a handoff from a session and a goal
//   - POST /v1/sessions/{id}/activate delivers a pending handoff
//   - GET /v1/sessions/{id}/pending inspects a pending handoff
//   - POST /v1/events accepts a raw host event
//   - Health probes at /health, /healthz and /ready
//
// # Authentication
//
// When API keys are configured, /v1 endpoints require the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// A bearer JWT is accepted instead when JWT auth is configured.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
