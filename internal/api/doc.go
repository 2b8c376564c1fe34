// Package api provides the charge point provisioning REST API.
//
// All /api/v1 routes require an X-API-Key header validated against the
// api_keys table; mutating requests are written to the audit log.
package api
