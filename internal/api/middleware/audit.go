package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// auditDB is the slice of pgxpool.Pool the audit writer needs.
type auditDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger is an async audit log writer. Provisioning and trust changes
// are security-sensitive, so every mutating request is recorded.
type AuditLogger struct {
	db     auditDB
	logger zerolog.Logger
	ch     chan auditEntry
	quit   chan struct{}
	done   chan struct{}
}

type auditEntry struct {
	APIKeyID     *string
	Method       string
	Path         string
	ResourceType *string
	ResourceID   *string
	StatusCode   int
	RequestBody  json.RawMessage
}

func NewAuditLogger(pool *pgxpool.Pool, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		db:     pool,
		logger: logger,
		ch:     make(chan auditEntry, 1024),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	defer close(al.done)
	for {
		select {
		case entry := <-al.ch:
			al.write(entry)
		case <-al.quit:
			// Flush whatever is still buffered before exiting.
			for {
				select {
				case entry := <-al.ch:
					al.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (al *AuditLogger) write(entry auditEntry) {
	// context.Background: the originating request is long gone.
	_, err := al.db.Exec(
		context.Background(),
		`INSERT INTO audit_logs (api_key_id, method, path, resource_type, resource_id, status_code, request_body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		entry.APIKeyID, entry.Method, entry.Path, entry.ResourceType, entry.ResourceID, entry.StatusCode, entry.RequestBody,
	)
	if err != nil {
		al.logger.Error().Err(err).Msg("failed to write audit log")
	}
}

// Close flushes remaining entries and stops the drain goroutine. The entry
// channel is never closed, so a request racing shutdown enqueues into the
// buffer (or drops) instead of panicking.
func (al *AuditLogger) Close() {
	close(al.quit)
	<-al.done
}

// Middleware returns a chi middleware that records mutating API requests.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		// Read and re-buffer the request body.
		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		resourceType, resourceID := extractResource(r.URL.Path)

		var apiKeyID *string
		if identity := GetIdentity(r.Context()); identity != nil {
			apiKeyID = &identity.ID
		}

		var sanitizedBody json.RawMessage
		if len(bodyBytes) > 0 && json.Valid(bodyBytes) {
			sanitizedBody = sanitizeBody(bodyBytes)
		}

		select {
		case al.ch <- auditEntry{
			APIKeyID:     apiKeyID,
			Method:       r.Method,
			Path:         r.URL.Path,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			StatusCode:   sw.status,
			RequestBody:  sanitizedBody,
		}:
		default:
			al.logger.Warn().Msg("audit log buffer full, dropping entry")
		}
	})
}

// extractResource pulls the resource type and ID out of the request path.
// e.g. /api/v1/charge-points/CP1 -> type=charge-points, id=CP1
//      /api/v1/charge-points/CP1/certificates -> type=certificates, id unset
//      /api/v1/charge-points/CP1/bootstrap -> type=bootstrap, id unset
func extractResource(path string) (*string, *string) {
	parts := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(parts) == 0 {
		return nil, nil
	}

	var resourceType, resourceID *string
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i%2 == 0 {
			p := part
			resourceType = &p
			resourceID = nil
		} else {
			p := part
			resourceID = &p
		}
	}

	return resourceType, resourceID
}

// sensitiveFields are redacted from audit log bodies.
var sensitiveFields = map[string]bool{
	"secret": true, "api_key": true, "token": true, "password": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
