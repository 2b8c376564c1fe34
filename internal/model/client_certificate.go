package model

import (
	"strings"
	"time"
)

// ClientCertificate is one pinned client certificate for a charge point.
// Fingerprint is stored normalized and is the dedup/lookup key.
type ClientCertificate struct {
	Fingerprint   string     `json:"fingerprint"`
	Subject       string     `json:"subject,omitempty"`
	ValidFrom     *time.Time `json:"validFrom,omitempty"`
	ValidTo       *time.Time `json:"validTo,omitempty"`
	Status        string     `json:"status"`
	ChargePointID string     `json:"chargePointId,omitempty"`
}

const (
	CertStatusActive  = "active"
	CertStatusRevoked = "revoked"
)

// NormalizeFingerprint canonicalizes a certificate fingerprint: surrounding
// whitespace trimmed, colon separators stripped, upper-cased. Idempotent.
func NormalizeFingerprint(fingerprint string) string {
	fingerprint = strings.TrimSpace(fingerprint)
	fingerprint = strings.ReplaceAll(fingerprint, ":", "")
	return strings.ToUpper(fingerprint)
}
