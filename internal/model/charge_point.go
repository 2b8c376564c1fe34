package model

import "time"

// ChargePointIdentity is the per-device identity and authentication document.
// Exactly one exists per charge point; it is the sole source of truth for the
// gateway's admission decision. Identities are never hard-deleted, disabling
// is a status flag.
type ChargePointIdentity struct {
	ChargePointID    string      `json:"chargePointId"`
	StationID        string      `json:"stationId,omitempty"`
	TenantID         string      `json:"tenantId,omitempty"`
	Status           string      `json:"status"`
	AllowedProtocols []string    `json:"allowedProtocols,omitempty"`
	AllowedIPs       []string    `json:"allowedIps,omitempty"`
	AllowedCIDRs     []string    `json:"allowedCidrs,omitempty"`
	Auth             AuthProfile `json:"auth"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

const (
	ChargePointStatusActive   = "active"
	ChargePointStatusDisabled = "disabled"
)

// TenantUnassigned is stored when the owning tenant cannot be resolved yet.
const TenantUnassigned = "unassigned"
