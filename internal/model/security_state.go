package model

import "time"

// SecurityState is the read-only trust decision the connection gateway
// consumes before admitting a charge point. An unknown device resolves to the
// safe default: basic profile, bootstrap disabled, empty allow-lists, no
// certificate requirement.
type SecurityState struct {
	ChargePointID               string           `json:"chargePointId"`
	Known                       bool             `json:"known"`
	Status                      string           `json:"status,omitempty"`
	AuthProfile                 EffectiveProfile `json:"authProfile"`
	RequiresClientCertificate   bool             `json:"requiresClientCertificate"`
	BootstrapEnabled            bool             `json:"bootstrapEnabled"`
	BootstrapExpiresAt          *time.Time       `json:"bootstrapExpiresAt,omitempty"`
	BootstrapRequireIPAllowlist bool             `json:"bootstrapRequireIpAllowlist,omitempty"`
	AllowedProtocols            []string         `json:"allowedProtocols,omitempty"`
	AllowedIPs                  []string         `json:"allowedIps"`
	AllowedCIDRs                []string         `json:"allowedCidrs"`
	CertificatesCount           int              `json:"certificatesCount"`
	ActiveFingerprints          []string         `json:"activeFingerprints,omitempty"`
}
