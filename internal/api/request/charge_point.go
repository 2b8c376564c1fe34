package request

import "time"

// ProvisionChargePoint carries caller intent for one provisioning pass.
// Pointer slices distinguish "field omitted, keep stored value" from an
// explicit empty list that clears it.
type ProvisionChargePoint struct {
	AuthProfile         string    `json:"auth_profile" validate:"omitempty,oneof=basic mtls_bootstrap"`
	ProtocolVersion     string    `json:"protocol_version"`
	AllowedIPs          *[]string `json:"allowed_ips"`
	AllowedCIDRs        *[]string `json:"allowed_cidrs"`
	BootstrapTTLMinutes *float64  `json:"bootstrap_ttl_minutes"`
	Secret              string    `json:"secret"`
}

type BindCertificate struct {
	Fingerprint string     `json:"fingerprint" validate:"required,fingerprint"`
	Subject     string     `json:"subject"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidTo     *time.Time `json:"valid_to"`
}

type UpdateBootstrap struct {
	Enabled      bool      `json:"enabled"`
	TTLMinutes   *float64  `json:"ttl_minutes"`
	AllowedIPs   *[]string `json:"allowed_ips"`
	AllowedCIDRs *[]string `json:"allowed_cidrs"`
}

type SetChargePointStatus struct {
	Status string `json:"status" validate:"required,oneof=active disabled"`
}
