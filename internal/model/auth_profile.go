package model

import "time"

// AuthProfileType is the stored credential mode of a charge point.
type AuthProfileType string

const (
	AuthTypeBasic AuthProfileType = "basic"
	AuthTypeMTLS  AuthProfileType = "mtls"
)

// EffectiveProfile is the externally visible trust level derived from an
// AuthProfile. mtls_bootstrap is never stored as a type; it is basic plus an
// active bootstrap window.
type EffectiveProfile string

const (
	ProfileBasic         EffectiveProfile = "basic"
	ProfileMTLSBootstrap EffectiveProfile = "mtls_bootstrap"
	ProfileMTLS          EffectiveProfile = "mtls"
)

// AuthProfile carries the credential material for one charge point. The
// stored form keeps all variant fields side by side for compatibility with
// existing documents; the transition methods below are the only sanctioned
// way to move between variants, and each one clears the fields the target
// variant does not own so a stale flag can never survive a transition.
type AuthProfile struct {
	Type AuthProfileType `json:"type"`

	Username      string `json:"username,omitempty"`
	HashAlgorithm string `json:"hashAlgorithm,omitempty"`
	SecretHash    string `json:"secretHash,omitempty"`
	SecretSalt    string `json:"secretSalt,omitempty"`

	AllowNoAuthBootstrap        bool       `json:"allowNoAuthBootstrap,omitempty"`
	NoAuthUntil                 *time.Time `json:"noAuthUntil,omitempty"`
	BootstrapRequireIPAllowlist bool       `json:"bootstrapRequireIpAllowlist,omitempty"`

	Certificates []ClientCertificate `json:"certificates,omitempty"`
}

// SetBasic moves the profile to the plain basic variant and clears every
// bootstrap field.
func (p *AuthProfile) SetBasic() {
	p.Type = AuthTypeBasic
	p.AllowNoAuthBootstrap = false
	p.NoAuthUntil = nil
	p.BootstrapRequireIPAllowlist = false
}

// EnableBootstrap elevates the profile into the time-boxed no-credential
// bootstrap window. The window always requires the IP allow-list.
func (p *AuthProfile) EnableBootstrap(until time.Time) {
	p.Type = AuthTypeBasic
	p.AllowNoAuthBootstrap = true
	p.NoAuthUntil = &until
	p.BootstrapRequireIPAllowlist = true
}

// DisableBootstrap resets only the in-force flag and its expiry. The
// allow-list requirement flag and the allow-lists themselves are left alone.
func (p *AuthProfile) DisableBootstrap() {
	p.AllowNoAuthBootstrap = false
	p.NoAuthUntil = nil
}

// ForceMTLS moves the profile to mutual-certificate authentication. Binding a
// certificate always lands here and unconditionally closes the bootstrap
// window.
func (p *AuthProfile) ForceMTLS() {
	p.Type = AuthTypeMTLS
	p.AllowNoAuthBootstrap = false
	p.NoAuthUntil = nil
	p.BootstrapRequireIPAllowlist = false
}

// Effective derives the externally visible profile with priority
// mtls > bootstrap > basic: a stale bootstrap flag never outranks mtls.
func (p *AuthProfile) Effective() EffectiveProfile {
	switch {
	case p.Type == AuthTypeMTLS:
		return ProfileMTLS
	case p.AllowNoAuthBootstrap:
		return ProfileMTLSBootstrap
	default:
		return ProfileBasic
	}
}
