package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/voltgrid/csms/internal/crypto"
	"github.com/voltgrid/csms/internal/model"
)

// IdentityStore is the keyed document store holding one identity per charge
// point. Update must be a conditional read-modify-write: fn sees the current
// document (nil when absent) and returns the full replacement.
type IdentityStore interface {
	Get(ctx context.Context, chargePointID string) (*model.ChargePointIdentity, error)
	Update(ctx context.Context, chargePointID string, fn func(current *model.ChargePointIdentity) (*model.ChargePointIdentity, error)) (*model.ChargePointIdentity, error)
	Key(chargePointID string) string
}

// BootstrapConfig is the process-wide bootstrap window policy, fixed at
// construction time.
type BootstrapConfig struct {
	DefaultMinutes int
	MaxMinutes     int
}

// resolveTTL turns a caller-supplied TTL into the effective window duration:
// floored to an integer of at least 1 minute, defaulted when absent or
// non-finite, and always clamped to the configured maximum.
func (c BootstrapConfig) resolveTTL(requested *float64) time.Duration {
	minutes := c.DefaultMinutes
	if requested != nil && !math.IsNaN(*requested) && !math.IsInf(*requested, 0) {
		// Clamp while still a float: a huge finite value would overflow the
		// int conversion before the integer clamp could catch it.
		v := math.Floor(*requested)
		if v < 1 {
			v = 1
		}
		if v > float64(c.MaxMinutes) {
			v = float64(c.MaxMinutes)
		}
		minutes = int(v)
	}
	if minutes > c.MaxMinutes {
		minutes = c.MaxMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// ChargePointIdentityService owns the identity and trust record of every
// charge point: provisioning, certificate binding, the bootstrap window, and
// the read-only security state the connection gateway consumes.
type ChargePointIdentityService struct {
	store     IdentityStore
	stations  StationDirectory
	bootstrap BootstrapConfig
	logger    zerolog.Logger
	now       func() time.Time
}

func NewChargePointIdentityService(store IdentityStore, stations StationDirectory, bootstrap BootstrapConfig, logger zerolog.Logger) *ChargePointIdentityService {
	return &ChargePointIdentityService{
		store:     store,
		stations:  stations,
		bootstrap: bootstrap,
		logger:    logger,
		now:       time.Now,
	}
}

// ProvisionParams is the caller intent for one provisioning pass. Nil slice
// and pointer fields mean "keep what is stored"; non-nil values fully replace,
// including an explicit empty list.
type ProvisionParams struct {
	ChargePointID       string
	Profile             model.EffectiveProfile // empty means inherit from the stored record
	ProtocolVersion     string
	AllowedIPs          []string
	AllowedCIDRs        []string
	BootstrapTTLMinutes *float64
	Secret              string // plaintext credential; empty keeps the stored hash
}

// Provision creates or updates the identity record for a charge point from
// the relational registration plus caller intent. A device without an
// assigned OCPP identifier is a deliberate no-op (nil, nil), logged rather
// than raised: it is an expected pre-provisioning state, not a caller error.
func (s *ChargePointIdentityService) Provision(ctx context.Context, p ProvisionParams) (*model.ChargePointIdentity, error) {
	reg, err := s.stations.ResolveRegistration(ctx, p.ChargePointID)
	if err != nil {
		return nil, err
	}
	if reg == nil || reg.OCPPIdentifier == "" {
		s.logger.Info().
			Str("charge_point_id", p.ChargePointID).
			Msg("provision skipped: no ocpp identifier assigned")
		return nil, nil
	}

	tenantID := model.TenantUnassigned
	if reg.TenantID != "" {
		tenantID = reg.TenantID
	}

	var secretHash, secretSalt string
	if p.Secret != "" {
		secretHash, secretSalt, err = crypto.HashSecret(p.Secret)
		if err != nil {
			return nil, fmt.Errorf("hash credential: %w", err)
		}
	}

	protocolVersion := p.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = reg.ProtocolVersion
	}

	now := s.now()
	var resolved model.EffectiveProfile

	updated, err := s.store.Update(ctx, p.ChargePointID, func(current *model.ChargePointIdentity) (*model.ChargePointIdentity, error) {
		identity := current
		if identity == nil {
			identity = &model.ChargePointIdentity{
				ChargePointID: p.ChargePointID,
				Status:        model.ChargePointStatusActive,
				Auth:          model.AuthProfile{Type: model.AuthTypeBasic},
			}
		}
		identity.StationID = reg.StationID
		identity.TenantID = tenantID

		if protocolVersion != "" {
			identity.AllowedProtocols = model.NormalizeList(append(identity.AllowedProtocols, protocolVersion))
		}

		if p.AllowedIPs != nil {
			identity.AllowedIPs = model.NormalizeList(p.AllowedIPs)
		} else {
			identity.AllowedIPs = model.NormalizeList(identity.AllowedIPs)
		}
		if p.AllowedCIDRs != nil {
			identity.AllowedCIDRs = model.NormalizeList(p.AllowedCIDRs)
		} else {
			identity.AllowedCIDRs = model.NormalizeList(identity.AllowedCIDRs)
		}

		// Explicit profile request wins; otherwise inherit from the stored
		// bootstrap flag.
		resolved = p.Profile
		if resolved == "" {
			if identity.Auth.AllowNoAuthBootstrap {
				resolved = model.ProfileMTLSBootstrap
			} else {
				resolved = model.ProfileBasic
			}
		}

		switch {
		case resolved == model.ProfileMTLSBootstrap:
			if len(identity.AllowedIPs) == 0 && len(identity.AllowedCIDRs) == 0 {
				return nil, &ValidationError{Reason: "bootstrap allow-list required"}
			}
			identity.Auth.EnableBootstrap(now.Add(s.bootstrap.resolveTTL(p.BootstrapTTLMinutes)))
		case p.Profile != "":
			// Explicit basic request clears every bootstrap field.
			identity.Auth.SetBasic()
		case identity.Auth.Type == model.AuthTypeMTLS:
			// No request, certificate-based stays certificate-based.
			resolved = model.ProfileMTLS
		default:
			identity.Auth.Type = model.AuthTypeBasic
		}

		identity.Auth.Username = reg.OCPPIdentifier
		if secretHash != "" {
			identity.Auth.SecretHash = secretHash
			identity.Auth.SecretSalt = secretSalt
			identity.Auth.HashAlgorithm = crypto.HashAlgorithmPBKDF2
		}
		identity.UpdatedAt = now
		return identity, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("charge_point_id", p.ChargePointID).
		Str("auth_profile", string(resolved)).
		Str("store_key", s.store.Key(p.ChargePointID)).
		Msg("charge point provisioned")
	return updated, nil
}

// BindCertificateParams describes one client certificate presented for
// pinning.
type BindCertificateParams struct {
	Fingerprint string
	Subject     string
	ValidFrom   *time.Time
	ValidTo     *time.Time
}

// BindCertificate pins a client certificate on an existing identity. An entry
// with the same normalized fingerprint is replaced; unrelated certificates
// are preserved. The profile is forced to mtls and the bootstrap window is
// unconditionally closed.
func (s *ChargePointIdentityService) BindCertificate(ctx context.Context, chargePointID string, p BindCertificateParams) (*model.ChargePointIdentity, error) {
	fingerprint := model.NormalizeFingerprint(p.Fingerprint)
	if fingerprint == "" {
		return nil, &ValidationError{Reason: "certificate fingerprint required"}
	}

	now := s.now()
	updated, err := s.store.Update(ctx, chargePointID, func(current *model.ChargePointIdentity) (*model.ChargePointIdentity, error) {
		if current == nil {
			return nil, &NotFoundError{Resource: "charge point identity", ID: chargePointID}
		}

		validFrom := p.ValidFrom
		if validFrom == nil {
			from := now
			validFrom = &from
		}

		kept := make([]model.ClientCertificate, 0, len(current.Auth.Certificates)+1)
		for _, cert := range current.Auth.Certificates {
			if model.NormalizeFingerprint(cert.Fingerprint) != fingerprint {
				kept = append(kept, cert)
			}
		}
		kept = append(kept, model.ClientCertificate{
			Fingerprint:   fingerprint,
			Subject:       p.Subject,
			ValidFrom:     validFrom,
			ValidTo:       p.ValidTo,
			Status:        model.CertStatusActive,
			ChargePointID: chargePointID,
		})

		current.Auth.Certificates = kept
		current.Auth.ForceMTLS()
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("charge_point_id", chargePointID).
		Str("fingerprint", fingerprint).
		Msg("client certificate bound")
	return updated, nil
}

// BootstrapParams updates the time-boxed no-credential window. Nil slices
// reuse the stored allow-lists.
type BootstrapParams struct {
	Enabled      bool
	TTLMinutes   *float64
	AllowedIPs   []string
	AllowedCIDRs []string
}

// UpdateBootstrap opens or closes the bootstrap window on an existing
// identity. Enabling requires a non-empty effective allow-list; disabling
// resets only the in-force flag and its expiry.
func (s *ChargePointIdentityService) UpdateBootstrap(ctx context.Context, chargePointID string, p BootstrapParams) (*model.ChargePointIdentity, error) {
	now := s.now()
	updated, err := s.store.Update(ctx, chargePointID, func(current *model.ChargePointIdentity) (*model.ChargePointIdentity, error) {
		if current == nil {
			return nil, &NotFoundError{Resource: "charge point identity", ID: chargePointID}
		}

		if !p.Enabled {
			current.Auth.DisableBootstrap()
			current.UpdatedAt = now
			return current, nil
		}

		ips := current.AllowedIPs
		if p.AllowedIPs != nil {
			ips = p.AllowedIPs
		}
		cidrs := current.AllowedCIDRs
		if p.AllowedCIDRs != nil {
			cidrs = p.AllowedCIDRs
		}
		ips = model.NormalizeList(ips)
		cidrs = model.NormalizeList(cidrs)

		if len(ips) == 0 && len(cidrs) == 0 {
			return nil, &ValidationError{Reason: "bootstrap allow-list required"}
		}

		current.AllowedIPs = ips
		current.AllowedCIDRs = cidrs
		current.Auth.EnableBootstrap(now.Add(s.bootstrap.resolveTTL(p.TTLMinutes)))
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("charge_point_id", chargePointID).
		Bool("enabled", p.Enabled).
		Msg("bootstrap window updated")
	return updated, nil
}

// GetSecurityState computes the read-only trust decision for a connecting
// charge point. An unknown device resolves to the safe default and never
// errors; store connectivity failures propagate so the gateway can fail
// closed.
func (s *ChargePointIdentityService) GetSecurityState(ctx context.Context, chargePointID string) (*model.SecurityState, error) {
	state := &model.SecurityState{
		ChargePointID: chargePointID,
		AuthProfile:   model.ProfileBasic,
		AllowedIPs:    []string{},
		AllowedCIDRs:  []string{},
	}

	identity, err := s.store.Get(ctx, chargePointID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return state, nil
	}

	state.Known = true
	state.Status = identity.Status
	state.AuthProfile = identity.Auth.Effective()
	state.RequiresClientCertificate = state.AuthProfile != model.ProfileBasic
	state.BootstrapEnabled = state.AuthProfile == model.ProfileMTLSBootstrap
	if state.BootstrapEnabled && identity.Auth.NoAuthUntil != nil {
		expires := *identity.Auth.NoAuthUntil
		state.BootstrapExpiresAt = &expires
	}
	state.BootstrapRequireIPAllowlist = identity.Auth.BootstrapRequireIPAllowlist
	state.AllowedProtocols = identity.AllowedProtocols
	if ips := model.NormalizeList(identity.AllowedIPs); ips != nil {
		state.AllowedIPs = ips
	}
	if cidrs := model.NormalizeList(identity.AllowedCIDRs); cidrs != nil {
		state.AllowedCIDRs = cidrs
	}

	state.CertificatesCount = len(identity.Auth.Certificates)
	for _, cert := range identity.Auth.Certificates {
		if cert.Status == model.CertStatusActive {
			state.ActiveFingerprints = append(state.ActiveFingerprints, model.NormalizeFingerprint(cert.Fingerprint))
		}
	}

	return state, nil
}

// VerifyCredential checks a presented basic credential against the stored
// hash. Unknown, disabled, and mtls-only identities never verify.
func (s *ChargePointIdentityService) VerifyCredential(ctx context.Context, chargePointID, username, secret string) (bool, error) {
	identity, err := s.store.Get(ctx, chargePointID)
	if err != nil {
		return false, err
	}
	if identity == nil || identity.Status != model.ChargePointStatusActive {
		return false, nil
	}
	auth := identity.Auth
	if auth.Type == model.AuthTypeMTLS {
		return false, nil
	}
	if auth.Username == "" || username != auth.Username {
		return false, nil
	}
	return crypto.VerifySecret(auth.HashAlgorithm, auth.SecretHash, auth.SecretSalt, secret), nil
}

// Get returns the identity record for back-office reads.
func (s *ChargePointIdentityService) Get(ctx context.Context, chargePointID string) (*model.ChargePointIdentity, error) {
	identity, err := s.store.Get(ctx, chargePointID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, &NotFoundError{Resource: "charge point identity", ID: chargePointID}
	}
	return identity, nil
}

// SetStatus enables or disables a charge point. Disabling is a flag, never a
// delete.
func (s *ChargePointIdentityService) SetStatus(ctx context.Context, chargePointID, status string) (*model.ChargePointIdentity, error) {
	if status != model.ChargePointStatusActive && status != model.ChargePointStatusDisabled {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid status %q", status)}
	}

	now := s.now()
	updated, err := s.store.Update(ctx, chargePointID, func(current *model.ChargePointIdentity) (*model.ChargePointIdentity, error) {
		if current == nil {
			return nil, &NotFoundError{Resource: "charge point identity", ID: chargePointID}
		}
		current.Status = status
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("charge_point_id", chargePointID).
		Str("status", status).
		Msg("charge point status updated")
	return updated, nil
}
