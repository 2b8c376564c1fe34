package gateway

import (
	"context"
	"net/netip"
	"time"

	"github.com/rs/zerolog"

	"github.com/voltgrid/csms/internal/model"
)

// SecurityDecider resolves the trust posture of a connecting charge point.
type SecurityDecider interface {
	GetSecurityState(ctx context.Context, chargePointID string) (*model.SecurityState, error)
	VerifyCredential(ctx context.Context, chargePointID, username, secret string) (bool, error)
}

// ConnAttempt describes one inbound connection before admission.
type ConnAttempt struct {
	ChargePointID  string
	RemoteIP       netip.Addr
	Username       string
	Password       string
	HasCredentials bool
	TLSFingerprint string // SHA-256 of the presented client certificate, empty when none
}

// Decision is the admission outcome. Reason is logged, never sent to the
// device.
type Decision struct {
	Allow            bool
	Profile          model.EffectiveProfile
	Reason           string
	AllowedProtocols []string
}

// Admitter gates charge point connections on the security state of the
// device. A resolver failure always denies: the gateway fails closed.
type Admitter struct {
	decider SecurityDecider
	logger  zerolog.Logger
	now     func() time.Time
}

func NewAdmitter(decider SecurityDecider, logger zerolog.Logger) *Admitter {
	return &Admitter{
		decider: decider,
		logger:  logger,
		now:     time.Now,
	}
}

// Admit decides whether a connection attempt may proceed.
func (a *Admitter) Admit(ctx context.Context, attempt ConnAttempt) (Decision, error) {
	state, err := a.decider.GetSecurityState(ctx, attempt.ChargePointID)
	if err != nil {
		a.logger.Error().Err(err).
			Str("charge_point_id", attempt.ChargePointID).
			Msg("security state unavailable, denying connection")
		return Decision{Reason: "security state unavailable"}, err
	}

	decision := Decision{
		Profile:          state.AuthProfile,
		AllowedProtocols: state.AllowedProtocols,
	}

	if !state.Known {
		decision.Reason = "unknown charge point"
		return decision, nil
	}
	if state.Status != model.ChargePointStatusActive {
		decision.Reason = "charge point disabled"
		return decision, nil
	}

	switch state.AuthProfile {
	case model.ProfileMTLS:
		if a.certificatePinned(state, attempt) {
			decision.Allow = true
			decision.Reason = "client certificate pinned"
		} else {
			decision.Reason = "client certificate required"
		}

	case model.ProfileMTLSBootstrap:
		switch {
		case a.certificatePinned(state, attempt):
			decision.Allow = true
			decision.Reason = "client certificate pinned"
		case attempt.HasCredentials:
			ok, err := a.decider.VerifyCredential(ctx, attempt.ChargePointID, attempt.Username, attempt.Password)
			if err != nil {
				return Decision{Reason: "credential check unavailable"}, err
			}
			if ok {
				decision.Allow = true
				decision.Reason = "basic credential verified"
			} else {
				decision.Reason = "invalid credentials"
			}
		default:
			decision.Allow, decision.Reason = a.bootstrapAdmit(state, attempt)
		}

	default:
		ok, err := a.decider.VerifyCredential(ctx, attempt.ChargePointID, attempt.Username, attempt.Password)
		if err != nil {
			return Decision{Reason: "credential check unavailable"}, err
		}
		if ok {
			decision.Allow = true
			decision.Reason = "basic credential verified"
		} else {
			decision.Reason = "invalid credentials"
		}
	}

	return decision, nil
}

// bootstrapAdmit evaluates the no-credential path: the window must not have
// expired and, when required, the remote address must sit on the allow-list.
func (a *Admitter) bootstrapAdmit(state *model.SecurityState, attempt ConnAttempt) (bool, string) {
	if state.BootstrapExpiresAt == nil || !a.now().Before(*state.BootstrapExpiresAt) {
		return false, "bootstrap window expired"
	}
	if state.BootstrapRequireIPAllowlist && !ipAllowed(attempt.RemoteIP, state.AllowedIPs, state.AllowedCIDRs) {
		return false, "remote address not on bootstrap allow-list"
	}
	return true, "bootstrap window open"
}

func (a *Admitter) certificatePinned(state *model.SecurityState, attempt ConnAttempt) bool {
	fingerprint := model.NormalizeFingerprint(attempt.TLSFingerprint)
	if fingerprint == "" {
		return false
	}
	for _, pinned := range state.ActiveFingerprints {
		if pinned == fingerprint {
			return true
		}
	}
	return false
}

// ipAllowed matches an address against exact entries and CIDR ranges.
// Malformed allow-list entries are skipped rather than matched.
func ipAllowed(addr netip.Addr, ips, cidrs []string) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, entry := range ips {
		allowed, err := netip.ParseAddr(entry)
		if err != nil {
			continue
		}
		if allowed.Unmap() == addr {
			return true
		}
	}
	for _, entry := range cidrs {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			continue
		}
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
