package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Registration pairs a charge point with its owning station and tenant on the
// relational side. OCPPIdentifier is assigned during onboarding; until then
// the device cannot be provisioned into the identity store.
type Registration struct {
	ChargePointID   string
	StationID       string
	TenantID        string
	OCPPIdentifier  string
	ProtocolVersion string
}

// StationDirectory resolves the relational-side pairing for a charge point.
type StationDirectory interface {
	ResolveRegistration(ctx context.Context, chargePointID string) (*Registration, error)
}

type StationService struct {
	db DB
}

func NewStationService(db DB) *StationService {
	return &StationService{db: db}
}

// ResolveRegistration looks up the charge point row and its station's tenant.
// Returns (nil, nil) when the charge point is not registered at all.
func (s *StationService) ResolveRegistration(ctx context.Context, chargePointID string) (*Registration, error) {
	var reg Registration
	var stationID, tenantID, ocppIdentifier *string

	err := s.db.QueryRow(ctx,
		`SELECT cp.id, cp.station_id, st.tenant_id, cp.ocpp_identifier, cp.protocol_version
		 FROM charge_points cp
		 LEFT JOIN stations st ON st.id = cp.station_id
		 WHERE cp.id = $1`, chargePointID,
	).Scan(&reg.ChargePointID, &stationID, &tenantID, &ocppIdentifier, &reg.ProtocolVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve registration %s: %w", chargePointID, err)
	}

	if stationID != nil {
		reg.StationID = *stationID
	}
	if tenantID != nil {
		reg.TenantID = *tenantID
	}
	if ocppIdentifier != nil {
		reg.OCPPIdentifier = *ocppIdentifier
	}
	return &reg, nil
}
