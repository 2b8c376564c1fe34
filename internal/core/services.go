package core

import (
	"github.com/rs/zerolog"
)

type Services struct {
	Station     *StationService
	ChargePoint *ChargePointIdentityService
	APIKey      *APIKeyService
}

func NewServices(db DB, store IdentityStore, bootstrap BootstrapConfig, logger zerolog.Logger) *Services {
	stations := NewStationService(db)
	return &Services{
		Station:     stations,
		ChargePoint: NewChargePointIdentityService(store, stations, bootstrap, logger),
		APIKey:      NewAPIKeyService(db),
	}
}
