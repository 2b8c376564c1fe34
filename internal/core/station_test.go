package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveRegistration_Found(t *testing.T) {
	db := &mockDB{}
	svc := NewStationService(db)

	stationID := "st-1"
	tenantID := "tn-1"
	ocpp := "CP1"
	db.On("QueryRow", mock.Anything, mock.Anything, []any{"cp-1"}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "cp-1"
			*dest[1].(**string) = &stationID
			*dest[2].(**string) = &tenantID
			*dest[3].(**string) = &ocpp
			*dest[4].(*string) = "ocpp1.6"
			return nil
		},
	})

	reg, err := svc.ResolveRegistration(context.Background(), "cp-1")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, "cp-1", reg.ChargePointID)
	assert.Equal(t, "st-1", reg.StationID)
	assert.Equal(t, "tn-1", reg.TenantID)
	assert.Equal(t, "CP1", reg.OCPPIdentifier)
	assert.Equal(t, "ocpp1.6", reg.ProtocolVersion)
	db.AssertExpectations(t)
}

func TestResolveRegistration_UnassignedStation(t *testing.T) {
	db := &mockDB{}
	svc := NewStationService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, []any{"cp-1"}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "cp-1"
			*dest[4].(*string) = "ocpp1.6"
			return nil
		},
	})

	reg, err := svc.ResolveRegistration(context.Background(), "cp-1")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Empty(t, reg.StationID)
	assert.Empty(t, reg.TenantID)
	assert.Empty(t, reg.OCPPIdentifier)
}

func TestResolveRegistration_NotRegistered(t *testing.T) {
	db := &mockDB{}
	svc := NewStationService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, []any{"ghost"}).Return(&mockRow{
		scanFunc: func(dest ...any) error { return pgx.ErrNoRows },
	})

	reg, err := svc.ResolveRegistration(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, reg)
}

func TestResolveRegistration_QueryError(t *testing.T) {
	db := &mockDB{}
	svc := NewStationService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, []any{"cp-1"}).Return(&mockRow{
		scanFunc: func(dest ...any) error { return errors.New("connection reset") },
	})

	_, err := svc.ResolveRegistration(context.Background(), "cp-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve registration cp-1")
}
