package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyCreate(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*dest[0].(*time.Time) = created
			return nil
		},
	})

	key, rawKey, err := svc.Create(context.Background(), "ops", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "csms_"))
	assert.Len(t, rawKey, len("csms_")+48)
	assert.Equal(t, rawKey[:len("csms_")+8], key.KeyPrefix)
	assert.Equal(t, "ops", key.Name)
	assert.Equal(t, []string{"*:*"}, key.Scopes)
	assert.Equal(t, created, key.CreatedAt)
	db.AssertExpectations(t)
}

func TestAPIKeyCreate_InsertError(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, errors.New("duplicate key"))

	_, _, err := svc.Create(context.Background(), "ops", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert api key")
}

func TestAPIKeyRevoke(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	db.On("Exec", mock.Anything, mock.Anything, []any{"key-1"}).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	require.NoError(t, svc.Revoke(context.Background(), "key-1"))
	db.AssertExpectations(t)
}

func TestAPIKeyRevoke_AlreadyRevoked(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	db.On("Exec", mock.Anything, mock.Anything, []any{"key-1"}).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(context.Background(), "key-1")
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
}
