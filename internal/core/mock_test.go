package core

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/voltgrid/csms/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock StationDirectory ----------

type mockStations struct {
	mock.Mock
}

func (m *mockStations) ResolveRegistration(ctx context.Context, chargePointID string) (*Registration, error) {
	args := m.Called(ctx, chargePointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Registration), args.Error(1)
}

// ---------- Fake identity store ----------

// fakeIdentityStore is an in-memory IdentityStore. Documents are deep-copied
// through JSON on the way in and out so tests never alias stored state.
type fakeIdentityStore struct {
	docs      map[string]*model.ChargePointIdentity
	getErr    error
	updateErr error
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{docs: make(map[string]*model.ChargePointIdentity)}
}

func (f *fakeIdentityStore) Get(_ context.Context, chargePointID string) (*model.ChargePointIdentity, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[chargePointID]
	if !ok {
		return nil, nil
	}
	return copyIdentity(doc), nil
}

func (f *fakeIdentityStore) Update(_ context.Context, chargePointID string, fn func(*model.ChargePointIdentity) (*model.ChargePointIdentity, error)) (*model.ChargePointIdentity, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	var current *model.ChargePointIdentity
	if doc, ok := f.docs[chargePointID]; ok {
		current = copyIdentity(doc)
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	f.docs[chargePointID] = copyIdentity(next)
	return next, nil
}

func (f *fakeIdentityStore) Key(chargePointID string) string {
	return "chargers:" + chargePointID
}

func copyIdentity(doc *model.ChargePointIdentity) *model.ChargePointIdentity {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out model.ChargePointIdentity
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}
