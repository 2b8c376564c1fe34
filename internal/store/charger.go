package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/voltgrid/csms/internal/model"
)

// DefaultKeyPrefix namespaces identity documents in the shared store.
const DefaultKeyPrefix = "chargers"

// maxUpdateRetries bounds optimistic-lock retries when concurrent writers
// touch the same identity key.
const maxUpdateRetries = 5

// ErrConflict is returned when an Update loses the conditional-write race
// maxUpdateRetries times in a row.
var ErrConflict = errors.New("identity update conflict")

// ChargerStore persists ChargePointIdentity documents as JSON values keyed
// <prefix>:<chargePointId>. Writes always replace the full document; there
// are no partial-field updates.
type ChargerStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

func NewChargerStore(client *redis.Client, prefix string, logger zerolog.Logger) *ChargerStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ChargerStore{client: client, prefix: prefix, logger: logger}
}

// Key returns the store key for a charge point id.
func (s *ChargerStore) Key(chargePointID string) string {
	return s.prefix + ":" + chargePointID
}

// Get loads one identity. A missing key and a malformed payload both return
// (nil, nil): a corrupt record must never take the admission path down.
// Connectivity errors propagate for the caller's retry policy.
func (s *ChargerStore) Get(ctx context.Context, chargePointID string) (*model.ChargePointIdentity, error) {
	raw, err := s.client.Get(ctx, s.Key(chargePointID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %s: %w", chargePointID, err)
	}

	identity, ok := decodeIdentity(raw)
	if !ok {
		s.logger.Warn().Str("charge_point_id", chargePointID).Msg("malformed identity document, treating as absent")
		return nil, nil
	}
	return identity, nil
}

// Update runs a conditional read-modify-write on one identity key. fn
// receives the current document (nil when absent) and returns the full
// replacement. The read and write are wrapped in WATCH/MULTI so a concurrent
// writer invalidates the EXEC and the transform is retried on a fresh read
// instead of silently discarding the other writer's changes.
func (s *ChargerStore) Update(ctx context.Context, chargePointID string, fn func(current *model.ChargePointIdentity) (*model.ChargePointIdentity, error)) (*model.ChargePointIdentity, error) {
	key := s.Key(chargePointID)
	var result *model.ChargePointIdentity

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		var current *model.ChargePointIdentity
		if err == nil {
			identity, ok := decodeIdentity(raw)
			if !ok {
				s.logger.Warn().Str("charge_point_id", chargePointID).Msg("malformed identity document, treating as absent")
			} else {
				current = identity
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode identity: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("update identity %s: %w", chargePointID, err)
	}

	return nil, fmt.Errorf("update identity %s: %w", chargePointID, ErrConflict)
}

// decodeIdentity parses a stored document. Malformed payloads and documents
// missing the primary key decode as absent.
func decodeIdentity(raw []byte) (*model.ChargePointIdentity, bool) {
	var identity model.ChargePointIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false
	}
	if identity.ChargePointID == "" {
		return nil, false
	}
	return &identity, true
}
