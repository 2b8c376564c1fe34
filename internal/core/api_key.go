package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/voltgrid/csms/internal/model"
	"github.com/voltgrid/csms/internal/platform"
)

const apiKeyTokenPrefix = "csms_"

// APIKeyService manages back-office API keys.
type APIKeyService struct {
	db DB
}

func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key, stores its hash, and returns the model
// along with the raw key string. The raw key must be shown to the operator
// exactly once.
func (s *APIKeyService) Create(ctx context.Context, name string, scopes []string) (*model.APIKey, string, error) {
	rawKey := platform.NewToken(apiKeyTokenPrefix)

	id := platform.NewID()
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:len(apiKeyTokenPrefix)+8]

	if scopes == nil {
		scopes = []string{"*:*"}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at) VALUES ($1, $2, $3, $4, $5, now())`,
		id, name, keyHash, keyPrefix, scopes,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	key := &model.APIKey{
		ID:        id,
		Name:      name,
		KeyPrefix: keyPrefix,
		Scopes:    scopes,
	}
	err = s.db.QueryRow(ctx, `SELECT created_at FROM api_keys WHERE id = $1`, id).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get api key created_at: %w", err)
	}

	return key, rawKey, nil
}

// Revoke marks a key revoked. Revoked keys stop authenticating immediately
// but stay in the table for the audit trail.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Resource: "api key", ID: id}
	}
	return nil
}
