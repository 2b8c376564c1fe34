package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/csms/internal/model"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 201, map[string]string{"id": "cp-1"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cp-1", body["id"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 404, "charge point identity cp-1 not found")

	assert.Equal(t, 404, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "charge point identity cp-1 not found", body["error"])
}

func TestIdentity_RedactsSecrets(t *testing.T) {
	identity := &model.ChargePointIdentity{
		ChargePointID: "cp-1",
		Auth: model.AuthProfile{
			Type:       model.AuthTypeBasic,
			Username:   "CP1",
			SecretHash: "deadbeef",
			SecretSalt: "cafe",
		},
	}

	out := Identity(identity)
	assert.Empty(t, out.Auth.SecretHash)
	assert.Empty(t, out.Auth.SecretSalt)
	assert.Equal(t, "CP1", out.Auth.Username)

	assert.Nil(t, Identity(nil))
}
