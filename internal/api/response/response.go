package response

import (
	"encoding/json"
	"net/http"

	"github.com/voltgrid/csms/internal/model"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Identity strips stored credential material before an identity document
// leaves the API. Hashes and salts never appear in responses.
func Identity(identity *model.ChargePointIdentity) *model.ChargePointIdentity {
	if identity == nil {
		return nil
	}
	identity.Auth.SecretHash = ""
	identity.Auth.SecretSalt = ""
	return identity
}
