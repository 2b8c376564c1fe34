package handler

import (
	"errors"
	"net/http"

	"github.com/voltgrid/csms/internal/api/response"
	"github.com/voltgrid/csms/internal/core"
)

// writeServiceError maps core error types onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		response.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var nferr *core.NotFoundError
	if errors.As(err, &nferr) {
		response.WriteError(w, http.StatusNotFound, nferr.Error())
		return
	}
	response.WriteError(w, http.StatusInternalServerError, err.Error())
}

// listOrNil unwraps an optional request list. A nil pointer means "keep the
// stored value"; a present-but-empty list clears it.
func listOrNil(list *[]string) []string {
	if list == nil {
		return nil
	}
	if *list == nil {
		return []string{}
	}
	return *list
}
