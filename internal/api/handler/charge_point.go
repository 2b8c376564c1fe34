package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voltgrid/csms/internal/api/request"
	"github.com/voltgrid/csms/internal/api/response"
	"github.com/voltgrid/csms/internal/core"
	"github.com/voltgrid/csms/internal/model"
)

type ChargePoint struct {
	svc *core.ChargePointIdentityService
}

func NewChargePoint(svc *core.ChargePointIdentityService) *ChargePoint {
	return &ChargePoint{svc: svc}
}

// Provision creates or refreshes the identity document for a charge point.
// A device without an assigned OCPP identifier is accepted but not
// provisioned.
func (h *ChargePoint) Provision(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ProvisionChargePoint
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := h.svc.Provision(r.Context(), core.ProvisionParams{
		ChargePointID:       id,
		Profile:             model.EffectiveProfile(req.AuthProfile),
		ProtocolVersion:     req.ProtocolVersion,
		AllowedIPs:          listOrNil(req.AllowedIPs),
		AllowedCIDRs:        listOrNil(req.AllowedCIDRs),
		BootstrapTTLMinutes: req.BootstrapTTLMinutes,
		Secret:              req.Secret,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if identity == nil {
		response.WriteJSON(w, http.StatusAccepted, map[string]any{
			"provisioned": false,
			"reason":      "no ocpp identifier assigned",
		})
		return
	}
	response.WriteJSON(w, http.StatusOK, response.Identity(identity))
}

// BindCertificate pins a client certificate and switches the device to mtls.
func (h *ChargePoint) BindCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.BindCertificate
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := h.svc.BindCertificate(r.Context(), id, core.BindCertificateParams{
		Fingerprint: req.Fingerprint,
		Subject:     req.Subject,
		ValidFrom:   req.ValidFrom,
		ValidTo:     req.ValidTo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, response.Identity(identity))
}

// UpdateBootstrap opens or closes the time-boxed no-credential window.
func (h *ChargePoint) UpdateBootstrap(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateBootstrap
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := h.svc.UpdateBootstrap(r.Context(), id, core.BootstrapParams{
		Enabled:      req.Enabled,
		TTLMinutes:   req.TTLMinutes,
		AllowedIPs:   listOrNil(req.AllowedIPs),
		AllowedCIDRs: listOrNil(req.AllowedCIDRs),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, response.Identity(identity))
}

// SecurityState returns the gateway-facing trust decision for a device.
// Unknown devices resolve to the safe default rather than a 404.
func (h *ChargePoint) SecurityState(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.svc.GetSecurityState(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, state)
}

// Get returns the identity document for back-office reads.
func (h *ChargePoint) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, response.Identity(identity))
}

// SetStatus enables or disables a charge point.
func (h *ChargePoint) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.SetChargePointStatus
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := h.svc.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, response.Identity(identity))
}
