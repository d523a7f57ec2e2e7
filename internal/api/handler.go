package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/service"
)

// Handler exposes the specific-provisioner endpoints.
type Handler struct {
	validation *service.ValidationService
	provision  *service.ProvisionService
	updateAcl  *service.UpdateAclService
	reverse    *service.ReverseProvisionService
	gateway    domain.AdminGateway
	logger     *slog.Logger
}

// NewHandler creates a Handler over the adapter services.
func NewHandler(
	validation *service.ValidationService,
	provision *service.ProvisionService,
	updateAcl *service.UpdateAclService,
	reverse *service.ReverseProvisionService,
	gateway domain.AdminGateway,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		validation: validation,
		provision:  provision,
		updateAcl:  updateAcl,
		reverse:    reverse,
		gateway:    gateway,
		logger:     logger,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ValidationErrorBody{
			Errors: []string{"Malformed request body: " + err.Error()},
		})
		return false
	}
	return true
}

// Provision handles POST /v1/provision.
func (h *Handler) Provision(w http.ResponseWriter, r *http.Request) {
	var req ProvisioningRequest
	if !decodeBody(w, r, &req) {
		return
	}

	unpacked, err := h.validation.UnpackProvisioningRequest(req.DescriptorKind, req.Descriptor, req.RemoveData)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status, err := h.provision.Provision(r.Context(), unpacked.DataProduct, unpacked.Component,
		unpacked.SubcomponentID, unpacked.IsParentComponent)
	if err != nil {
		h.logger.Error("provisioning failed", "component", unpacked.SubcomponentID, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToWire(status))
}

// Unprovision handles POST /v1/unprovision.
func (h *Handler) Unprovision(w http.ResponseWriter, r *http.Request) {
	var req ProvisioningRequest
	if !decodeBody(w, r, &req) {
		return
	}

	unpacked, err := h.validation.UnpackProvisioningRequest(req.DescriptorKind, req.Descriptor, req.RemoveData)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status, err := h.provision.Unprovision(r.Context(), unpacked.DataProduct, unpacked.Component,
		unpacked.SubcomponentID, unpacked.RemoveData, unpacked.IsParentComponent)
	if err != nil {
		h.logger.Error("unprovisioning failed", "component", unpacked.SubcomponentID, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToWire(status))
}

// UpdateAcl handles POST /v1/updateacl.
func (h *Handler) UpdateAcl(w http.ResponseWriter, r *http.Request) {
	var req UpdateAclRequest
	if !decodeBody(w, r, &req) {
		return
	}

	unpacked, err := h.validation.UnpackUpdateAclRequest(req.ProvisionInfo.Request, req.Refs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status, err := h.updateAcl.UpdateAcls(r.Context(), unpacked.DataProduct, unpacked.Component,
		unpacked.SubcomponentID, unpacked.Identities)
	if err != nil {
		h.logger.Error("acl update failed", "component", unpacked.SubcomponentID, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToWire(status))
}

// Validate handles POST /v1/validate. A descriptor that fails validation is
// a successful validate call: the failure is reported in the body.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ProvisioningRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.validation.UnpackProvisioningRequest(req.DescriptorKind, req.Descriptor, req.RemoveData)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusOK, ValidationResult{
				Valid: false,
				Error: &ValidationErrorBody{Errors: ve.Errors},
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValidationResult{Valid: true})
}

// ReverseProvisioning handles POST /v1/reverse-provisioning.
func (h *Handler) ReverseProvisioning(w http.ResponseWriter, r *http.Request) {
	var req ReverseProvisioningRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := h.reverse.ReverseProvision(r.Context(), req.Params, req.Environment)
	if err != nil {
		h.logger.Error("reverse provisioning failed", "environment", req.Environment, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReverseProvisioningStatus{
		Status:  string(status.Status),
		Updates: status.Updates,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
