// Package api provides the HTTP surface of the tech adapter, following the
// Witboost specific-provisioner interface.
package api

import "github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"

// ProvisioningRequest is the platform's provision/unprovision request.
type ProvisioningRequest struct {
	DescriptorKind string `json:"descriptorKind"`
	Descriptor     string `json:"descriptor"`
	RemoveData     bool   `json:"removeData,omitempty"`
}

// ProvisionInfo carries the original provisioning request descriptor and,
// optionally, its result.
type ProvisionInfo struct {
	Request string `json:"request"`
	Result  string `json:"result,omitempty"`
}

// UpdateAclRequest asks the adapter to reconcile consumer access for the
// given identity references.
type UpdateAclRequest struct {
	Refs          []string      `json:"refs"`
	ProvisionInfo ProvisionInfo `json:"provisionInfo"`
}

// ReverseProvisioningRequest asks the adapter to read existing target
// state back into descriptor-shaped update parameters.
type ReverseProvisioningRequest struct {
	UseCaseTemplateID string         `json:"useCaseTemplateId"`
	Environment       string         `json:"environment"`
	Params            map[string]any `json:"params,omitempty"`
}

// Info carries the user-visible and internal details of a status.
type Info struct {
	PublicInfo  map[string]any `json:"publicInfo"`
	PrivateInfo map[string]any `json:"privateInfo"`
}

// ProvisioningStatus is the terminal result reported to the platform.
type ProvisioningStatus struct {
	Status string `json:"status"`
	Result string `json:"result"`
	Info   *Info  `json:"info,omitempty"`
}

// ReverseProvisioningStatus is the terminal result of a reverse
// provisioning read.
type ReverseProvisioningStatus struct {
	Status  string         `json:"status"`
	Updates map[string]any `json:"updates"`
}

// ValidationErrorBody is the 400 payload.
type ValidationErrorBody struct {
	Errors []string `json:"errors"`
}

// SystemErrorBody is the 500 payload.
type SystemErrorBody struct {
	Error string `json:"error"`
}

// ValidationResult is the response of the validate endpoint.
type ValidationResult struct {
	Valid bool                 `json:"valid"`
	Error *ValidationErrorBody `json:"error,omitempty"`
}

// statusToWire converts a domain status to its wire shape.
func statusToWire(s *domain.ProvisioningStatus) ProvisioningStatus {
	return ProvisioningStatus{
		Status: string(s.Status),
		Result: s.Result,
		Info: &Info{
			PublicInfo:  s.Info.Public,
			PrivateInfo: s.Info.Private,
		},
	}
}
