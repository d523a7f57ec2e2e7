package service

import (
	"log/slog"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

// DescriptorKindComponent is the only descriptor kind the adapter accepts.
const DescriptorKindComponent = "COMPONENT_DESCRIPTOR"

// ProvisionRequest is a fully validated provisioning request: the parsed
// data product, the resolved output port, and the target subcomponent ID.
type ProvisionRequest struct {
	DataProduct       *domain.DataProduct
	Component         *domain.OutputPort
	SubcomponentID    string
	RemoveData        bool
	IsParentComponent bool
}

// AclUpdateRequest is a fully validated ACL update request.
type AclUpdateRequest struct {
	DataProduct    *domain.DataProduct
	Component      *domain.OutputPort
	SubcomponentID string
	Identities     []string
}

// ValidationService unpacks incoming requests into validated, typed
// requests. All failures here are ValidationErrors: nothing has mutated yet.
type ValidationService struct {
	logger *slog.Logger
}

// NewValidationService creates a ValidationService.
func NewValidationService(logger *slog.Logger) *ValidationService {
	return &ValidationService{logger: logger}
}

// UnpackProvisioningRequest parses the descriptor and resolves the target
// component as a MongoDB output port. componentIdToProvision may name
// either the parent component or one of its subcomponents; the parent is
// recovered by stripping the trailing ID segment.
func (s *ValidationService) UnpackProvisioningRequest(descriptorKind, descriptor string, removeData bool) (*ProvisionRequest, error) {
	if descriptorKind != DescriptorKindComponent {
		return nil, domain.ErrValidation(
			"Expecting a COMPONENT_DESCRIPTOR but got a %s instead; please check with the platform team.",
			descriptorKind)
	}

	parsed, err := domain.ParseDescriptor(descriptor)
	if err != nil {
		s.logger.Error("failed to parse descriptor", "error", err)
		return nil, &domain.ValidationError{Errors: []string{"Unable to parse the descriptor.", err.Error()}}
	}

	targetID := parsed.ComponentIDToProvision
	component, err := parsed.DataProduct.OutputPortByID(domain.ParentComponentID(targetID))
	if err != nil {
		return nil, err
	}

	return &ProvisionRequest{
		DataProduct:       &parsed.DataProduct,
		Component:         component,
		SubcomponentID:    targetID,
		RemoveData:        removeData,
		IsParentComponent: domain.IsParentComponentID(targetID),
	}, nil
}

// UnpackUpdateAclRequest parses the original provisioning descriptor
// carried inside an ACL update request and resolves the target output port.
func (s *ValidationService) UnpackUpdateAclRequest(request string, refs []string) (*AclUpdateRequest, error) {
	parsed, err := domain.ParseDescriptor(request)
	if err != nil {
		s.logger.Error("failed to parse acl update descriptor", "error", err)
		return nil, &domain.ValidationError{Errors: []string{"Unable to parse the descriptor.", err.Error()}}
	}

	targetID := parsed.ComponentIDToProvision
	component, err := parsed.DataProduct.OutputPortByID(domain.ParentComponentID(targetID))
	if err != nil {
		return nil, err
	}

	return &AclUpdateRequest{
		DataProduct:    &parsed.DataProduct,
		Component:      component,
		SubcomponentID: targetID,
		Identities:     refs,
	}, nil
}
