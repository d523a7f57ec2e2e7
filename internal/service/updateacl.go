package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/mapper"
)

// UpdateAclService reconciles consumer-role membership against a requested
// identity set.
type UpdateAclService struct {
	mapper *mapper.PrincipalMapper
	acl    *AclService
	logger *slog.Logger
}

// NewUpdateAclService creates an UpdateAclService.
func NewUpdateAclService(m *mapper.PrincipalMapper, acl *AclService, logger *slog.Logger) *UpdateAclService {
	return &UpdateAclService{mapper: m, acl: acl, logger: logger}
}

// UpdateAcls maps the requested identities, revokes the consumer role from
// holders outside the mapped set, and grants it to mapped principals that
// lack it. Mapping, revoke, and grant failures aggregate into a FAILED
// status; successful sub-operations are never rolled back.
func (s *UpdateAclService) UpdateAcls(ctx context.Context, dataProduct *domain.DataProduct, component *domain.OutputPort, subcomponentID string, identities []string) (*domain.ProvisioningStatus, error) {
	s.logger.Info("starting acl update", "subcomponent", subcomponentID, "identities", identities)

	sub := component.SubcomponentByID(subcomponentID)
	if sub == nil {
		return nil, domain.ErrValidation("Subcomponent with ID %s not found in descriptor", subcomponentID)
	}

	database := component.Specific.Database
	role := domain.ConsumerRoleName(database, sub.Specific.Collection)

	mapped := s.mapper.Map(identities)
	var targets []string
	var mappingFailures []string
	for identity, result := range mapped {
		if result.Err != nil {
			msg := fmt.Sprintf("Failed to map identity %s: %s", identity, result.Err.Reason)
			s.logger.Error("identity mapping failed", "identity", identity, "reason", result.Err.Reason)
			mappingFailures = append(mappingFailures, msg)
			continue
		}
		targets = append(targets, result.Principal)
	}
	sort.Strings(targets)
	sort.Strings(mappingFailures)

	removed, removeFailures, err := s.acl.Remove(ctx, database, role, targets)
	if err != nil {
		return nil, systemErr(err)
	}
	granted, applyFailures, err := s.acl.Apply(ctx, database, role, targets)
	if err != nil {
		return nil, systemErr(err)
	}

	var errs []string
	for _, outcome := range removeFailures {
		errs = append(errs, outcome.Err.Error())
	}
	for _, outcome := range applyFailures {
		errs = append(errs, outcome.Err.Error())
	}
	errs = append(errs, mappingFailures...)

	if len(errs) > 0 {
		s.logger.Error("errors occurred while updating acls", "errors", errs)
		return domain.Failed(map[string]any{"errors": errs}), nil
	}

	s.logger.Info("acl update completed", "granted", granted, "removed", removed)
	return domain.Completed(map[string]any{
		"updated_acls": granted,
		"removed_acls": removed,
	}), nil
}
