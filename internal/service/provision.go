// Package service implements the provisioning, ACL reconciliation, and
// reverse-provisioning logic of the MongoDB tech adapter.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/config"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/mapper"
)

// ProvisionService drives the create/delete lifecycle of a
// database+collection+roles unit.
type ProvisionService struct {
	gateway  domain.AdminGateway
	mapper   *mapper.PrincipalMapper
	settings config.MongoDBSettings
	logger   *slog.Logger
}

// NewProvisionService creates a ProvisionService.
func NewProvisionService(gateway domain.AdminGateway, m *mapper.PrincipalMapper, settings config.MongoDBSettings, logger *slog.Logger) *ProvisionService {
	return &ProvisionService{gateway: gateway, mapper: m, settings: settings, logger: logger}
}

// systemErr converts gateway service errors into the SystemError surfaced
// to the platform. Anything else passes through unchanged.
func systemErr(err error) error {
	var se *domain.ServiceError
	if errors.As(err, &se) {
		return &domain.SystemError{Message: se.Message}
	}
	return err
}

// Provision creates the database, developer role, collection, and consumer
// role for the target subcomponent. Parent-only requests validate the
// component template ID and report success without touching the database:
// the parent output port is a pre-provisioned container whose database
// materialises with its first subcomponent.
func (s *ProvisionService) Provision(ctx context.Context, dataProduct *domain.DataProduct, component *domain.OutputPort, subcomponentID string, isParentComponent bool) (*domain.ProvisioningStatus, error) {
	if isParentComponent && domain.IsParentComponentID(subcomponentID) {
		if component.UseCaseTemplateID != s.settings.UseCaseTemplateID {
			return nil, domain.ErrValidation(
				"Component use case template ID does not match: component='%s', expected='%s'",
				component.UseCaseTemplateID, s.settings.UseCaseTemplateID)
		}
		return domain.Completed(map[string]any{
			"message": "Component already provisioned, no action taken",
		}), nil
	}

	s.logger.Info("starting provisioning", "subcomponent", subcomponentID)

	sub := component.SubcomponentByID(subcomponentID)
	if sub == nil {
		return nil, domain.ErrValidation("Subcomponent with ID %s not found in descriptor", subcomponentID)
	}
	if sub.UseCaseTemplateID != s.settings.UseCaseTemplateSubID {
		return nil, domain.ErrValidation(
			"Subcomponent use case template ID does not match: component='%s', expected='%s'",
			sub.UseCaseTemplateID, s.settings.UseCaseTemplateSubID)
	}

	owner, mapErr := s.mapper.MapOne(dataProduct.DataProductOwner)
	if mapErr != nil {
		s.logger.Error("failed to map data product owner",
			"owner", dataProduct.DataProductOwner, "error", mapErr.Reason)
		return nil, &domain.SystemError{Message: mapErr.Reason}
	}

	database := component.Specific.Database
	if err := s.provisionSubcomponent(ctx, database, owner, sub); err != nil {
		return nil, systemErr(err)
	}

	s.logger.Info("provisioning completed",
		"subcomponent", subcomponentID, "database", database, "collection", sub.Specific.Collection)
	return domain.Completed(map[string]any{
		"subcomponent_id": domain.InfoCell("Subcomponent ID", sub.ID),
		"database":        domain.InfoCell("Database Name", database),
		"collection":      domain.InfoCell("Collection Name", sub.Specific.Collection),
	}), nil
}

// provisionSubcomponent runs the idempotent ensure sequence. A crash
// mid-sequence leaves partial state that a re-invocation reconciles; no
// step is "create or fail".
func (s *ProvisionService) provisionSubcomponent(ctx context.Context, database, owner string, sub *domain.Subcomponent) error {
	if err := s.gateway.EnsureDatabase(ctx, database); err != nil {
		return err
	}
	s.logger.Info("database managed", "database", database)

	devRole := domain.DeveloperRoleName(database)
	if err := s.gateway.EnsureDeveloperRole(ctx, database, devRole, owner, s.settings.DeveloperRoles); err != nil {
		return err
	}
	s.logger.Info("developer role managed", "database", database, "role", devRole, "owner", owner)

	var validator map[string]any
	if sub.Specific.ValueSchema == nil {
		s.logger.Warn("no value schema provided, using empty schema", "subcomponent", sub.ID)
	} else {
		v, err := sub.Specific.ValueSchema.Validator()
		if err != nil {
			return domain.ErrService("%v", err)
		}
		validator = v
	}
	if err := s.gateway.EnsureCollection(ctx, database, sub.Specific.Collection, validator); err != nil {
		return err
	}
	s.logger.Info("collection managed", "database", database, "collection", sub.Specific.Collection)

	return s.gateway.EnsureConsumerRole(ctx, database, sub.Specific.Collection, s.settings.ConsumerActions)
}

// Unprovision tears the subcomponent down: the collection is dropped only
// when removeData is set, and the consumer role is always revoked from
// every principal currently holding it. Parent-only requests are a no-op.
func (s *ProvisionService) Unprovision(ctx context.Context, dataProduct *domain.DataProduct, component *domain.OutputPort, subcomponentID string, removeData, isParentComponent bool) (*domain.ProvisioningStatus, error) {
	if isParentComponent && domain.IsParentComponentID(subcomponentID) {
		return domain.Completed(map[string]any{}), nil
	}

	s.logger.Info("starting unprovisioning", "subcomponent", subcomponentID, "remove_data", removeData)

	sub := component.SubcomponentByID(subcomponentID)
	if sub == nil {
		return nil, domain.ErrValidation("Subcomponent with ID %s not found in descriptor", subcomponentID)
	}

	database := component.Specific.Database
	collection := sub.Specific.Collection

	if removeData {
		if err := s.gateway.DropCollection(ctx, database, collection); err != nil {
			return nil, systemErr(err)
		}
		s.logger.Info("collection removed", "database", database, "collection", collection)
	}

	role := domain.ConsumerRoleName(database, collection)
	holders, err := s.gateway.UsersWithRole(ctx, database, role)
	if err != nil {
		return nil, systemErr(err)
	}
	for _, principal := range holders {
		if err := s.gateway.RevokeRole(ctx, database, role, principal); err != nil {
			return nil, systemErr(err)
		}
		s.logger.Debug("consumer role revoked", "role", role, "principal", principal)
	}

	s.logger.Info("unprovisioning completed", "subcomponent", subcomponentID)
	return domain.Completed(map[string]any{}), nil
}
