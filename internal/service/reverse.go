package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

// ReverseProvisionService reads existing collections and validators back
// into descriptor-shaped update parameters.
type ReverseProvisionService struct {
	gateway domain.AdminGateway
	logger  *slog.Logger
}

// NewReverseProvisionService creates a ReverseProvisionService.
func NewReverseProvisionService(gateway domain.AdminGateway, logger *slog.Logger) *ReverseProvisionService {
	return &ReverseProvisionService{gateway: gateway, logger: logger}
}

// ReverseProvision inspects the database named in params and returns its
// collections as subcomponent update parameters. When params carries a
// "collections" list only those are inspected; otherwise all collections
// in the database are.
func (s *ReverseProvisionService) ReverseProvision(ctx context.Context, params map[string]any, environment string) (*domain.ReverseProvisioningStatus, error) {
	if params == nil {
		return nil, &domain.ValidationError{Errors: []string{"Invalid parameters format"}}
	}
	database, _ := params["database"].(string)
	if database == "" {
		return nil, &domain.ValidationError{Errors: []string{"No database specified"}}
	}
	collections := stringList(params["collections"])

	s.logger.Info("starting reverse provisioning", "database", database, "collections", collections)

	infos, err := s.gateway.ListCollections(ctx, database, collections)
	if err != nil {
		return nil, systemErr(err)
	}

	components := make([]map[string]any, 0, len(infos))
	for _, info := range infos {
		component := map[string]any{
			"description": info.Name,
			"collection":  info.Name,
		}
		if len(info.Validator) > 0 {
			raw, err := json.Marshal(info.Validator)
			if err != nil {
				return nil, domain.ErrSystem("failed to serialize validator for collection %s: %v", info.Name, err)
			}
			component["jsonschema"] = string(raw)
		}
		components = append(components, component)
	}

	s.logger.Info("reverse provisioning completed", "database", database, "collections_found", len(components))
	return &domain.ReverseProvisioningStatus{
		Status: domain.StatusCompleted,
		Updates: map[string]any{
			"parameters": map[string]any{
				"subcomponentDefinition": map[string]any{"components": components},
			},
			"environmentParameters": map[string]any{
				environment: map[string]any{"database": database},
			},
		},
	}, nil
}

// stringList coerces the loosely-typed params value into a string slice.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
