package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

// Outcome records the result of one per-principal ACL operation. Failures
// are aggregated into batch results, never short-circuited.
type Outcome struct {
	Principal string
	Err       error
}

// AclService applies and removes consumer-role assignments. Per-principal
// failures never abort the batch; a failure reading current membership does.
type AclService struct {
	gateway domain.AdminGateway
	logger  *slog.Logger
}

// NewAclService creates an AclService.
func NewAclService(gateway domain.AdminGateway, logger *slog.Logger) *AclService {
	return &AclService{gateway: gateway, logger: logger}
}

// Apply grants role to every target principal holding neither the role nor
// the database's developer role. Returns granted principals and the failed
// outcomes.
func (s *AclService) Apply(ctx context.Context, database, role string, principals []string) ([]string, []Outcome, error) {
	holders, err := s.gateway.UsersWithRole(ctx, database, role)
	if err != nil {
		return nil, nil, err
	}
	developers, err := s.gateway.UsersWithRole(ctx, database, domain.DeveloperRoleName(database))
	if err != nil {
		return nil, nil, err
	}

	hasRole := toSet(holders)
	hasDevRole := toSet(developers)

	granted := []string{}
	var failures []Outcome
	for _, principal := range principals {
		if hasRole[principal] || hasDevRole[principal] {
			s.logger.Warn("principal already has role or developer role",
				"principal", principal, "role", role, "database", database)
			continue
		}
		if err := s.gateway.GrantRole(ctx, database, role, principal); err != nil {
			failures = append(failures, Outcome{
				Principal: principal,
				Err:       fmt.Errorf("Failed to apply ACL %s to user %s. Details: %v", role, principal, err),
			})
			continue
		}
		s.logger.Info("acl applied", "role", role, "principal", principal, "database", database)
		granted = append(granted, principal)
	}
	return granted, failures, nil
}

// Remove revokes role from every current holder that is not in the keep
// set. Returns revoked principals and the failed outcomes.
func (s *AclService) Remove(ctx context.Context, database, role string, keep []string) ([]string, []Outcome, error) {
	holders, err := s.gateway.UsersWithRole(ctx, database, role)
	if err != nil {
		return nil, nil, err
	}
	if len(holders) == 0 {
		s.logger.Warn("no users found with role", "role", role, "database", database)
		return []string{}, nil, nil
	}

	keepSet := toSet(keep)

	removed := []string{}
	var failures []Outcome
	for _, principal := range holders {
		if keepSet[principal] {
			s.logger.Debug("principal is in requested identities, keeping role",
				"principal", principal, "role", role)
			continue
		}
		if err := s.gateway.RevokeRole(ctx, database, role, principal); err != nil {
			failures = append(failures, Outcome{
				Principal: principal,
				Err:       fmt.Errorf("Failed to revoke role %s from user %s. Details: %v", role, principal, err),
			})
			continue
		}
		s.logger.Debug("role revoked", "role", role, "principal", principal, "database", database)
		removed = append(removed, principal)
	}
	return removed, failures, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
