package domain

import (
	"context"
	"fmt"
)

// DeveloperRoleName is the role bound to the data product owner for a
// provisioned database. Created once and reused across subcomponents.
func DeveloperRoleName(database string) string {
	return database + "_developer"
}

// ConsumerRoleName is the read-side role scoped to exactly one collection.
// Membership is reconciled per ACL update, never recreated.
func ConsumerRoleName(database, collection string) string {
	return fmt.Sprintf("%s_%s_consumer", database, collection)
}

// CollectionInfo describes an existing collection and its validator, when
// one is configured.
type CollectionInfo struct {
	Name      string
	Validator map[string]any
}

// AdminGateway is the capability boundary to the target MongoDB deployment.
// Every Ensure method is idempotent (create-if-absent, else update in
// place) and every fault is wrapped in a ServiceError.
//
// Implemented by mongodb.Gateway.
type AdminGateway interface {
	// EnsureDatabase creates the database if absent. Existing databases
	// are left untouched.
	EnsureDatabase(ctx context.Context, database string) error

	// EnsureCollection creates the collection with the given validator, or
	// updates the validator in place when the collection already exists.
	// A nil validator permits any document.
	EnsureCollection(ctx context.Context, database, collection string, validator map[string]any) error

	// EnsureDeveloperRole creates the role (inheriting the given underlying
	// roles) if absent and grants it to the principal.
	EnsureDeveloperRole(ctx context.Context, database, role, principal string, inheritedRoles []string) error

	// EnsureConsumerRole creates the collection-scoped consumer role with
	// the given actions. No-op when the role already exists.
	EnsureConsumerRole(ctx context.Context, database, collection string, actions []string) error

	// DropCollection drops the collection. No-op when the database is absent.
	DropCollection(ctx context.Context, database, collection string) error

	// GrantRole grants the role on database to the principal.
	GrantRole(ctx context.Context, database, role, principal string) error

	// RevokeRole revokes the role on database from the principal.
	RevokeRole(ctx context.Context, database, role, principal string) error

	// UsersWithRole returns the principals currently holding the role on
	// the database.
	UsersWithRole(ctx context.Context, database, role string) ([]string, error)

	// ListCollections returns name and validator for the database's
	// collections, restricted to names when non-empty.
	ListCollections(ctx context.Context, database string, names []string) ([]CollectionInfo, error)

	// Ping verifies connectivity to the deployment.
	Ping(ctx context.Context) error
}
