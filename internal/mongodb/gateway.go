// Package mongodb implements the admin gateway port against a live MongoDB
// deployment using the official driver.
package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

// Gateway talks to the target MongoDB deployment through admin commands.
// All faults surface as domain.ServiceError; callers never see driver
// error types.
type Gateway struct {
	client        *mongo.Client
	usersDatabase string
	logger        *slog.Logger
}

var _ domain.AdminGateway = (*Gateway)(nil)

// NewGateway creates a Gateway on an established client connection.
// usersDatabase is the database holding user documents (usually "admin").
func NewGateway(client *mongo.Client, usersDatabase string, logger *slog.Logger) *Gateway {
	return &Gateway{client: client, usersDatabase: usersDatabase, logger: logger}
}

// Connect dials the deployment and verifies connectivity.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Ping verifies connectivity to the deployment.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.client.Ping(ctx, nil); err != nil {
		return domain.ErrService("Failed to reach MongoDB. Details: %v", err)
	}
	return nil
}

// EnsureDatabase creates the database if absent. MongoDB materialises
// databases lazily, so an absent database needs no command; existing
// databases are left untouched either way.
func (g *Gateway) EnsureDatabase(ctx context.Context, database string) error {
	names, err := g.client.ListDatabaseNames(ctx, bson.D{{Key: "name", Value: database}})
	if err != nil {
		return domain.ErrService("Failed to manage database %s. Details: %v", database, err)
	}
	if len(names) > 0 {
		g.logger.Debug("database already exists, no action taken", "database", database)
	}
	return nil
}

// EnsureCollection creates the collection with the given validator, or
// updates the validator in place when the collection already exists.
func (g *Gateway) EnsureCollection(ctx context.Context, database, collection string, validator map[string]any) error {
	db := g.client.Database(database)
	if validator == nil {
		validator = map[string]any{}
	}

	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return domain.ErrService("Failed to create collection %s in database %s. Details: %v", collection, database, err)
	}
	if len(names) > 0 {
		g.logger.Debug("collection exists, updating validator", "database", database, "collection", collection)
		cmd := bson.D{
			{Key: "collMod", Value: collection},
			{Key: "validator", Value: validator},
			{Key: "validationLevel", Value: "moderate"},
		}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return domain.ErrService("Failed to update validator for collection %s in database %s. Details: %v", collection, database, err)
		}
		return nil
	}

	opts := options.CreateCollection().SetValidator(validator)
	if err := db.CreateCollection(ctx, collection, opts); err != nil {
		return domain.ErrService("Failed to create collection %s in database %s. Details: %v", collection, database, err)
	}
	return nil
}

// roleExists probes the database for a role definition.
func (g *Gateway) roleExists(ctx context.Context, database, role string) (bool, error) {
	cmd := bson.D{
		{Key: "rolesInfo", Value: role},
		{Key: "showPrivileges", Value: true},
	}
	var out struct {
		Roles []bson.M `bson:"roles"`
	}
	if err := g.client.Database(database).RunCommand(ctx, cmd).Decode(&out); err != nil {
		return false, err
	}
	return len(out.Roles) > 0, nil
}

// EnsureDeveloperRole creates the role if absent, inheriting the given
// underlying roles, and grants it to the principal. Granting an
// already-held role is a no-op on the server side.
func (g *Gateway) EnsureDeveloperRole(ctx context.Context, database, role, principal string, inheritedRoles []string) error {
	exists, err := g.roleExists(ctx, database, role)
	if err != nil {
		return domain.ErrService("Failed to create or update role %s. Details: %v", role, err)
	}
	if !exists {
		inherited := make([]bson.M, 0, len(inheritedRoles))
		for _, r := range inheritedRoles {
			inherited = append(inherited, bson.M{"role": r, "db": database})
		}
		cmd := bson.D{
			{Key: "createRole", Value: role},
			{Key: "privileges", Value: []bson.M{}},
			{Key: "roles", Value: inherited},
		}
		if err := g.client.Database(database).RunCommand(ctx, cmd).Err(); err != nil {
			return domain.ErrService("Failed to create or update role %s. Details: %v", role, err)
		}
		g.logger.Debug("role created", "database", database, "role", role)
	}
	return g.GrantRole(ctx, database, role, principal)
}

// EnsureConsumerRole creates the collection-scoped consumer role with the
// given actions. No-op when the role already exists.
func (g *Gateway) EnsureConsumerRole(ctx context.Context, database, collection string, actions []string) error {
	role := domain.ConsumerRoleName(database, collection)
	exists, err := g.roleExists(ctx, database, role)
	if err != nil {
		return domain.ErrService("Failed to create or update consumer role for collection %s in database %s. Details: %v", collection, database, err)
	}
	if exists {
		g.logger.Debug("consumer role already exists, no action taken", "role", role)
		return nil
	}
	cmd := bson.D{
		{Key: "createRole", Value: role},
		{Key: "privileges", Value: []bson.M{{
			"resource": bson.M{"db": database, "collection": collection},
			"actions":  actions,
		}}},
		{Key: "roles", Value: []bson.M{}},
	}
	if err := g.client.Database(database).RunCommand(ctx, cmd).Err(); err != nil {
		return domain.ErrService("Failed to create or update consumer role for collection %s in database %s. Details: %v", collection, database, err)
	}
	g.logger.Debug("consumer role created", "role", role)
	return nil
}

// DropCollection drops the collection. No-op when the database is absent.
func (g *Gateway) DropCollection(ctx context.Context, database, collection string) error {
	names, err := g.client.ListDatabaseNames(ctx, bson.D{{Key: "name", Value: database}})
	if err != nil {
		return domain.ErrService("Failed to drop collection %s from database %s. Details: %v", collection, database, err)
	}
	if len(names) == 0 {
		g.logger.Debug("database absent, nothing to drop", "database", database)
		return nil
	}
	if err := g.client.Database(database).Collection(collection).Drop(ctx); err != nil {
		return domain.ErrService("Failed to drop collection %s from database %s. Details: %v", collection, database, err)
	}
	return nil
}

// GrantRole grants the role on database to the principal.
func (g *Gateway) GrantRole(ctx context.Context, database, role, principal string) error {
	cmd := bson.D{
		{Key: "grantRolesToUser", Value: principal},
		{Key: "roles", Value: []bson.M{{"role": role, "db": database}}},
	}
	if err := g.client.Database(g.usersDatabase).RunCommand(ctx, cmd).Err(); err != nil {
		return domain.ErrService("Failed to grant role %s to user %s. Details: %v", role, principal, err)
	}
	return nil
}

// RevokeRole revokes the role on database from the principal.
func (g *Gateway) RevokeRole(ctx context.Context, database, role, principal string) error {
	cmd := bson.D{
		{Key: "revokeRolesFromUser", Value: principal},
		{Key: "roles", Value: []bson.M{{"role": role, "db": database}}},
	}
	if err := g.client.Database(g.usersDatabase).RunCommand(ctx, cmd).Err(); err != nil {
		return domain.ErrService("Failed to revoke role %s from user %s. Details: %v", role, principal, err)
	}
	return nil
}

// UsersWithRole returns the principals currently holding the role on the
// database.
func (g *Gateway) UsersWithRole(ctx context.Context, database, role string) ([]string, error) {
	cmd := bson.D{
		{Key: "usersInfo", Value: 1},
		{Key: "filter", Value: bson.M{"roles": bson.M{"role": role, "db": database}}},
	}
	var out struct {
		Users []struct {
			User string `bson:"user"`
		} `bson:"users"`
	}
	if err := g.client.Database(g.usersDatabase).RunCommand(ctx, cmd).Decode(&out); err != nil {
		return nil, domain.ErrService("Failed to list users with role %s in database %s. Details: %v", role, database, err)
	}
	users := make([]string, 0, len(out.Users))
	for _, u := range out.Users {
		users = append(users, u.User)
	}
	return users, nil
}

// ListCollections returns name and validator for the database's
// collections, restricted to names when non-empty.
func (g *Gateway) ListCollections(ctx context.Context, database string, names []string) ([]domain.CollectionInfo, error) {
	filter := bson.M{}
	if len(names) > 0 {
		filter["name"] = bson.M{"$in": names}
	}
	cursor, err := g.client.Database(database).ListCollections(ctx, filter)
	if err != nil {
		return nil, domain.ErrService("Failed to retrieve collection information from database %s. Details: %v", database, err)
	}
	defer cursor.Close(ctx)

	var infos []domain.CollectionInfo
	for cursor.Next(ctx) {
		var spec struct {
			Name    string `bson:"name"`
			Options struct {
				Validator bson.M `bson:"validator"`
			} `bson:"options"`
		}
		if err := cursor.Decode(&spec); err != nil {
			return nil, domain.ErrService("Failed to retrieve collection information from database %s. Details: %v", database, err)
		}
		infos = append(infos, domain.CollectionInfo{Name: spec.Name, Validator: spec.Options.Validator})
	}
	if err := cursor.Err(); err != nil {
		return nil, domain.ErrService("Failed to retrieve collection information from database %s. Details: %v", database, err)
	}
	return infos, nil
}
