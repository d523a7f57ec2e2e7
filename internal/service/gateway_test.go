package service

import (
	"context"
	"fmt"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

// fakeGateway records every gateway call and serves canned state. Errors
// are injected per method name or per principal.
type fakeGateway struct {
	calls []string

	usersByRole map[string][]string // "<database>/<role>" -> holders
	collections []domain.CollectionInfo

	errOn        map[string]error // method name -> error
	grantErrFor  map[string]error // principal -> error
	revokeErrFor map[string]error // principal -> error

	lastValidator   map[string]any
	lastInherited   []string
	lastActions     []string
	lastListedNames []string
}

var _ domain.AdminGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		usersByRole:  map[string][]string{},
		errOn:        map[string]error{},
		grantErrFor:  map[string]error{},
		revokeErrFor: map[string]error{},
	}
}

func (g *fakeGateway) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGateway) fail(method string) error {
	if err := g.errOn[method]; err != nil {
		return err
	}
	return nil
}

func (g *fakeGateway) Ping(ctx context.Context) error { return g.fail("Ping") }

func (g *fakeGateway) EnsureDatabase(ctx context.Context, database string) error {
	g.record("EnsureDatabase(%s)", database)
	return g.fail("EnsureDatabase")
}

func (g *fakeGateway) EnsureCollection(ctx context.Context, database, collection string, validator map[string]any) error {
	g.record("EnsureCollection(%s,%s)", database, collection)
	g.lastValidator = validator
	return g.fail("EnsureCollection")
}

func (g *fakeGateway) EnsureDeveloperRole(ctx context.Context, database, role, principal string, inheritedRoles []string) error {
	g.record("EnsureDeveloperRole(%s,%s,%s)", database, role, principal)
	g.lastInherited = inheritedRoles
	return g.fail("EnsureDeveloperRole")
}

func (g *fakeGateway) EnsureConsumerRole(ctx context.Context, database, collection string, actions []string) error {
	g.record("EnsureConsumerRole(%s,%s)", database, collection)
	g.lastActions = actions
	return g.fail("EnsureConsumerRole")
}

func (g *fakeGateway) DropCollection(ctx context.Context, database, collection string) error {
	g.record("DropCollection(%s,%s)", database, collection)
	return g.fail("DropCollection")
}

func (g *fakeGateway) GrantRole(ctx context.Context, database, role, principal string) error {
	g.record("GrantRole(%s,%s,%s)", database, role, principal)
	if err := g.grantErrFor[principal]; err != nil {
		return err
	}
	return g.fail("GrantRole")
}

func (g *fakeGateway) RevokeRole(ctx context.Context, database, role, principal string) error {
	g.record("RevokeRole(%s,%s,%s)", database, role, principal)
	if err := g.revokeErrFor[principal]; err != nil {
		return err
	}
	return g.fail("RevokeRole")
}

func (g *fakeGateway) UsersWithRole(ctx context.Context, database, role string) ([]string, error) {
	g.record("UsersWithRole(%s,%s)", database, role)
	if err := g.fail("UsersWithRole"); err != nil {
		return nil, err
	}
	return g.usersByRole[database+"/"+role], nil
}

func (g *fakeGateway) ListCollections(ctx context.Context, database string, names []string) ([]domain.CollectionInfo, error) {
	g.record("ListCollections(%s)", database)
	g.lastListedNames = names
	if err := g.fail("ListCollections"); err != nil {
		return nil, err
	}
	return g.collections, nil
}
