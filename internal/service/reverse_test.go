package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

func setupReverseService(t *testing.T) (*ReverseProvisionService, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	return NewReverseProvisionService(gw, testLogger()), gw
}

func TestReverseProvision_NilParams(t *testing.T) {
	svc, _ := setupReverseService(t)

	_, err := svc.ReverseProvision(context.Background(), nil, "development")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Errors, "Invalid parameters format")
}

func TestReverseProvision_NoDatabase(t *testing.T) {
	svc, _ := setupReverseService(t)

	_, err := svc.ReverseProvision(context.Background(), map[string]any{}, "development")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Errors, "No database specified")
}

func TestReverseProvision_AllCollections(t *testing.T) {
	svc, gw := setupReverseService(t)
	gw.collections = []domain.CollectionInfo{
		{Name: "doses", Validator: map[string]any{"$jsonSchema": map[string]any{"bsonType": "object"}}},
		{Name: "batches"},
	}

	status, err := svc.ReverseProvision(context.Background(),
		map[string]any{"database": "healthcare_vaccinations_0"}, "development")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status.Status)
	assert.Nil(t, gw.lastListedNames, "no collections filter means inspect everything")

	params := status.Updates["parameters"].(map[string]any)
	components := params["subcomponentDefinition"].(map[string]any)["components"].([]map[string]any)
	require.Len(t, components, 2)

	assert.Equal(t, "doses", components[0]["collection"])
	assert.JSONEq(t, `{"$jsonSchema": {"bsonType": "object"}}`, components[0]["jsonschema"].(string))
	assert.Equal(t, "batches", components[1]["collection"])
	assert.NotContains(t, components[1], "jsonschema")

	env := status.Updates["environmentParameters"].(map[string]any)
	assert.Equal(t, map[string]any{"database": "healthcare_vaccinations_0"}, env["development"])
}

func TestReverseProvision_CollectionsFilter(t *testing.T) {
	svc, gw := setupReverseService(t)
	gw.collections = []domain.CollectionInfo{{Name: "doses"}}

	_, err := svc.ReverseProvision(context.Background(), map[string]any{
		"database":    "healthcare_vaccinations_0",
		"collections": []any{"doses"},
	}, "development")
	require.NoError(t, err)
	assert.Equal(t, []string{"doses"}, gw.lastListedNames)
}

func TestReverseProvision_GatewayFaultBecomesSystemError(t *testing.T) {
	svc, gw := setupReverseService(t)
	gw.errOn["ListCollections"] = domain.ErrService("Failed to retrieve collection information. Details: down")

	_, err := svc.ReverseProvision(context.Background(),
		map[string]any{"database": "healthcare_vaccinations_0"}, "development")
	var se *domain.SystemError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "Failed to retrieve collection information")
}
