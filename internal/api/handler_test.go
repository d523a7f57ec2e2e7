package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/config"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/mapper"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/middleware"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/service"
)

const testDescriptor = `
dataProduct:
  id: urn:dmb:dp:healthcare:vaccinations:0
  name: Vaccinations
  domain: healthcare
  environment: development
  dataProductOwner: user:john.doe_agilelab.it
  components:
    - id: urn:dmb:cmp:healthcare:vaccinations:0:mongo-output-port
      name: MongoDB Output Port
      kind: outputport
      useCaseTemplateId: urn:dmb:utm:mongodb-outputport-template:0.0.0
      specific:
        database: healthcare_vaccinations_0
      components:
        - id: urn:dmb:cmp:healthcare:vaccinations:0:mongo-output-port:doses
          name: doses
          kind: outputport
          useCaseTemplateId: urn:dmb:utm:mongodb-outputport-sub-template:0.0.0
          specific:
            collection: doses
            valueSchema:
              type: JSON
              definition: '{"$jsonSchema": {"bsonType": "object"}}'
componentIdToProvision: urn:dmb:cmp:healthcare:vaccinations:0:mongo-output-port:doses
`

// stubGateway is an in-memory AdminGateway for handler tests.
type stubGateway struct {
	collections []domain.CollectionInfo
	usersByRole map[string][]string
	pingErr     error
	failWith    error
}

func (g *stubGateway) EnsureDatabase(context.Context, string) error { return g.failWith }
func (g *stubGateway) EnsureCollection(context.Context, string, string, map[string]any) error {
	return g.failWith
}
func (g *stubGateway) EnsureDeveloperRole(context.Context, string, string, string, []string) error {
	return g.failWith
}
func (g *stubGateway) EnsureConsumerRole(context.Context, string, string, []string) error {
	return g.failWith
}
func (g *stubGateway) DropCollection(context.Context, string, string) error { return g.failWith }
func (g *stubGateway) GrantRole(context.Context, string, string, string) error {
	return g.failWith
}
func (g *stubGateway) RevokeRole(context.Context, string, string, string) error {
	return g.failWith
}
func (g *stubGateway) UsersWithRole(_ context.Context, database, role string) ([]string, error) {
	return g.usersByRole[database+"/"+role], g.failWith
}
func (g *stubGateway) ListCollections(context.Context, string, []string) ([]domain.CollectionInfo, error) {
	return g.collections, g.failWith
}
func (g *stubGateway) Ping(context.Context) error { return g.pingErr }

func newTestRouter(t *testing.T, gw *stubGateway) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := config.MongoDBSettings{
		UsersDatabase:        "admin",
		DeveloperRoles:       []string{"readWrite", "dbAdmin"},
		ConsumerActions:      []string{"find", "listIndexes"},
		UseCaseTemplateID:    "urn:dmb:utm:mongodb-outputport-template:0.0.0",
		UseCaseTemplateSubID: "urn:dmb:utm:mongodb-outputport-sub-template:0.0.0",
	}
	m := mapper.New()
	acl := service.NewAclService(gw, logger)

	h := NewHandler(
		service.NewValidationService(logger),
		service.NewProvisionService(gw, m, settings, logger),
		service.NewUpdateAclService(m, acl, logger),
		service.NewReverseProvisionService(gw, logger),
		gw,
		logger,
	)
	cfg := &config.Config{
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	}
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	t.Cleanup(limiter.Stop)
	return NewRouter(cfg, h, nil, limiter)
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProvisionEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	rec := postJSON(t, router, "/v1/provision", ProvisioningRequest{
		DescriptorKind: "COMPONENT_DESCRIPTOR",
		Descriptor:     testDescriptor,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var status ProvisioningStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "COMPLETED", status.Status)
	require.NotNil(t, status.Info)
	assert.Contains(t, status.Info.PublicInfo, "database")
}

func TestProvisionEndpoint_WrongDescriptorKind(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	rec := postJSON(t, router, "/v1/provision", ProvisioningRequest{
		DescriptorKind: "DATAPRODUCT_DESCRIPTOR",
		Descriptor:     testDescriptor,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ValidationErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "COMPONENT_DESCRIPTOR")
}

func TestProvisionEndpoint_GatewayFault(t *testing.T) {
	router := newTestRouter(t, &stubGateway{
		failWith: domain.ErrService("Failed to create the database. Details: connection reset"),
	})

	rec := postJSON(t, router, "/v1/provision", ProvisioningRequest{
		DescriptorKind: "COMPONENT_DESCRIPTOR",
		Descriptor:     testDescriptor,
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body SystemErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "Failed to create the database")
}

func TestProvisionEndpoint_MalformedBody(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/v1/provision", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnprovisionEndpoint(t *testing.T) {
	gw := &stubGateway{
		usersByRole: map[string][]string{
			"healthcare_vaccinations_0/healthcare_vaccinations_0_doses_consumer": {"alice@agilelab.it"},
		},
	}
	router := newTestRouter(t, gw)

	rec := postJSON(t, router, "/v1/unprovision", ProvisioningRequest{
		DescriptorKind: "COMPONENT_DESCRIPTOR",
		Descriptor:     testDescriptor,
		RemoveData:     true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var status ProvisioningStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "COMPLETED", status.Status)
}

func TestUpdateAclEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubGateway{usersByRole: map[string][]string{}})

	rec := postJSON(t, router, "/v1/updateacl", UpdateAclRequest{
		Refs:          []string{"user:alice_agilelab.it"},
		ProvisionInfo: ProvisionInfo{Request: testDescriptor},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var status ProvisioningStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "COMPLETED", status.Status)
}

func TestValidateEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	rec := postJSON(t, router, "/v1/validate", ProvisioningRequest{
		DescriptorKind: "COMPONENT_DESCRIPTOR",
		Descriptor:     testDescriptor,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Nil(t, result.Error)
}

func TestValidateEndpoint_InvalidDescriptor(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	rec := postJSON(t, router, "/v1/validate", ProvisioningRequest{
		DescriptorKind: "COMPONENT_DESCRIPTOR",
		Descriptor:     "dataProduct: [unclosed",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Errors[0], "Unable to parse the descriptor.")
}

func TestReverseProvisioningEndpoint(t *testing.T) {
	gw := &stubGateway{
		collections: []domain.CollectionInfo{
			{Name: "doses", Validator: map[string]any{"$jsonSchema": map[string]any{"bsonType": "object"}}},
		},
	}
	router := newTestRouter(t, gw)

	rec := postJSON(t, router, "/v1/reverse-provisioning", ReverseProvisioningRequest{
		UseCaseTemplateID: "urn:dmb:utm:mongodb-outputport-template:0.0.0",
		Environment:       "development",
		Params:            map[string]any{"database": "healthcare_vaccinations_0"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var status ReverseProvisioningStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Contains(t, status.Updates, "parameters")
	assert.Contains(t, status.Updates, "environmentParameters")
}

func TestReverseProvisioningEndpoint_NoDatabase(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	rec := postJSON(t, router, "/v1/reverse-provisioning", ReverseProvisioningRequest{
		Environment: "development",
		Params:      map[string]any{},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ValidationErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"No database specified"}, body.Errors)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint_Unavailable(t *testing.T) {
	router := newTestRouter(t, &stubGateway{pingErr: errors.New("no reachable servers")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
