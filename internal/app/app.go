// Package app provides application-level wiring and dependency injection
// for the tech adapter following hexagonal architecture.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/api"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/config"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/mapper"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/middleware"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/service"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// config, the MongoDB gateway, and the logger.
type Deps struct {
	Cfg     *config.Config
	Gateway domain.AdminGateway
	Logger  *slog.Logger
}

// Services groups all service pointers that the API handler needs.
type Services struct {
	Validation *service.ValidationService
	Provision  *service.ProvisionService
	Acl        *service.AclService
	UpdateAcl  *service.UpdateAclService
	Reverse    *service.ReverseProvisionService
}

// App holds the fully-wired application.
type App struct {
	Services  Services
	Handler   *api.Handler
	Validator middleware.TokenValidator // nil when auth is not configured
	cfg       *config.Config
	limiter   *middleware.RateLimiter
}

// New wires the services, HTTP handler, and (when configured) the token
// validator from the provided deps.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	principalMapper := mapper.New()
	aclSvc := service.NewAclService(deps.Gateway, logger.With("component", "acl"))

	services := Services{
		Validation: service.NewValidationService(logger.With("component", "validation")),
		Provision:  service.NewProvisionService(deps.Gateway, principalMapper, cfg.MongoDB, logger.With("component", "provision")),
		Acl:        aclSvc,
		UpdateAcl:  service.NewUpdateAclService(principalMapper, aclSvc, logger.With("component", "updateacl")),
		Reverse:    service.NewReverseProvisionService(deps.Gateway, logger.With("component", "reverse")),
	}

	handler := api.NewHandler(
		services.Validation,
		services.Provision,
		services.UpdateAcl,
		services.Reverse,
		deps.Gateway,
		logger.With("component", "api"),
	)

	var validator middleware.TokenValidator
	if cfg.Auth.Enabled() {
		var err error
		validator, err = newTokenValidator(ctx, cfg.Auth)
		if err != nil {
			return nil, err
		}
		logger.Info("token validation enabled")
	} else {
		logger.Warn("token validation disabled, API is unauthenticated")
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	return &App{Services: services, Handler: handler, Validator: validator, cfg: cfg, limiter: limiter}, nil
}

// Router builds the HTTP router over the wired handler.
func (a *App) Router() http.Handler {
	return api.NewRouter(a.cfg, a.Handler, a.Validator, a.limiter)
}

// Close releases background resources (the rate limiter's cleanup loop).
func (a *App) Close() {
	a.limiter.Stop()
}

// newTokenValidator picks the validation mechanism from the auth config:
// an OIDC provider when an issuer or JWKS URL is set, a shared HS256
// secret otherwise.
func newTokenValidator(ctx context.Context, cfg config.AuthConfig) (middleware.TokenValidator, error) {
	if cfg.IssuerURL != "" || cfg.JWKSURL != "" {
		return middleware.NewOIDCValidator(ctx, cfg)
	}
	return middleware.NewHS256Validator(cfg.JWTSecret)
}
