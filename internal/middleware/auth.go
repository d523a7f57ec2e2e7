package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/config"
)

// Claims holds the parsed claims of a validated bearer token.
type Claims struct {
	Subject string
	Issuer  string
	Raw     map[string]any
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// HS256Validator validates tokens signed with a shared HS256 secret.
type HS256Validator struct {
	secret []byte
}

// NewHS256Validator creates a validator for local/dev HS256 tokens.
func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate verifies the token signature and extracts its claims.
func (v *HS256Validator) Validate(_ context.Context, token string) (*Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	iss, _ := mapClaims["iss"].(string)
	return &Claims{Subject: sub, Issuer: iss, Raw: mapClaims}, nil
}

// OIDCValidator validates tokens against an OIDC provider's JWKS.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCValidator creates a validator via OIDC issuer discovery, or from
// a raw JWKS URL when discovery is not available.
func NewOIDCValidator(ctx context.Context, cfg config.AuthConfig) (*OIDCValidator, error) {
	oidcCfg := &oidc.Config{ClientID: cfg.Audience}
	if cfg.Audience == "" {
		oidcCfg.SkipClientIDCheck = true
	}
	if cfg.JWKSURL != "" {
		keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		return &OIDCValidator{verifier: oidc.NewVerifier(cfg.IssuerURL, keySet, oidcCfg)}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &OIDCValidator{verifier: provider.Verifier(oidcCfg)}, nil
}

// Validate verifies the token using the provider's JWKS.
func (v *OIDCValidator) Validate(ctx context.Context, token string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	return &Claims{Subject: idToken.Subject, Issuer: idToken.Issuer, Raw: raw}, nil
}

type callerKey struct{}

// CallerFromContext extracts the authenticated caller subject.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok
}

// Auth requires a valid Bearer token on every request. The validated
// subject is stored in the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				claims, err := validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
				if err == nil {
					ctx := context.WithValue(r.Context(), callerKey{}, claims.Subject)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":    http.StatusUnauthorized,
				"message": "unauthorized: provide a valid Bearer token",
			})
		})
	}
}
