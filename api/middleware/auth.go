package middleware

import (
	"errors"
	"fmt"
	"strings"

	"edusync/api/ctxutil"
	"edusync/api/response"
	"edusync/config"
	"edusync/domain/identity"
	"edusync/domain/shared"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims bearer token claims. The subject is the caller's user id.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves the caller identity from an HS256 bearer token.
// Tokens are issued elsewhere; only validation happens here.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator fails when no secret is configured.
func NewAuthenticator(cfg *config.AuthConfig) (*Authenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Resolve validates token and builds the caller identity.
func (a *Authenticator) Resolve(token string) (identity.Identity, error) {
	var claims Claims
	_, err := a.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return identity.Identity{}, shared.NewUnauthorizedError("invalid bearer token: " + err.Error())
	}
	return identity.New(claims.Subject, claims.Role, claims.Email)
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved identity for the handlers.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.HandleAppError(c, shared.NewUnauthorizedError("missing bearer token"))
			return
		}

		caller, err := a.Resolve(strings.TrimSpace(token))
		if err != nil {
			response.HandleAppError(c, err)
			return
		}

		ctxutil.SetIdentity(c, caller)
		c.Next()
	}
}
