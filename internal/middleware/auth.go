package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

const ContextPrincipal = "principal"

// Authenticator resolves a raw bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.Principal, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate verifies the bearer token and stores the principal in the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("unauthenticated"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		p, err := m.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextPrincipal, p)
		c.Next()
	}
}

// RequireCapability rejects callers whose role lacks capability before the handler runs.
func RequireCapability(capability policy.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("unauthenticated"))
			return
		}
		if !policy.Can(p.Role, capability) {
			httputil.RespondWithError(c, apperrors.Forbidden("this action is unauthorized"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller, or nil on public routes.
func PrincipalFrom(c *gin.Context) *model.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*model.Principal)
	return p
}
