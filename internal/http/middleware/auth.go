package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/onboarding"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// Context keys for gin.Context.
const (
	ContextPrincipalKey = "principal"
	ContextClaimsKey    = "tokenClaims"
)

// AuthMiddleware verifies the bearer token, resolves its live account,
// and enforces the cleaner onboarding gate. requiredRoles narrows the
// route to specific roles; empty means any authenticated principal.
func AuthMiddleware(tokens *service.TokenService, auth *service.AuthService, gate *onboarding.Gate, requiredRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			Abort(c, apperror.ErrUnauthorized)
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			Abort(c, err)
			return
		}

		if len(requiredRoles) > 0 {
			allowed := false
			for _, role := range requiredRoles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				Abort(c, apperror.RoleMismatch(rolesLabel(requiredRoles), string(claims.Role)))
				return
			}
		}

		principal, err := auth.Principal(c.Request.Context(), claims)
		if err != nil {
			Abort(c, err)
			return
		}

		if gate != nil && onboarding.Applies(claims.Role, c.Request.Method, c.FullPath()) {
			if err := gate.Check(c.Request.Context(), claims.AccountID, claims.TokenID, claims.IssuedAt); err != nil {
				Abort(c, err)
				return
			}
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

func rolesLabel(roles []models.Role) string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return strings.Join(names, " or ")
}

// Principal returns the authenticated account stored by AuthMiddleware.
func Principal(c *gin.Context) (*models.Account, error) {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return nil, apperror.ErrUnauthorized
	}
	account, ok := v.(*models.Account)
	if !ok {
		return nil, apperror.ErrUnauthorized
	}
	return account, nil
}
