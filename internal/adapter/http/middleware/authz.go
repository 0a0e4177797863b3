package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

const identityKey = "identity"

// TokenParser verifies a bearer token and returns the identity it carries.
type TokenParser interface {
	Parse(raw string) (domain.Identity, error)
}

type Authz struct {
	tokens TokenParser
}

func NewAuthz(tokens TokenParser) *Authz {
	return &Authz{tokens: tokens}
}

// Require checks the bearer token and that its role is one of roles.
// The decoded identity is stored on the context for handlers.
func (a *Authz) Require(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(auth, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			unauth(c, "invalid_request", "No token")
			return
		}

		id, err := a.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			unauth(c, "invalid_token", "Invalid token")
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, id.Role) {
			forbidden(c, "Wrong user type")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Require.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

func unauth(c *gin.Context, code, msg string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

func forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": msg})
}
