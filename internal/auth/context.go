package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Role and status enumerations shared by the identity layer and the users
// collection. Both are closed sets; there is no role hierarchy — admin and
// viewer are disjoint.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Principal is the resolved caller identity for one request. It lives in the
// gin context only and is discarded with the request.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Account is the projection the middleware loads when resolving a session
// token back to a user row.
type Account struct {
	ID     string
	Email  string
	Role   string
	Status string
}

// AccountResolver re-resolves the token subject against the store on every
// request, so a disabled account's still-valid token is rejected on next use.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, id string) (*Account, error)
}

const ctxPrincipal = "auth_principal"

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(ctxPrincipal, p)
}

// CurrentUser returns the principal attached by RequireAuth, if any.
func CurrentUser(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
