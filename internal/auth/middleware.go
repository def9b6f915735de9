package auth

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
)

// RequireAuth resolves the caller from the session cookie and attaches a
// Principal to the request context. Every failure mode — missing cookie, bad
// signature, expired token, unknown or disabled account — collapses into the
// same 401 so nothing is leaked about which precondition failed.
func RequireAuth(issuer *TokenIssuer, accounts AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}

		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie == "" {
			httpapi.Fail(c, httpapi.Unauthorized())
			return
		}

		claims, err := issuer.Verify(cookie)
		if err != nil {
			httpapi.Fail(c, httpapi.Unauthorized())
			return
		}

		account, err := accounts.ResolveAccount(c.Request.Context(), claims.Subject)
		if err != nil || account == nil || account.Status != StatusActive {
			httpapi.Fail(c, httpapi.Unauthorized())
			return
		}

		setPrincipal(c, Principal{ID: account.ID, Email: account.Email, Role: account.Role})
		c.Next()
	}
}

// RequireRole enforces an exact role match on the principal attached by
// RequireAuth, which must run earlier in the chain.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentUser(c)
		if !ok {
			httpapi.Fail(c, httpapi.Unauthorized())
			return
		}
		if p.Role != role {
			httpapi.Fail(c, httpapi.Forbidden())
			return
		}
		c.Next()
	}
}
