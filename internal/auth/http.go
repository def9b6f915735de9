package auth

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
)

// ErrNoAccount is returned by stores when an email or id matches no row.
var ErrNoAccount = errors.New("account not found")

// Credentials is the login-time projection. PasswordHash never travels
// further than VerifyPassword.
type Credentials struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

type CredentialStore interface {
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
}

type Handler struct {
	issuer      *TokenIssuer
	credentials CredentialStore
}

func NewHandler(issuer *TokenIssuer, credentials CredentialStore) *Handler {
	return &Handler{issuer: issuer, credentials: credentials}
}

// Register mounts login/logout. /me is mounted separately behind RequireAuth.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/auth/login", h.login)
	r.POST("/auth/logout", h.logout)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpapi.Fail(c, httpapi.ValidationError("email and password are required", nil))
		return
	}
	// Malformed email is a request error, not a failed login; it never
	// reaches the store.
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("email must be a valid address", nil))
		return
	}

	creds, err := h.credentials.FindCredentials(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrNoAccount) {
			// Same response as a wrong password or a disabled account.
			httpapi.Fail(c, httpapi.InvalidCredentials())
			return
		}
		httpapi.Fail(c, err)
		return
	}

	if creds.Status != StatusActive || !VerifyPassword(creds.PasswordHash, req.Password) {
		httpapi.Fail(c, httpapi.InvalidCredentials())
		return
	}

	token, err := h.issuer.Issue(creds.ID, creds.Role)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	SetSessionCookie(c.Writer, token, SessionTTL)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// logout clears the cookie and nothing else. The token itself stays valid
// until expiry; there is no server-side revocation list.
func (h *Handler) logout(c *gin.Context) {
	ClearSessionCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the resolved caller identity for the current session.
func Me(c *gin.Context) {
	p, ok := CurrentUser(c)
	if !ok {
		httpapi.Fail(c, httpapi.Unauthorized())
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}
