package users

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
	"github.com/adminboard/go-admin-backend/internal/auth"
)

var sortFields = map[string]string{
	"createdAt": "created_at",
	"email":     "email",
}

type Handler struct {
	store Store
}

// Register mounts the users collection. The group is expected to carry
// RequireAuth already; mutations add the admin gate here.
func Register(rg *gin.RouterGroup, store Store) {
	h := &Handler{store: store}

	rg.GET("", h.list)

	admin := rg.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("", h.create)
	admin.PATCH("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q, err := httpapi.ParseListQuery(c, sortFields, "createdAt")
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	items, total, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, httpapi.ListResponse[User]{
		Items:    items,
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
	})
}

type createReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("invalid request body", nil))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("email must be a valid address", nil))
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleViewer
	}
	if req.Role != auth.RoleAdmin && req.Role != auth.RoleViewer {
		httpapi.Fail(c, httpapi.ValidationError("role must be admin or viewer", nil))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpapi.Fail(c, passwordError(err))
		return
	}

	created, err := h.store.Create(c.Request.Context(), NewUser{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": created})
}

// passwordError maps the length sentinels from HashPassword to precise
// client messages; anything else falls through as an internal error.
func passwordError(err error) error {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return httpapi.ValidationError("password must be at least 6 characters", nil)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return httpapi.ValidationError("password must be at most 72 characters", nil)
	default:
		return err
	}
}

type updateReq struct {
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("id must be a UUID", nil))
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("invalid request body", nil))
		return
	}

	if req.Role != nil && *req.Role != auth.RoleAdmin && *req.Role != auth.RoleViewer {
		httpapi.Fail(c, httpapi.ValidationError("role must be admin or viewer", nil))
		return
	}
	if req.Status != nil && *req.Status != auth.StatusActive && *req.Status != auth.StatusDisabled {
		httpapi.Fail(c, httpapi.ValidationError("status must be active or disabled", nil))
		return
	}

	patch := Patch{Role: req.Role, Status: req.Status}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httpapi.Fail(c, passwordError(err))
			return
		}
		patch.PasswordHash = &hash
	}

	updated, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpapi.Fail(c, httpapi.NotFound("user not found"))
			return
		}
		httpapi.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("id must be a UUID", nil))
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpapi.Fail(c, httpapi.NotFound("user not found"))
			return
		}
		httpapi.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
