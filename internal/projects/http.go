package projects

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
	"github.com/adminboard/go-admin-backend/internal/auth"
)

var sortFields = map[string]string{
	"createdAt": "created_at",
	"key":       "key",
	"name":      "name",
}

const (
	minKeyLength = 2
	maxKeyLength = 20
)

type Handler struct {
	store Store
}

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

	c.JSON(http.StatusOK, httpapi.ListResponse[Project]{
		Items:    items,
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
	})
}

type createReq struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("invalid request body", nil))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Key = strings.TrimSpace(req.Key)
	if req.Name == "" {
		httpapi.Fail(c, httpapi.ValidationError("name is required", nil))
		return
	}
	if len(req.Key) < minKeyLength || len(req.Key) > maxKeyLength {
		httpapi.Fail(c, httpapi.ValidationError("key must be 2-20 characters", nil))
		return
	}

	created, err := h.store.Create(c.Request.Context(), NewProject{Name: req.Name, Key: req.Key})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": created})
}

type updateReq struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
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

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		httpapi.Fail(c, httpapi.ValidationError("name must not be empty", nil))
		return
	}
	if req.Status != nil && *req.Status != StatusActive && *req.Status != StatusArchived {
		httpapi.Fail(c, httpapi.ValidationError("status must be active or archived", nil))
		return
	}

	updated, err := h.store.Update(c.Request.Context(), id, Patch{Name: req.Name, Status: req.Status})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpapi.Fail(c, httpapi.NotFound("project not found"))
			return
		}
		httpapi.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": updated})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		httpapi.Fail(c, httpapi.ValidationError("id must be a UUID", nil))
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpapi.Fail(c, httpapi.NotFound("project not found"))
			return
		}
		httpapi.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
