package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListQuery carries a validated list request: free-text filter, pagination
// window and sort order. Field has already been checked against the
// collection's allow-list, so it is safe to interpolate into ORDER BY.
type ListQuery struct {
	Q         string
	Page      int
	PageSize  int
	SortField string
	SortDesc  bool
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// LikeTerm returns Q with the ILIKE metacharacters escaped, so the
// free-text filter matches substrings literally: "50%" only matches rows
// containing "50%", not everything.
func (q ListQuery) LikeTerm() string {
	return likeEscaper.Replace(q.Q)
}

// ParseListQuery validates q/page/pageSize/sort before any store access.
// allowedSort maps external sort names to column names (e.g. "createdAt" ->
// "created_at"); the first entry of defaults is used when sort is absent.
func ParseListQuery(c *gin.Context, allowedSort map[string]string, defaultField string) (ListQuery, error) {
	out := ListQuery{
		Q:        strings.TrimSpace(c.Query("q")),
		Page:     defaultPage,
		PageSize: defaultPageSize,
	}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return ListQuery{}, ValidationError("page must be an integer >= 1", nil)
		}
		out.Page = n
	}

	if raw := c.Query("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			return ListQuery{}, ValidationError("pageSize must be between 1 and 100", nil)
		}
		out.PageSize = n
	}

	field, desc, err := parseSort(c.Query("sort"), allowedSort, defaultField)
	if err != nil {
		return ListQuery{}, err
	}
	out.SortField = field
	out.SortDesc = desc

	return out, nil
}

func parseSort(raw string, allowed map[string]string, defaultField string) (string, bool, error) {
	if raw == "" {
		return allowed[defaultField], true, nil
	}

	field, direction, ok := strings.Cut(raw, ":")
	if !ok {
		return "", false, ValidationError("sort must be field:direction", nil)
	}

	column, ok := allowed[field]
	if !ok {
		return "", false, ValidationError("Invalid sort field", nil)
	}

	switch direction {
	case "asc":
		return column, false, nil
	case "desc":
		return column, true, nil
	default:
		return "", false, ValidationError("Invalid sort direction", nil)
	}
}

// ListResponse is the envelope every collection list returns.
type ListResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}
