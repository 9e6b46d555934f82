package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Page describes one page of a filtered listing.
type Page struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPage clamps the requested page into [1, TotalPages].
func NewPage(requested, perPage int, total int64) Page {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if requested < 1 {
		requested = 1
	}
	if totalPages > 0 && requested > totalPages {
		requested = totalPages
	}
	return Page{Page: requested, PerPage: perPage, Total: total, TotalPages: totalPages}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// QueryInt reads an integer query parameter, returning def when absent or malformed.
func QueryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// QueryUint reads an optional id filter.
func QueryUint(c *gin.Context, key string) *uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}

// QueryBool reads an optional boolean filter.
func QueryBool(c *gin.Context, key string) *bool {
	v, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &v
}

// QueryDate reads a yyyy-mm-dd query parameter in local time.
func QueryDate(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// LikePattern lowercases a search term for a LOWER(col) LIKE ? match.
func LikePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
