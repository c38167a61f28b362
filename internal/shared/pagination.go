// Package shared holds small helpers used across domain packages.
package shared

import (
	"math"
	"net/url"
	"strconv"
)

// PageQuery carries the optional page/size pair parsed from a request. Nil
// means the parameter was absent or unparseable, which callers treat as "no
// pagination".
type PageQuery struct {
	Page *int
	Size *int
}

// ParsePageQuery reads page and size from query values. Pages are zero-based
// to match the clients this API serves.
func ParsePageQuery(values url.Values) PageQuery {
	return PageQuery{Page: QueryInt(values, "page"), Size: QueryInt(values, "size")}
}

// QueryInt parses an optional integer query parameter. Absent or malformed
// values yield nil rather than an error.
func QueryInt(values url.Values, key string) *int {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// LimitOffset resolves the pair into SQL limit/offset. ok is false when
// either half is missing, meaning the whole result set should be returned.
func (q PageQuery) LimitOffset() (limit, offset int, ok bool) {
	if q.Page == nil || q.Size == nil {
		return 0, 0, false
	}
	return *q.Size, *q.Page * *q.Size, true
}

// PageMeta is the pagination block returned alongside listings.
type PageMeta struct {
	TotalRecords int  `json:"totalRecords"`
	Page         *int `json:"page"`
	Size         *int `json:"size"`
	TotalPages   int  `json:"totalPages"`
}

// NewPageMeta computes pagination metadata. Without a size the listing is a
// single page.
func NewPageMeta(q PageQuery, total int) PageMeta {
	pages := 1
	if q.Size != nil && *q.Size > 0 {
		pages = int(math.Ceil(float64(total) / float64(*q.Size)))
		if pages < 1 {
			pages = 1
		}
	}
	return PageMeta{TotalRecords: total, Page: q.Page, Size: q.Size, TotalPages: pages}
}
