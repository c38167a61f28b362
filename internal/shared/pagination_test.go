package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageQuery(t *testing.T) {
	q := ParsePageQuery(url.Values{"page": {"2"}, "size": {"10"}})
	limit, offset, ok := q.LimitOffset()
	assert.True(t, ok)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}

func TestParsePageQueryAbsentOrMalformed(t *testing.T) {
	q := ParsePageQuery(url.Values{})
	_, _, ok := q.LimitOffset()
	assert.False(t, ok)

	q = ParsePageQuery(url.Values{"page": {"abc"}, "size": {"10"}})
	_, _, ok = q.LimitOffset()
	assert.False(t, ok)
}

func TestNewPageMeta(t *testing.T) {
	page, size := 0, 4
	meta := NewPageMeta(PageQuery{Page: &page, Size: &size}, 10)
	assert.Equal(t, 10, meta.TotalRecords)
	assert.Equal(t, 3, meta.TotalPages)

	meta = NewPageMeta(PageQuery{Page: &page, Size: &size}, 0)
	assert.Equal(t, 1, meta.TotalPages)

	meta = NewPageMeta(PageQuery{}, 10)
	assert.Equal(t, 1, meta.TotalPages)
	assert.Nil(t, meta.Page)
}

func TestQueryIntMalformed(t *testing.T) {
	assert.Nil(t, QueryInt(url.Values{"month": {"three"}}, "month"))
	assert.Nil(t, QueryInt(url.Values{}, "month"))
	v := QueryInt(url.Values{"month": {"3"}}, "month")
	if assert.NotNil(t, v) {
		assert.Equal(t, 3, *v)
	}
}
