package post

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListParams(t *testing.T) {
	cases := []struct {
		name          string
		page, limit   string
		expectedPage  int
		expectedLimit int
	}{
		{"Should use defaults when absent", "", "", 1, 10},
		{"Should parse numeric values", "3", "25", 3, 25},
		{"Should use defaults for non numeric values", "abc", "x", 1, 10},
		{"Should use defaults for zero", "0", "0", 1, 10},
		{"Should clamp negative page", "-2", "5", 1, 5},
		{"Should default negative limit", "2", "-5", 2, 10},
		{"Should cap large limits", "1", "1000", 1, 100},
		{"Should read the leading integer", "2abc", "5.0", 2, 5},
		{"Should ignore leading whitespace", " 4", "\t7", 4, 7},
		{"Should cap huge pages", "922337203685477581", "100", MaxPage, 100},
		{"Should saturate pages beyond the int range", "99999999999999999999999", "10", MaxPage, 10},
		{"Should clamp pages below the int range", "-99999999999999999999999", "10", 1, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ParseListParams(tc.page, tc.limit)
			assert.Equal(t, tc.expectedPage, p.Page)
			assert.Equal(t, tc.expectedLimit, p.Limit)
		})
	}
}

func TestNewPagination(t *testing.T) {
	t.Run("Should round total pages up", func(t *testing.T) {
		p := NewPagination(ListParams{Page: 1, Limit: 10}, 21)
		assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 3, TotalPosts: 21, HasNext: true, HasPrev: false}, p)
	})

	t.Run("Should report no next page on the last page", func(t *testing.T) {
		p := NewPagination(ListParams{Page: 3, Limit: 10}, 21)
		assert.False(t, p.HasNext)
		assert.True(t, p.HasPrev)
	})

	t.Run("Should handle an empty table", func(t *testing.T) {
		p := NewPagination(ListParams{Page: 1, Limit: 10}, 0)
		assert.Equal(t, 0, p.TotalPages)
		assert.False(t, p.HasNext)
		assert.False(t, p.HasPrev)
	})

	t.Run("Should compute offsets", func(t *testing.T) {
		assert.Equal(t, 20, ListParams{Page: 3, Limit: 10}.Offset())
	})

	t.Run("Should keep the offset positive for the largest page", func(t *testing.T) {
		p := ParseListParams("922337203685477581", "100")
		assert.Positive(t, p.Offset())
		assert.Positive(t, ParseListParams(strconv.Itoa(math.MaxInt), "100").Offset())
	})
}

func TestSummary(t *testing.T) {
	t.Run("Should keep short content", func(t *testing.T) {
		assert.Equal(t, "short", Summary("short", 200))
	})

	t.Run("Should cut on rune boundaries", func(t *testing.T) {
		assert.Equal(t, "héll...", Summary("héllo wörld", 4))
	})
}

func TestEscape(t *testing.T) {
	t.Run("Should escape every HTML significant character", func(t *testing.T) {
		assert.Equal(t, "&amp;&lt;&gt;&quot;&#x27;&#x2F;&#x5C;&#96;", Escape("&<>\"'/\\`"))
	})
}
