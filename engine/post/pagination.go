package post

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside int for every accepted limit.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// ListParams selects one page of posts.
type ListParams struct {
	Page  int
	Limit int
}

// ParseListParams coerces raw query values. Only the leading integer of each
// value counts, so "2abc" is 2 and "5.0" is 5. Missing, non-numeric or zero
// values use the defaults; a negative page becomes 1, a negative limit uses
// the default, page is capped at MaxPage and limit at MaxLimit.
func ParseListParams(rawPage, rawLimit string) ListParams {
	page, ok := leadingInt(rawPage)
	if !ok || page == 0 {
		page = DefaultPage
	}
	page = min(max(page, 1), MaxPage)
	limit, ok := leadingInt(rawLimit)
	if !ok || limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	return ListParams{Page: page, Limit: limit}
}

// leadingInt reads an optionally signed run of digits after leading
// whitespace. Values beyond the int range saturate.
func leadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, strconv.IntSize)
	if errors.Is(err, strconv.ErrRange) {
		if s[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Offset returns the number of rows skipped before this page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits in the full listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalPosts  int  `json:"totalPosts"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewPagination computes the pagination block for total rows.
func NewPagination(params ListParams, total int) Pagination {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}
	return Pagination{
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		TotalPosts:  total,
		HasNext:     params.Page < totalPages,
		HasPrev:     params.Page > 1,
	}
}

// Page is one page of posts with its pagination block.
type Page struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}
