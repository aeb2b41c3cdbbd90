package utils

import (
	"net/http"
	"strconv"
)

// DefaultPageSize is the default number of items per page
const DefaultPageSize = 50

// MaxPageSize is the maximum number of items per page
const MaxPageSize = 200

// Page is a parsed page/page_size pair
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows before this page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage reads page and page_size from the query string. It returns
// false when neither is present so listings can default to everything.
func ParsePage(r *http.Request) (Page, bool) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("page_size") == "" {
		return Page{}, false
	}

	p := Page{
		Number: parseIntQuery(q.Get("page"), 1),
		Size:   parseIntQuery(q.Get("page_size"), DefaultPageSize),
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p, true
}

// QueryBool parses an optional boolean query parameter; nil when absent or
// not a boolean
func QueryBool(r *http.Request, name string) *bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func parseIntQuery(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
