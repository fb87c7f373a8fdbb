package tableview

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is a stateless description of a view state, as carried in a URL.
type Query struct {
	Search   string
	SortKey  string
	SortDir  SortDirection
	Page     int
	PageSize int
}

// ParseQuery reads q, sort, dir, page and page_size from URL values.
// Missing or malformed numbers are left at zero.
func ParseQuery(values url.Values) Query {
	q := Query{
		Search:  values.Get("q"),
		SortKey: strings.TrimSpace(values.Get("sort")),
		SortDir: Asc,
	}
	if strings.EqualFold(values.Get("dir"), string(Desc)) {
		q.SortDir = Desc
	}
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.PageSize, _ = strconv.Atoi(values.Get("page_size"))
	return q
}

// Values encodes the query back into URL values, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.SortKey != "" {
		v.Set("sort", q.SortKey)
		v.Set("dir", string(q.SortDir))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// Apply replays the query onto a view. Page size and search go first because
// both reset the page; the requested page is applied last and clamped.
// Invalid page sizes and unsortable keys are ignored.
func (v *View) Apply(q Query) {
	if q.PageSize > 0 {
		_ = v.SetPageSize(q.PageSize)
	}
	if q.Search != "" {
		v.SetSearch(q.Search)
	}
	if q.SortKey != "" {
		_ = v.SetSort(q.SortKey, q.SortDir)
	}
	if q.Page > 0 {
		v.SetPage(q.Page)
	}
}

// Query returns the current state as a Query.
func (v *View) Query() Query {
	return Query{
		Search:   v.search,
		SortKey:  v.sort.Key,
		SortDir:  v.sort.Direction,
		Page:     v.page,
		PageSize: v.pageSize,
	}
}
