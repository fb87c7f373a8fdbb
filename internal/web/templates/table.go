package templates

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

// RefreshEvent is triggered after a row action so open tables reload.
const RefreshEvent = "listing-refresh"

// ListingURL encodes a listing's scope and view state onto endpoint.
func ListingURL(endpoint string, p core.ListingParams, q tableview.Query) string {
	v := q.Values()
	if p.CompanyID != "" {
		v.Set("company", p.CompanyID)
	}
	if p.EmployeeID != "" {
		v.Set("employee", p.EmployeeID)
	}
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if len(v) == 0 {
		return endpoint
	}
	return endpoint + "?" + v.Encode()
}

// TableID is the element id a listing renders into.
func TableID(key string) string {
	return "listing-" + key
}

func controlsID(page *core.ListingPage) string {
	return TableID(page.Info.Key) + "-controls"
}

func columnCount(page *core.ListingPage) int {
	n := len(page.Page.Headers)
	if len(page.Actions) > 0 {
		n++
	}
	return n
}

func ariaSort(hd tableview.Header) string {
	switch {
	case hd.Active && hd.Direction == tableview.Desc:
		return "descending"
	case hd.Active:
		return "ascending"
	}
	return "none"
}

func sortGlyph(hd tableview.Header) string {
	if hd.Direction == tableview.Desc {
		return "▼"
	}
	return "▲"
}

// sortQuery is the view a header click asks for: ascending on a new column,
// flipped on the active one.
func sortQuery(q tableview.Query, hd tableview.Header) tableview.Query {
	q.SortKey = hd.Key
	q.SortDir = tableview.Asc
	if hd.Active && hd.Direction == tableview.Asc {
		q.SortDir = tableview.Desc
	}
	return q
}

func pageQuery(q tableview.Query, n int) tableview.Query {
	q.Page = n
	return q
}

// actionPath is "" when the action does not apply to row.
func actionPath(a core.RowAction, row map[string]any, p core.ListingParams) string {
	if a.Path == nil || (a.Visible != nil && !a.Visible(row)) {
		return ""
	}
	return a.Path(row, p)
}

// isPageLink reports whether the action navigates instead of calling the API.
func isPageLink(a core.RowAction, path string) bool {
	return a.Method == http.MethodGet && !strings.HasPrefix(path, "/api/")
}

func iconName(name string) string {
	if name == "" {
		return "dot"
	}
	return name
}
