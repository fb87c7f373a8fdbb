package templates

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testPage(t *testing.T, rows []tableview.Row, q tableview.Query) *core.ListingPage {
	t.Helper()
	v, err := tableview.New(rows, tableview.Config{
		Columns: []tableview.Column{
			{Key: "name", Header: "Ad"},
			{Key: "note", Header: "Not", Sortable: tableview.Unsortable()},
		},
		Searchable: true,
		PageSizes:  []int{2, 5},
		PageSize:   2,
	})
	require.NoError(t, err)
	v.Apply(q)

	return &core.ListingPage{
		Info:   core.ListingInfo{Key: "things", Label: "Şeyler"},
		Params: core.ListingParams{CompanyID: "c1"},
		Actions: []core.RowAction{
			{
				Key:    "retry",
				Icon:   "refresh",
				Method: http.MethodPost,
				Path: func(r map[string]any, p core.ListingParams) string {
					return "/api/companies/" + p.CompanyID + "/things/" + tableview.Stringify(r["id"]) + "/retry"
				},
				Visible: func(r map[string]any) bool { return r["status"] == "failed" },
			},
		},
		Page:  v.Page(),
		Query: v.Query(),
	}
}

func TestListingTable_EscapesAndLabelsActions(t *testing.T) {
	page := testPage(t, []tableview.Row{
		{"id": "1", "name": "<script>alert(1)</script>", "status": "failed"},
		{"id": "2", "name": "Ayşe", "status": "minted"},
	}, tableview.Query{SortKey: "name", SortDir: tableview.Desc})

	html := renderString(t, ListingTable(page, "/api/listings/things"))

	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")

	// Unlabelled actions fall back to their key.
	assert.Equal(t, 1, strings.Count(html, `hx-post="/api/companies/c1/things/`))
	assert.Contains(t, html, `aria-label="retry" title="retry"`)
	assert.Contains(t, html, `<span aria-hidden="true" class="icon icon-refresh"></span>`)

	assert.Contains(t, html, `aria-sort="descending"`)
	assert.Contains(t, html, "<th scope=\"col\">Not</th>", "unsortable headers get no button")
	assert.Contains(t, html, `<label for="listing-things-controls-q">Ara</label>`)
	assert.Contains(t, html, `<option value="2" selected>2</option>`)
}

func TestListingTable_EmptyAndPagination(t *testing.T) {
	page := testPage(t, []tableview.Row{{"id": "1", "name": "a"}}, tableview.Query{Search: "zzz"})
	html := renderString(t, ListingTable(page, "/api/listings/things"))

	assert.Contains(t, html, `<td class="empty" colspan="3">`)
	assert.Contains(t, html, `aria-label="Önceki sayfa" title="Önceki sayfa" disabled`)
	assert.Contains(t, html, `aria-label="Sonraki sayfa" title="Sonraki sayfa" disabled`)

	rows := []tableview.Row{{"id": "1", "name": "a"}, {"id": "2", "name": "b"}, {"id": "3", "name": "c"}}
	html = renderString(t, ListingTable(testPage(t, rows, tableview.Query{}), "/api/listings/things"))
	assert.Contains(t, html, "Sayfa 1 / 2")
	assert.Contains(t, html, `hx-get="/api/listings/things?company=c1&amp;page=2&amp;page_size=2"`)
}

func TestListingURL(t *testing.T) {
	u := ListingURL("/api/listings/x", core.ListingParams{CompanyID: "c 1", Status: core.MintFailed},
		tableview.Query{Search: "a&b"})
	assert.Equal(t, "/api/listings/x?company=c+1&q=a%26b&status=failed", u)
	assert.Equal(t, "/api/listings/x", ListingURL("/api/listings/x", core.ListingParams{}, tableview.Query{}))
}

func TestErrorAlert(t *testing.T) {
	html := renderString(t, ErrorAlert("Dosya <boş>", "Tekrar deneyin", "FILE004"))
	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "Dosya &lt;boş&gt;")
	assert.Contains(t, html, "(Kod: FILE004)")
}
