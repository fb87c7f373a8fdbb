package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/core"
)

func TestLayout_MarksActivePage(t *testing.T) {
	html := renderString(t, Layout("Şirketler", SidebarParams{ActivePage: "companies"}, Notice("success", "tamam")))

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, "<title>Şirketler · Bordro Paneli</title>")
	assert.Contains(t, html, `<a href="/companies" aria-current="page">Şirketler</a>`)
	assert.Contains(t, html, `<a href="/">Özet</a>`)
	assert.Contains(t, html, `<div class="alert alert-success" role="status"><p>tamam</p></div>`)
	assert.Equal(t, 1, strings.Count(html, `aria-current="page"`))
}

func TestImportStatus_PollsOnlyWhileSubmitting(t *testing.T) {
	sess := &core.ImportSession{
		ID:       "abc",
		FileName: "bordro.json",
		Phase:    core.PhaseSubmitting,
		Progress: core.ImportProgress{ImportID: "abc", Processed: 1, Total: 4},
	}
	html := renderString(t, ImportStatus(sess))
	assert.Contains(t, html, `<div class="import" id="import-abc" hx-get="/api/imports/abc" hx-trigger="every 1s"`)
	assert.Contains(t, html, "Gönderiliyor: 1 / 4")
	assert.Contains(t, html, `max="4" value="1">25%</progress>`)

	sess.Phase = core.PhaseComplete
	sess.Result = &bulkimport.Result{Success: 3, Failed: 1, Chunks: 1, Errors: []string{"<satır 2>"}}
	html = renderString(t, ImportStatus(sess))
	assert.NotContains(t, html, "every 1s")
	assert.Contains(t, html, "<dt>Başarılı</dt><dd>3</dd>")
	assert.Contains(t, html, "<li>&lt;satır 2&gt;</li>")
	assert.NotContains(t, html, "Bordro grubu")
}

func TestImportPreview_DisablesConfirmWithoutValidRecords(t *testing.T) {
	sess := &core.ImportSession{
		ID:    "x1",
		Phase: core.PhasePreviewed,
		Preview: &bulkimport.Preview{
			Total:        1,
			InvalidCount: 1,
			InvalidItems: []bulkimport.InvalidItem{{Index: 1, Summary: "Ali", Errors: []string{"net_salary eksik"}}},
		},
	}
	html := renderString(t, ImportPreview(sess))
	assert.Contains(t, html, `hx-post="/api/imports/x1/confirm" hx-target="#import-x1" hx-swap="outerHTML" disabled>0 kaydı gönder</button>`)
	assert.Contains(t, html, "<caption>Hatalı kayıtlar</caption>")
	assert.Contains(t, html, "<li>net_salary eksik</li>")

	sess.Preview.ValidCount = 2
	html = renderString(t, ImportPreview(sess))
	assert.NotContains(t, html, "disabled")
	assert.Contains(t, html, ">2 kaydı gönder</button>")

	assert.Empty(t, renderString(t, ImportPreview(&core.ImportSession{ID: "x2"})))
}

func TestDocument_EscapesValues(t *testing.T) {
	doc := map[string]any{"employee_name": "<b>Ayşe</b>", "net_salary": 1500.5, "missing": nil}
	html := renderString(t, Document("Bordro p1", doc, []string{"employee_name", "net_salary", "missing"}))

	assert.Contains(t, html, `<dialog id="details" open aria-labelledby="details-title">`)
	assert.Contains(t, html, "<dt>employee_name</dt><dd>&lt;b&gt;Ayşe&lt;/b&gt;</dd>")
	assert.Contains(t, html, "<dt>missing</dt><dd></dd>")
	assert.Contains(t, html, `aria-label="Kapat" title="Kapat"`)
}

func TestDashboard_LinksOnlyGlobalListings(t *testing.T) {
	html := renderString(t, Dashboard(DashboardData{
		Groups: []ListingGroup{{Name: "Şirket", Listings: []core.ListingInfo{
			{Key: "companies", Label: "Şirketler", Scope: core.ScopeGlobal},
			{Key: "employees", Label: "Çalışanlar", Scope: core.ScopeCompany},
		}}},
		Imports: core.ImportLimiterStatus{Active: 1, MaxConcurrent: 4},
	}))

	assert.Contains(t, html, `<a href="/companies">Şirketler</a>`)
	assert.Contains(t, html, "Çalışanlar <small>(şirket seçin)</small>")
	assert.Contains(t, html, "Etkin: 1 / 4")
	assert.Contains(t, html, "Henüz içe aktarma yapılmadı.")
}
