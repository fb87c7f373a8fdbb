package web

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
	"github.com/JonMunkholm/PayrollDash/internal/web/templates"
)

// recentImports is how many history entries the dashboard shows.
const recentImports = 5

// render writes a component as an HTML response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// handleDashboard renders the landing page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var groups []templates.ListingGroup
	for _, name := range core.Groups() {
		g := templates.ListingGroup{Name: name}
		for _, def := range core.ByGroup(name) {
			g.Listings = append(g.Listings, def.Info)
		}
		groups = append(groups, g)
	}

	// History is informational here; a failing store must not hide the page.
	recent, err := s.service.ImportHistory(ctx, recentImports)
	if err != nil {
		slog.Warn("dashboard: import history unavailable", "error", err)
	}

	data := templates.DashboardData{
		Groups:  groups,
		Imports: s.service.ImportLimiterStatus(),
		Recent:  recent,
	}
	render(w, r, templates.Layout("Özet", templates.SidebarParams{ActivePage: "dashboard"}, templates.Dashboard(data)))
}

// listingPage serves the full page of one listing. The table itself is
// fetched from the listings API so every later interaction swaps only it.
func (s *Server) listingPage(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := listingParams(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		page, err := s.service.Listing(r.Context(), key, p, tableview.ParseQuery(r.URL.Query()))
		if err != nil {
			s.fail(w, r, err)
			return
		}

		var body templ.Component = templates.ListingTable(page, "/api/listings/"+key)
		if p.CompanyID != "" {
			body = withImportForm(body, p)
		}

		active := ""
		if key == "companies" {
			active = "companies"
		}
		render(w, r, templates.Layout(page.Info.Label, templates.SidebarParams{ActivePage: active}, body))
	}
}

// withImportForm appends the upload form for the listing's scope.
func withImportForm(table templ.Component, p core.ListingParams) templ.Component {
	return templ.Join(table, templates.ImportForm(p.CompanyID, p.EmployeeID))
}

// handleImportsPage renders the upload form and the import history.
func (s *Server) handleImportsPage(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ImportHistory(r.Context(), 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	body := templ.Join(
		templates.ImportForm(q.Get("company"), q.Get("employee")),
		templates.ImportHistory(entries),
	)
	render(w, r, templates.Layout("İçe Aktarmalar", templates.SidebarParams{ActivePage: "imports"}, body))
}

// handleImportPage renders one import session.
func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.GetImport(chi.URLParam(r, "importID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render(w, r, templates.Layout("İçe Aktarma", templates.SidebarParams{ActivePage: "imports"}, templates.ImportStatus(sess)))
}
