package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
	"github.com/JonMunkholm/PayrollDash/internal/web/templates"
)

// ListingResponse is the JSON form of a listing page.
type ListingResponse struct {
	Info  core.ListingInfo     `json:"info"`
	Page  tableview.PageResult `json:"page"`
	Query string               `json:"query"` // encoded view state, reusable as a link
}

// handleListListings returns the registered listings.
func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListListings())
}

// handleListing renders one page of a listing. HTMX requests get the table
// fragment, everything else JSON.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "listingKey")

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

	if isHTMX(r) {
		endpoint := "/api/listings/" + key
		w.Header().Set("HX-Push-Url", "false")
		render(w, r, templates.ListingTable(page, endpoint))
		return
	}

	writeJSON(w, ListingResponse{
		Info:  page.Info,
		Page:  page.Page,
		Query: page.Query.Values().Encode(),
	})
}

// handleCompanyOverview returns all payrolls of a company along with the
// employees whose payrolls could not be loaded.
func (s *Server) handleCompanyOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.service.CompanyPayrollOverview(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, ov)
}
