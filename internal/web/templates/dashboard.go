package templates

import (
	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/store"
)

// ListingGroup is one menu group on the dashboard.
type ListingGroup struct {
	Name     string
	Listings []core.ListingInfo
}

// DashboardData is everything the landing page shows.
type DashboardData struct {
	Groups  []ListingGroup
	Imports core.ImportLimiterStatus
	Recent  []store.Entry
}

// ListingHref is the page of a listing that needs no scope, or "".
func ListingHref(info core.ListingInfo) string {
	if info.Scope != core.ScopeGlobal {
		return ""
	}
	return "/" + info.Key
}

func scopeHint(s core.ListingScope) string {
	switch s {
	case core.ScopeEmployee:
		return "(şirket ve çalışan seçin)"
	case core.ScopeCompany:
		return "(şirket seçin)"
	}
	return ""
}
