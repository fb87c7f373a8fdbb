// Package templates holds the dashboard's templ components. The *_templ.go
// files are generated from the .templ sources with `templ generate`.
package templates

// NavLink is one sidebar entry.
type NavLink struct {
	Label  string
	Href   string
	Active bool
}

// SidebarParams selects the highlighted sidebar entry.
type SidebarParams struct {
	ActivePage string // "dashboard", "companies", "imports"
}

// Links returns the fixed sidebar entries.
func (p SidebarParams) Links() []NavLink {
	return []NavLink{
		{Label: "Özet", Href: "/", Active: p.ActivePage == "dashboard"},
		{Label: "Şirketler", Href: "/companies", Active: p.ActivePage == "companies"},
		{Label: "İçe Aktarmalar", Href: "/imports", Active: p.ActivePage == "imports"},
	}
}
