package tables

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func init() {
	registerCompanies()
	registerEmployees()
}

func rowID(r map[string]any) string {
	return tableview.Stringify(r["id"])
}

func registerCompanies() {
	core.Register(core.ListingDefinition{
		Info: core.ListingInfo{
			Key:   "companies",
			Group: "Bordro",
			Label: "Şirketler",
			Scope: core.ScopeGlobal,
		},
		Columns: []tableview.Column{
			serialColumn(),
			{Key: "name", Header: "Şirket", Accessor: text("name", "title", "legal_name")},
			{Key: "tax_number", Header: "Vergi No", Accessor: text("tax_number", "tax_id", "vkn")},
			{Key: "employee_count", Header: "Çalışan"},
			dateColumn("created_at", "Oluşturulma"),
		},
		Searchable:   true,
		SearchFields: []string{"name", "title", "legal_name", "tax_number", "tax_id"},
		Actions: []core.RowAction{
			{
				Key:    "employees",
				Label:  "Çalışanları göster",
				Icon:   "users",
				Method: http.MethodGet,
				Path: func(r map[string]any, _ core.ListingParams) string {
					return "/companies/" + rowID(r) + "/employees"
				},
			},
			{
				Key:    "nfts",
				Label:  "Şirket NFT'lerini göster",
				Icon:   "gem",
				Method: http.MethodGet,
				Path: func(r map[string]any, _ core.ListingParams) string {
					return "/companies/" + rowID(r) + "/nfts"
				},
			},
		},
		Fetch: func(ctx context.Context, b core.Backend, _ core.ListingParams) ([]map[string]any, error) {
			return b.Companies(ctx)
		},
	})
}

func registerEmployees() {
	core.Register(core.ListingDefinition{
		Info: core.ListingInfo{
			Key:   "employees",
			Group: "Bordro",
			Label: "Çalışanlar",
			Scope: core.ScopeCompany,
		},
		Columns: []tableview.Column{
			serialColumn(),
			{
				Key:      "full_name",
				Header:   "Ad Soyad",
				Accessor: func(r tableview.Row) any { return core.EmployeeName(r) },
			},
			{
				Key:    "national_id",
				Header: "TC Kimlik No",
				Render: func(r tableview.Row, _, _ int) string { return MaskNationalID(r["national_id"]) },
			},
			{Key: "title", Header: "Unvan", Accessor: text("title", "position")},
			{Key: "email", Header: "E-posta"},
			dateColumn("start_date", "İşe Giriş"),
		},
		Searchable:   true,
		SearchFields: []string{"full_name", "name", "first_name", "last_name", "national_id", "email", "title"},
		Actions: []core.RowAction{
			{
				Key:    "payrolls",
				Label:  "Bordroları göster",
				Icon:   "file-text",
				Method: http.MethodGet,
				Path: func(r map[string]any, p core.ListingParams) string {
					return "/companies/" + p.CompanyID + "/employees/" + rowID(r) + "/payrolls"
				},
			},
			{
				Key:    "nfts",
				Label:  "Çalışan NFT'lerini göster",
				Icon:   "gem",
				Method: http.MethodGet,
				Path: func(r map[string]any, p core.ListingParams) string {
					return "/companies/" + p.CompanyID + "/employees/" + rowID(r) + "/nfts"
				},
			},
		},
		Fetch: func(ctx context.Context, b core.Backend, p core.ListingParams) ([]map[string]any, error) {
			return b.Employees(ctx, p.CompanyID)
		},
	})
}
