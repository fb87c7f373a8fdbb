package tables

import (
	"context"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func init() {
	registerEmployeeNFTs()
	registerCompanyNFTs()
}

func nftColumns() []tableview.Column {
	return []tableview.Column{
		{Key: "token_id", Header: "Token", Accessor: text("token_id", "nft.token_id")},
		{
			Key:    "period",
			Header: "Dönem",
			SortValue: func(r tableview.Row) any {
				return text("period_start", "payroll.period_start")(r)
			},
			Render: func(r tableview.Row, _, _ int) string {
				return FormatPeriod(
					text("period_start", "payroll.period_start")(r),
					text("period_end", "payroll.period_end")(r),
				)
			},
		},
		statusColumn(),
		{
			Key:      "tx_hash",
			Header:   "İşlem",
			Accessor: text("tx_hash", "transaction_hash"),
			Sortable: tableview.Unsortable(),
			Render: func(r tableview.Row, _, _ int) string {
				return ShortHash(text("tx_hash", "transaction_hash")(r))
			},
		},
		dateColumn("minted_at", "Basım Tarihi"),
	}
}

func nftActions() []core.RowAction {
	actions := payrollActions()
	// Decrypting belongs to the payroll screens.
	return actions[:3]
}

func registerEmployeeNFTs() {
	core.Register(core.ListingDefinition{
		Info: core.ListingInfo{
			Key:   "employee_nfts",
			Group: "NFT",
			Label: "Çalışan NFT'leri",
			Scope: core.ScopeEmployee,
		},
		Columns:      append([]tableview.Column{serialColumn()}, nftColumns()...),
		Searchable:   true,
		SearchFields: []string{"token_id", "tx_hash", "period_start"},
		RowKeyField:  "token_id",
		StatusFilter: true,
		Actions:      nftActions(),
		Fetch: func(ctx context.Context, b core.Backend, p core.ListingParams) ([]map[string]any, error) {
			return b.EmployeeNFTs(ctx, p.CompanyID, p.EmployeeID)
		},
	})
}

func registerCompanyNFTs() {
	cols := []tableview.Column{
		serialColumn(),
		{Key: "employee_name", Header: "Çalışan", Accessor: text("employee_name", "employee.full_name", "employee.name")},
	}
	core.Register(core.ListingDefinition{
		Info: core.ListingInfo{
			Key:   "company_nfts",
			Group: "NFT",
			Label: "Şirket NFT'leri",
			Scope: core.ScopeCompany,
		},
		Columns:      append(cols, nftColumns()...),
		Searchable:   true,
		SearchFields: []string{"token_id", "tx_hash", "employee_name", "employee.full_name"},
		RowKeyField:  "token_id",
		StatusFilter: true,
		Actions:      nftActions(),
		Fetch: func(ctx context.Context, b core.Backend, p core.ListingParams) ([]map[string]any, error) {
			return b.CompanyNFTs(ctx, p.CompanyID)
		},
	})
}
