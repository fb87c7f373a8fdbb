package tables

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func init() {
	registerPayrolls()
	registerCompanyPayrolls()
}

func payrollColumns() []tableview.Column {
	return []tableview.Column{
		{
			Key:       "period",
			Header:    "Dönem",
			SortValue: func(r tableview.Row) any { return r["period_start"] },
			Render: func(r tableview.Row, _, _ int) string {
				return FormatPeriod(r["period_start"], r["period_end"])
			},
		},
		dateColumn("payment_date", "Ödeme Tarihi"),
		moneyColumn("gross_salary", "Brüt"),
		moneyColumn("net_salary", "Net"),
		{Key: "currency", Header: "Para Birimi"},
		statusColumn(),
	}
}

// payrollRef resolves the payroll a row refers to. NFT rows carry the
// payroll id under payroll_id; overview rows carry their employee.
func payrollRef(r map[string]any, p core.ListingParams) core.PayrollRef {
	ref := core.PayrollRef{
		CompanyID:  p.CompanyID,
		EmployeeID: p.EmployeeID,
		PayrollID:  tableview.Stringify(text("payroll_id", "payroll.id", "id")(r)),
	}
	if e := tableview.Stringify(text("employee_id", "employee.id")(r)); e != "" {
		ref.EmployeeID = e
	}
	return ref
}

func payrollActionPath(action string) func(map[string]any, core.ListingParams) string {
	return func(r map[string]any, p core.ListingParams) string {
		ref := payrollRef(r, p)
		if ref.CompanyID == "" || ref.EmployeeID == "" || ref.PayrollID == "" {
			return ""
		}
		return "/api/companies/" + ref.CompanyID + "/employees/" + ref.EmployeeID +
			"/payrolls/" + ref.PayrollID + "/" + action
	}
}

func payrollActions() []core.RowAction {
	return []core.RowAction{
		{
			Key:     "queue",
			Label:   "NFT basımını kuyruğa al",
			Icon:    "send",
			Method:  http.MethodPost,
			Path:    payrollActionPath("mint"),
			Visible: func(r map[string]any) bool { return core.StatusOf(r).CanQueue() },
		},
		{
			Key:     "retry",
			Label:   "NFT basımını yeniden dene",
			Icon:    "refresh",
			Method:  http.MethodPost,
			Path:    payrollActionPath("retry"),
			Visible: func(r map[string]any) bool { return core.StatusOf(r).CanRetry() },
		},
		{
			Key:    "status",
			Label:  "NFT durumunu yenile",
			Icon:   "activity",
			Method: http.MethodGet,
			Path:   payrollActionPath("status"),
		},
		{
			Key:    "decrypt",
			Label:  "Bordroyu çöz ve görüntüle",
			Icon:   "lock-open",
			Method: http.MethodPost,
			Path:   payrollActionPath("decrypt"),
		},
	}
}

func registerPayrolls() {
	core.Register(core.ListingDefinition{
		Info: core.ListingInfo{
			Key:   "payrolls",
			Group: "Bordro",
			Label: "Bordrolar",
			Scope: core.ScopeEmployee,
		},
		Columns:      append([]tableview.Column{serialColumn()}, payrollColumns()...),
		Searchable:   true,
		SearchFields: []string{"period_start", "period_end", "payment_date", "external_ref", "batch_id"},
		StatusFilter: true,
		Actions:      payrollActions(),
		Fetch: func(ctx context.Context, b core.Backend, p core.ListingParams) ([]map[string]any, error) {
			return b.Payrolls(ctx, p.CompanyID, p.EmployeeID)
		},
	})
}

func registerCompanyPayrolls() {
	cols := []tableview.Column{
		serialColumn(),
		{Key: "employee_name", Header: "Çalışan"},
	}
	core.Register(core.ListingDefinition{
		Info: core.ListingInfo{
			Key:   "company_payrolls",
			Group: "Bordro",
			Label: "Tüm Bordrolar",
			Scope: core.ScopeCompany,
		},
		Columns:      append(cols, payrollColumns()...),
		Searchable:   true,
		SearchFields: []string{"employee_name", "period_start", "period_end", "external_ref"},
		StatusFilter: true,
		Actions:      payrollActions(),
		Fetch: func(ctx context.Context, b core.Backend, p core.ListingParams) ([]map[string]any, error) {
			ov, err := core.CollectCompanyPayrolls(ctx, b, p.CompanyID, p.Fanout)
			if err != nil {
				return nil, err
			}
			return ov.Rows, nil
		},
	})
}
