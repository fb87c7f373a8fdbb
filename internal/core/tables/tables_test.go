package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		v        any
		currency string
		want     string
	}{
		{30000.5, "TRY", "30.000,50 ₺"},
		{float64(999), "", "999,00 ₺"},
		{1234567.891, "usd", "1.234.567,89 $"},
		{-42, "CHF", "-42,00 CHF"},
		{"1500", "EUR", "1.500,00 €"},
		{-0.001, "TRY", "0,00 ₺"},
		{"abc", "TRY", ""},
		{nil, "TRY", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.v, tt.currency), "FormatMoney(%#v, %q)", tt.v, tt.currency)
	}
}

func TestFormatDateAndPeriod(t *testing.T) {
	assert.Equal(t, "31.01.2024", FormatDate("2024-01-31"))
	assert.Equal(t, "05.02.2024", FormatDate("2024-02-05T10:00:00Z"))
	assert.Equal(t, "sometime", FormatDate("sometime"))
	assert.Equal(t, "", FormatDate(nil))

	assert.Equal(t, "01.01.2024 – 31.01.2024", FormatPeriod("2024-01-01", "2024-01-31"))
	assert.Equal(t, "01.01.2024", FormatPeriod("2024-01-01", nil))
	assert.Equal(t, "", FormatPeriod(nil, nil))
}

func TestShortHashAndMask(t *testing.T) {
	assert.Equal(t, "0x1234…cdef", ShortHash("0x1234567890abcdef"))
	assert.Equal(t, "0xabc", ShortHash("0xabc"))
	assert.Equal(t, "12•••••••01", MaskNationalID("12345678901"))
	assert.Equal(t, "123", MaskNationalID("123"))
}

func TestListingsRegistered(t *testing.T) {
	for _, key := range []string{"companies", "employees", "payrolls", "company_payrolls", "employee_nfts", "company_nfts"} {
		def, ok := core.Get(key)
		require.True(t, ok, key)
		assert.NotNil(t, def.Fetch, key)

		// Every column set must be accepted by the table engine.
		_, err := tableview.New(nil, tableview.Config{Columns: def.Columns})
		assert.NoError(t, err, key)

		for _, a := range def.Actions {
			assert.NotEmpty(t, a.Label, "%s/%s needs an accessible label", key, a.Key)
		}
	}
	assert.Equal(t, []string{"Bordro", "NFT"}, core.Groups())
}

func TestPayrollActions(t *testing.T) {
	def, ok := core.Get("payrolls")
	require.True(t, ok)

	p := core.ListingParams{CompanyID: "c1", EmployeeID: "e1"}
	pending := map[string]any{"id": "p9", "mint_status": "pending"}
	failed := map[string]any{"id": "p9", "mint_status": "failed"}

	byKey := map[string]core.RowAction{}
	for _, a := range def.Actions {
		byKey[a.Key] = a
	}

	queue := byKey["queue"]
	assert.Equal(t, "/api/companies/c1/employees/e1/payrolls/p9/mint", queue.Path(pending, p))
	assert.True(t, queue.Visible(pending))
	assert.False(t, queue.Visible(failed))
	assert.True(t, byKey["retry"].Visible(failed))

	// Overview rows carry their own employee.
	row := map[string]any{"id": "p1", "employee_id": "e7"}
	assert.Equal(t, "/api/companies/c1/employees/e7/payrolls/p1/decrypt",
		byKey["decrypt"].Path(row, core.ListingParams{CompanyID: "c1"}))

	assert.Empty(t, queue.Path(map[string]any{}, core.ListingParams{CompanyID: "c1"}))
}

func TestNFTActionsUsePayrollID(t *testing.T) {
	def, ok := core.Get("company_nfts")
	require.True(t, ok)
	require.Len(t, def.Actions, 3)

	row := map[string]any{"token_id": 3, "payroll_id": "p5", "employee_id": "e2"}
	assert.Equal(t, "/api/companies/c1/employees/e2/payrolls/p5/status",
		def.Actions[2].Path(row, core.ListingParams{CompanyID: "c1"}))
}
