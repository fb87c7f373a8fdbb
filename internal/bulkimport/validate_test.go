package bulkimport

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, body string) any {
	t.Helper()
	items, err := Parse("t.json", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func TestValidate_SingleObjectTurkishAmounts(t *testing.T) {
	item := parseOne(t, `{"national_id":"11111111111","period_start":"2025-01-01","period_end":"2025-01-31","gross_salary":"10.000,50","net_salary":8500}`)

	p := BuildPreview("t.json", []any{item})
	assert.Equal(t, 1, p.ValidCount)
	assert.Equal(t, 0, p.InvalidCount)

	rec := p.ValidPayloads[0]
	assert.Equal(t, 10000.5, rec.GrossSalary)
	assert.Equal(t, 8500.0, rec.NetSalary)
	assert.Equal(t, DefaultCurrency, rec.Currency)
	assert.Nil(t, rec.Bonus)
	assert.Nil(t, rec.PaymentDate)
	assert.Equal(t, 0, rec.OriginalIndex)
}

func TestValidate_MissingNationalID(t *testing.T) {
	item := parseOne(t, `{"period_start":"2025-01-01","period_end":"2025-01-31","gross_salary":1000,"net_salary":900}`)

	p := BuildPreview("t.json", []any{item})
	assert.Equal(t, 0, p.ValidCount)
	require.Len(t, p.InvalidItems, 1)

	inv := p.InvalidItems[0]
	assert.Equal(t, 1, inv.Index)
	require.Len(t, inv.Errors, 1)
	assert.Contains(t, inv.Errors[0], "national_id")
	assert.Equal(t, "? • 2025-01-01 → 2025-01-31 • net 900", inv.Summary)
}

func TestValidate_MalformedNationalID(t *testing.T) {
	item := parseOne(t, `{"national_id":"12345","period_start":"2025-01-01","period_end":"2025-01-31","gross_salary":1000,"net_salary":900}`)

	_, errs := Validate(item)
	assert.Equal(t, []string{"national_id 11 haneli olmalı"}, errs)
}

func TestValidate_NationalIDRules(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{`"11111111111"`, true},
		{`" 22222222222 "`, true},
		{`11111111111`, true},
		{`1.1111111111e10`, true},
		{`11111111111.0`, true},
		{`1.1111111111e9`, false},
		{`"1111111111"`, false},
		{`"111111111111"`, false},
		{`"1111111111a"`, false},
		{`"١١١١١١١١١١١"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			item := parseOne(t, fmt.Sprintf(`{"national_id":%s,"period_start":"a","period_end":"b","gross_salary":1,"net_salary":1}`, tt.value))
			_, errs := Validate(item)
			assert.Equal(t, tt.valid, len(errs) == 0, "errors: %v", errs)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	item := parseOne(t, `{"national_id":"1","gross_salary":true,"net_salary":"abc"}`)

	_, errs := Validate(item)
	assert.ElementsMatch(t, []string{
		"national_id 11 haneli olmalı",
		"period_start eksik",
		"period_end eksik",
		"gross_salary eksik veya geçersiz",
		"net_salary eksik veya geçersiz",
	}, errs)
}

func TestValidate_AmountCoercion(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1.234.567,89", 1234567.89, true},
		{"900", 900, true},
		{" 12,5 ", 12.5, true},
		{"1.5", 15, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{true, 0, false},
		{nil, 0, false},
		{map[string]any{}, 0, false},
		{float64(42), 42, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.in), func(t *testing.T) {
			got, ok := amount(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestValidate_OptionalFields(t *testing.T) {
	item := parseOne(t, `{
		"national_id":"11111111111","period_start":"2025-01-01","period_end":"2025-01-31",
		"gross_salary":1000,"net_salary":900,
		"payment_date":"2025-02-05","currency":"EUR",
		"bonus":"1.000","deductions_total":"yok",
		"employer_sign_name":"Ayşe Yılmaz","employer_sign_title":"İK Müdürü",
		"batch_id":77,"external_ref":"ext-1","external_batch_ref":null
	}`)

	rec, errs := Validate(item)
	require.Empty(t, errs)

	assert.Equal(t, "EUR", rec.Currency)
	require.NotNil(t, rec.PaymentDate)
	assert.Equal(t, "2025-02-05", *rec.PaymentDate)
	require.NotNil(t, rec.Bonus)
	assert.Equal(t, 1000.0, *rec.Bonus)
	assert.Nil(t, rec.DeductionsTotal, "unparsable optional amounts become null")
	require.NotNil(t, rec.BatchID)
	assert.Equal(t, "77", *rec.BatchID)
	assert.Nil(t, rec.ExternalBatchRef)
	assert.Equal(t, "İK Müdürü", *rec.EmployerSignTitle)
}

func TestBuildPreview_CountsAddUp(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	fields := []string{"national_id", "period_start", "period_end", "gross_salary", "net_salary"}
	good := map[string]any{
		"national_id": "11111111111", "period_start": "2025-01-01", "period_end": "2025-01-31",
		"gross_salary": "1.000", "net_salary": 900.0,
	}

	for trial := 0; trial < 25; trial++ {
		n := r.Intn(300) + 1
		items := make([]any, n)
		for i := range items {
			item := map[string]any{}
			for k, v := range good {
				item[k] = v
			}
			if r.Intn(3) == 0 {
				delete(item, fields[r.Intn(len(fields))])
			}
			items[i] = item
		}

		p := BuildPreview("rand.json", items)
		assert.Equal(t, p.Total, p.ValidCount+p.InvalidCount)
		assert.Equal(t, n, p.Total)
		for _, rec := range p.ValidPayloads {
			assert.True(t, isNationalID(rec.NationalID))
			assert.NotEmpty(t, rec.PeriodStart)
			assert.NotEmpty(t, rec.PeriodEnd)
			assert.Equal(t, 1000.0, rec.GrossSalary)
		}
		for _, inv := range p.InvalidItems {
			assert.NotEmpty(t, inv.Errors)
			assert.GreaterOrEqual(t, inv.Index, 1)
		}
	}
}

func TestBuildPreview_OriginalIndex(t *testing.T) {
	valid := map[string]any{"national_id": "11111111111", "period_start": "a", "period_end": "b", "gross_salary": 1.0, "net_salary": 1.0}
	items := []any{map[string]any{}, valid, map[string]any{}, valid}

	p := BuildPreview("x.json", items)
	require.Len(t, p.ValidPayloads, 2)
	assert.Equal(t, 1, p.ValidPayloads[0].OriginalIndex)
	assert.Equal(t, 3, p.ValidPayloads[1].OriginalIndex)
	assert.Equal(t, 1, p.InvalidItems[0].Index)
	assert.Equal(t, 3, p.InvalidItems[1].Index)
}
