package bulkimport

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validate checks one raw item and normalizes it. Every check runs; the
// returned error list is empty only for an accepted item, in which case the
// Record is complete. OriginalIndex is left for the caller to set.
func Validate(item any) (Record, []string) {
	var errs []string

	obj, ok := item.(map[string]any)
	if !ok {
		errs = append(errs, "kayıt bir JSON nesnesi olmalı")
		obj = map[string]any{}
	}

	rec := Record{Currency: DefaultCurrency}

	nid := text(obj["national_id"])
	switch {
	case nid == "":
		errs = append(errs, "national_id eksik")
	case !isNationalID(nid):
		errs = append(errs, "national_id 11 haneli olmalı")
	default:
		rec.NationalID = nid
	}

	if rec.PeriodStart = text(obj["period_start"]); rec.PeriodStart == "" {
		errs = append(errs, "period_start eksik")
	}
	if rec.PeriodEnd = text(obj["period_end"]); rec.PeriodEnd == "" {
		errs = append(errs, "period_end eksik")
	}

	if v, ok := amount(obj["gross_salary"]); ok {
		rec.GrossSalary = v
	} else {
		errs = append(errs, "gross_salary eksik veya geçersiz")
	}
	if v, ok := amount(obj["net_salary"]); ok {
		rec.NetSalary = v
	} else {
		errs = append(errs, "net_salary eksik veya geçersiz")
	}

	if c := text(obj["currency"]); c != "" {
		rec.Currency = c
	}
	rec.PaymentDate = optionalText(obj["payment_date"])
	rec.Bonus = optionalAmount(obj["bonus"])
	rec.DeductionsTotal = optionalAmount(obj["deductions_total"])
	rec.EmployerSignName = optionalText(obj["employer_sign_name"])
	rec.EmployerSignTitle = optionalText(obj["employer_sign_title"])
	rec.BatchID = optionalText(obj["batch_id"])
	rec.ExternalBatchRef = optionalText(obj["external_batch_ref"])
	rec.ExternalRef = optionalText(obj["external_ref"])

	return rec, errs
}

// BuildPreview validates every item independently and partitions the result.
func BuildPreview(fileName string, items []any) *Preview {
	p := &Preview{
		FileName:      fileName,
		Total:         len(items),
		InvalidItems:  []InvalidItem{},
		ValidPayloads: []Record{},
	}
	for i, item := range items {
		rec, errs := Validate(item)
		if len(errs) > 0 {
			p.InvalidItems = append(p.InvalidItems, InvalidItem{
				Index:   i + 1,
				Errors:  errs,
				Summary: Summarize(item),
			})
			continue
		}
		rec.OriginalIndex = i
		p.ValidPayloads = append(p.ValidPayloads, rec)
	}
	p.ValidCount = len(p.ValidPayloads)
	p.InvalidCount = len(p.InvalidItems)
	return p
}

// Summarize renders the one-line description of a raw item used in the
// preview: national id, period range and net salary, "?" where missing.
func Summarize(item any) string {
	obj, _ := item.(map[string]any)
	return fmt.Sprintf("%s • %s → %s • net %s",
		orUnknown(text(obj["national_id"])),
		orUnknown(text(obj["period_start"])),
		orUnknown(text(obj["period_end"])),
		orUnknown(text(obj["net_salary"])),
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func isNationalID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// text returns a scalar as trimmed text. Nil, objects and arrays are "".
func text(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		// Numbers read as text the way the browser prints them, so
		// 1.1111111111e10 and 11111111111 are the same national id.
		if f, err := val.Float64(); err == nil && math.Abs(f) < 1e21 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func optionalText(v any) *string {
	s := text(v)
	if s == "" {
		return nil
	}
	return &s
}

// amount coerces a monetary value. Strings use Turkish notation: "." groups
// thousands and "," is the decimal separator. Non-finite results, booleans and
// everything that is neither string nor number are rejected.
func amount(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = val
	case int:
		f = float64(val)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func optionalAmount(v any) *float64 {
	f, ok := amount(v)
	if !ok {
		return nil
	}
	return &f
}
