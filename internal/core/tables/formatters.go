package tables

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

var currencySymbols = map[string]string{
	"TRY": "₺",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney renders an amount the Turkish way: "30.000,50 ₺".
// Unknown currencies are appended by code. Non-numeric input renders empty.
func FormatMoney(v any, currency string) string {
	f, ok := number(v)
	if !ok {
		return ""
	}
	cents := int64(math.Round(math.Abs(f) * 100))
	neg := f < 0 && cents > 0
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	frac := cents % 100
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "TRY"
	}
	if sym, ok := currencySymbols[currency]; ok {
		return b.String() + " " + sym
	}
	return b.String() + " " + currency
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(v any) (time.Time, bool) {
	s := strings.TrimSpace(tableview.Stringify(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an ISO date as DD.MM.YYYY. Unparseable input is
// returned unchanged.
func FormatDate(v any) string {
	if t, ok := parseDate(v); ok {
		return t.Format("02.01.2006")
	}
	return tableview.Stringify(v)
}

// FormatPeriod renders a payroll period "01.01.2024 – 31.01.2024".
func FormatPeriod(start, end any) string {
	s, e := FormatDate(start), FormatDate(end)
	switch {
	case s == "" && e == "":
		return ""
	case e == "":
		return s
	case s == "":
		return e
	}
	return s + " – " + e
}

// ShortHash abbreviates a transaction hash to 0x1234…abcd.
func ShortHash(v any) string {
	s := tableview.Stringify(v)
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// MaskNationalID keeps the first two and last two digits.
func MaskNationalID(v any) string {
	s := tableview.Stringify(v)
	if len(s) != 11 {
		return s
	}
	return s[:2] + strings.Repeat("•", 7) + s[9:]
}

func text(keys ...string) func(tableview.Row) any {
	return func(r tableview.Row) any {
		for _, k := range keys {
			if v := tableview.Lookup(r, k); v != nil && tableview.Stringify(v) != "" {
				return v
			}
		}
		return nil
	}
}

func moneyColumn(key, header string) tableview.Column {
	return tableview.Column{
		Key:       key,
		Header:    header,
		SortValue: func(r tableview.Row) any { return r[key] },
		Render: func(r tableview.Row, _, _ int) string {
			return FormatMoney(r[key], tableview.Stringify(r["currency"]))
		},
	}
}

func dateColumn(key, header string) tableview.Column {
	return tableview.Column{
		Key:    key,
		Header: header,
		Render: func(r tableview.Row, _, _ int) string { return FormatDate(r[key]) },
	}
}

func serialColumn() tableview.Column {
	return tableview.Column{
		Key:      "_serial",
		Header:   "#",
		Sortable: tableview.Unsortable(),
		Render:   func(_ tableview.Row, _, serial int) string { return strconv.Itoa(serial) },
	}
}

func statusColumn() tableview.Column {
	return tableview.Column{
		Key:       "mint_status",
		Header:    "NFT Durumu",
		Accessor:  func(r tableview.Row) any { return string(core.StatusOf(r)) },
		SortValue: func(r tableview.Row) any { return string(core.StatusOf(r)) },
		Render: func(r tableview.Row, _, _ int) string {
			return core.StatusOf(r).Label()
		},
	}
}
