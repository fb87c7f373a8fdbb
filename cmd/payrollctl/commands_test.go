package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func TestLookupWith_FlagsWinOverEnvironment(t *testing.T) {
	env := map[string]string{"BACKEND_URL": "http://env", "LOG_LEVEL": "debug"}
	o := Options{BackendURL: "http://flag", Timeout: "5s"}

	lookup := lookupWith(o.overlay(), func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	v, _ := lookup("BACKEND_URL")
	assert.Equal(t, "http://flag", v)
	v, _ = lookup("BACKEND_TIMEOUT")
	assert.Equal(t, "5s", v)
	v, _ = lookup("LOG_LEVEL")
	assert.Equal(t, "debug", v, "unset flags leave the environment alone")
	_, ok := lookup("BACKEND_TOKEN_FILE")
	assert.False(t, ok)
}

func TestListCommand_ListingKey(t *testing.T) {
	tests := []struct {
		key      string
		employee string
		want     string
	}{
		{"companies", "", "companies"},
		{"employees", "", "employees"},
		{"payrolls", "", "company_payrolls"},
		{"payrolls", "e1", "payrolls"},
		{"nfts", "", "company_nfts"},
		{"nfts", "e1", "employee_nfts"},
	}
	for _, tt := range tests {
		c := &listCommand{key: tt.key, scopeFlags: scopeFlags{Company: "c1", Employee: tt.employee}}
		assert.Equal(t, tt.want, c.listingKey(), "%s/%q", tt.key, tt.employee)
	}
}

func TestListCommand_ParamsAndQuery(t *testing.T) {
	c := &listCommand{scopeFlags: scopeFlags{Company: "c1"}, Status: "Failed", Sort: "period", Desc: true, Page: 2}
	p, err := c.params()
	require.NoError(t, err)
	assert.Equal(t, core.MintFailed, p.Status)
	assert.Equal(t, "c1", p.CompanyID)

	q := c.query()
	assert.Equal(t, tableview.Desc, q.SortDir)
	assert.Equal(t, 2, q.Page)

	c.Status = "sideways"
	_, err = c.params()
	assert.True(t, errors.Is(err, core.ErrInvalidStatus))
}

func TestPrintPage(t *testing.T) {
	v, err := tableview.New([]tableview.Row{
		{"id": "1", "name": "Ayşe\nYılmaz"},
		{"id": "2", "name": "Can"},
	}, tableview.Config{
		Columns:   []tableview.Column{{Key: "name", Header: "Ad"}},
		PageSizes: []int{10},
		PageSize:  10,
	})
	require.NoError(t, err)
	require.NoError(t, v.SetSort("name", tableview.Desc))

	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, v.Page()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Ad ▼", strings.TrimSpace(lines[0]))
	assert.Equal(t, "Can", strings.TrimSpace(lines[1]))
	assert.Equal(t, "Ayşe Yılmaz", strings.TrimSpace(lines[2]))
	assert.Contains(t, buf.String(), "Sayfa 1 / 1 · 2 kayıt")
}

func TestPrintPreviewAndResult(t *testing.T) {
	var buf bytes.Buffer
	printPreview(&buf, &bulkimport.Preview{
		FileName:     "march.json",
		Total:        3,
		ValidCount:   2,
		InvalidCount: 1,
		InvalidItems: []bulkimport.InvalidItem{{Index: 3, Summary: "Bilinmiyor", Errors: []string{"a", "b"}}},
	})
	out := buf.String()
	assert.Contains(t, out, "march.json: 3 kayıt, 2 geçerli, 1 hatalı")
	assert.Contains(t, out, "a; b")

	buf.Reset()
	printResult(&buf, &bulkimport.Result{Success: 2, Failed: 1, Chunks: 2, BatchID: "grp-1", Errors: []string{"boom"}})
	assert.Contains(t, buf.String(), "Başarılı: 2, başarısız: 1, parça: 2")
	assert.Contains(t, buf.String(), "Grup: grp-1")
	assert.Contains(t, buf.String(), "  - boom")
}
