package bulkimport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestToUTF8(t *testing.T) {
	cp1254, err := charmap.Windows1254.NewEncoder().String(`{"employee_name":"Ayşe Işık"}`)
	require.NoError(t, err)

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(`[{"a":"ğ"}]`)
	require.NoError(t, err)

	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(`[]`)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain utf-8", []byte(`{"a":"ş"}`), `{"a":"ş"}`},
		{"utf-8 with BOM", append([]byte{0xEF, 0xBB, 0xBF}, `[1]`...), `[1]`},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ``},
		{"partial BOM is not stripped", []byte{0xEF, 0xBB, '[', ']'}, "ï»[]"},
		{"utf-16 little endian", []byte(utf16le), `[{"a":"ğ"}]`},
		{"utf-16 big endian", []byte(utf16be), `[]`},
		{"windows-1254", []byte(cp1254), `{"employee_name":"Ayşe Işık"}`},
		{"empty", []byte{}, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toUTF8(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestParse_Windows1254File(t *testing.T) {
	body, err := charmap.Windows1254.NewEncoder().String(`[{"employee_name":"Gülşen Çağlar","net_salary":100}]`)
	require.NoError(t, err)

	items, err := Parse("bordro.json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Gülşen Çağlar", items[0].(map[string]any)["employee_name"])
}
