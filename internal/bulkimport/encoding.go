package bulkimport

// encoding.go normalizes the byte encodings spreadsheet tools produce when
// exporting JSON on Windows:
//
//   - UTF-8 with a byte order mark
//   - UTF-16 (LE or BE) with a byte order mark
//   - Windows-1254, the Turkish code page, with no marker at all
//
// Everything comes out as plain UTF-8 without a BOM.

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// toUTF8 returns data as UTF-8. Bytes that are not valid UTF-8 and carry no
// BOM are read as Windows-1254.
func toUTF8(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
	case bytes.HasPrefix(data, bomUTF16LE):
		return decode(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decode(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
	}

	if utf8.Valid(data) {
		return data, nil
	}
	return decode(charmap.Windows1254, data)
}

func decode(enc encoding.Encoding, data []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, &FileError{Code: CodeRead, Message: "Dosya kodlaması okunamadı", Err: err}
	}
	return bytes.TrimPrefix(out, bomUTF8), nil
}
