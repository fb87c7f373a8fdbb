package bulkimport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxFileSize bounds the bytes read by Parse.
var MaxFileSize int64 = 10 * 1024 * 1024

// Parse reads a JSON import file. A top-level array yields its elements, a
// bare object yields itself. Objects are decoded with json.Number so numeric
// values keep their source text. Elements that are not objects are kept as
// they are and rejected later by Validate.
func Parse(name string, r io.Reader) ([]any, error) {
	return ParseLimit(name, r, MaxFileSize)
}

// ParseLimit is Parse with an explicit size limit. A limit <= 0 disables it.
func ParseLimit(name string, r io.Reader, limit int64) ([]any, error) {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".json") {
		return nil, &FileError{Code: CodeExtension, Message: "Yalnızca .json dosyaları yüklenebilir"}
	}

	data, err := readAll(r, limit)
	if err != nil {
		return nil, err
	}

	data, err = toUTF8(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FileError{Code: CodeEmpty, Message: "Dosya boş"}
	}
	if !gjson.ValidBytes(data) {
		return nil, &FileError{Code: CodeJSON, Message: "Dosya geçerli bir JSON değil"}
	}

	root := gjson.ParseBytes(data)
	var raws []gjson.Result
	switch {
	case root.IsArray():
		raws = root.Array()
	case root.IsObject():
		raws = []gjson.Result{root}
	default:
		return nil, &FileError{Code: CodeJSON, Message: "JSON bir nesne veya dizi olmalı"}
	}

	if len(raws) == 0 {
		return nil, &FileError{Code: CodeEmpty, Message: "Dosyada kayıt bulunamadı"}
	}

	items := make([]any, 0, len(raws))
	for i, raw := range raws {
		item, err := decodeItem(raw.Raw)
		if err != nil {
			return nil, &FileError{Code: CodeJSON, Message: fmt.Sprintf("%d. kayıt çözümlenemedi", i+1), Err: err}
		}
		items = append(items, item)
	}
	return items, nil
}

func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FileError{Code: CodeRead, Message: "Dosya okunamadı", Err: err}
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, &FileError{
			Code:    CodeTooLarge,
			Message: fmt.Sprintf("Dosya çok büyük (en fazla %d bayt)", limit),
		}
	}
	return data, nil
}

func decodeItem(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// LoadPreview parses and validates a file in one call.
func LoadPreview(name string, r io.Reader) (*Preview, error) {
	return LoadPreviewLimit(name, r, MaxFileSize)
}

// LoadPreviewLimit is LoadPreview with an explicit size limit.
func LoadPreviewLimit(name string, r io.Reader, limit int64) (*Preview, error) {
	items, err := ParseLimit(name, r, limit)
	if err != nil {
		return nil, err
	}
	return BuildPreview(name, items), nil
}

// IsFileError reports whether err is a file-level import error and returns it.
func IsFileError(err error) (*FileError, bool) {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
