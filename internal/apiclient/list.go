package apiclient

import (
	"github.com/tidwall/gjson"
)

// listKeys are the envelope fields the backend wraps collections in.
var listKeys = []string{"data", "items", "results"}

// ToList normalizes a collection response. The backend answers with a bare
// array or with the array under data, items or results; anything else is an
// empty list. Elements that are not objects are dropped.
func ToList(body []byte) []map[string]any {
	rows := []map[string]any{}
	if !gjson.ValidBytes(body) {
		return rows
	}

	root := gjson.ParseBytes(body)
	arr := root
	if !root.IsArray() {
		arr = gjson.Result{}
		for _, key := range listKeys {
			if r := root.Get(key); r.IsArray() {
				arr = r
				break
			}
		}
	}
	if !arr.IsArray() {
		return rows
	}

	arr.ForEach(func(_, el gjson.Result) bool {
		if el.IsObject() {
			if m, ok := el.Value().(map[string]any); ok {
				rows = append(rows, m)
			}
		}
		return true
	})
	return rows
}

// ToObject decodes a single-entity response, unwrapping a data envelope.
// Non-object bodies yield an empty map.
func ToObject(body []byte) map[string]any {
	if !gjson.ValidBytes(body) {
		return map[string]any{}
	}
	root := gjson.ParseBytes(body)
	if d := root.Get("data"); d.IsObject() {
		root = d
	}
	if m, ok := root.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
