package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Unmarshal decodes JSON bytes into v, retrying once after unicode
// normalization. Model servers occasionally double-escape sequences like
// "\\u003e" inside string values; the retry makes those payloads usable.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	norm, err := normalizeUnicode(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// MarshalNoEscape encodes v into JSON without HTML-escaping <, >, &.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalizeUnicode(raw []byte) ([]byte, error) {
	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		// The whole payload may itself be a quoted JSON string.
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(s), &val); err != nil {
			return nil, err
		}
	}
	return MarshalNoEscape(deepUnescape(val))
}

func unescapeString(s string) (string, error) {
	esc := strings.ReplaceAll(s, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if s, err := unescapeString(x); err == nil {
			return s
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
