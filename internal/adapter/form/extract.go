package form

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Extract produces a flat key/value payload from an inbound request. A JSON
// body is tried first; on parse failure or an empty object it falls through
// to the form-encoded parameters, then to an empty map. It never fails.
func Extract(body []byte, params map[string]string) map[string]string {
	if len(body) > 0 {
		if parsed := tryParseJSON(body); len(parsed) > 0 {
			return parsed
		}
	}

	if len(params) > 0 {
		out := make(map[string]string, len(params))
		for k, v := range params {
			out[k] = v
		}
		return out
	}

	return map[string]string{}
}

// tryParseJSON parses a JSON object into a string map, coercing non-string
// values to their string representation. Any parse failure yields nil so the
// caller can fall through to the next payload source.
func tryParseJSON(body []byte) map[string]string {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = coerceString(v)
	}
	return out
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		// Nested objects and arrays keep their JSON text; downstream
		// normalization only cares about scalar fields anyway.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
