package materialize

import "go.opentelemetry.io/otel/attribute"

// flatten keeps scalar attribute values, namespaced under browser.*.
// Nested objects and arrays are dropped; the span store only takes
// scalars and the client is free to report richer shapes.
func flatten(attrs map[string]interface{}) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}

	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		key := "browser." + k
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(key, val))
		case bool:
			out = append(out, attribute.Bool(key, val))
		case float64:
			out = append(out, attribute.Float64(key, val))
		case float32:
			out = append(out, attribute.Float64(key, float64(val)))
		case int:
			out = append(out, attribute.Int(key, val))
		case int64:
			out = append(out, attribute.Int64(key, val))
		}
	}
	return out
}

// vital reads a numeric web-vital attribute, reporting absence
func vital(attrs map[string]interface{}, key string) (float64, bool) {
	v, ok := attrs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
