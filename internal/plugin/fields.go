package plugin

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// flatten renders collected data as key -> text. Nested maps use dotted
// keys, lists are JSON-encoded, empty keys are skipped.
func flatten(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	flattenInto(out, "", data)
	return out
}

func flattenInto(out map[string]string, prefix string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			continue
		}
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := data[k].(type) {
		case map[string]any:
			flattenInto(out, key, v)
		case nil:
			out[key] = ""
		default:
			out[key] = text(v)
		}
	}
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
