package main

import (
	"fmt"

	"github.com/pumped-fn/reaxpr/value"
)

// fromYAML lifts the generic shape produced by yaml.v3's Unmarshal into
// an interface{} target into a value.Value. yaml.v3 decodes mappings as
// map[string]interface{} (not map[interface{}]interface{}, unlike
// yaml.v2), so only that shape needs handling here.
func fromYAML(v any) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Null, nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case int:
		return value.Number(float64(t)), nil
	case int64:
		return value.Number(float64(t)), nil
	case float64:
		return value.Number(t), nil
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			ev, err := fromYAML(e)
			if err != nil {
				return value.Null, err
			}
			elems[i] = ev
		}
		return value.Sequence(elems), nil
	case map[string]any:
		m := value.NewMapping()
		for k, e := range t {
			ev, err := fromYAML(e)
			if err != nil {
				return value.Null, err
			}
			m.Set(k, ev)
		}
		return m, nil
	default:
		return value.Null, fmt.Errorf("reaxpr-repl: unsupported YAML node of type %T", v)
	}
}
