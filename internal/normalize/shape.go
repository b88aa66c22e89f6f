package normalize

// Shape identifies which of the known backend layouts a payload follows.
type Shape int

const (
	Unrecognized Shape = iota
	RowArray
	ChartReady
	Wrapped
	CategoryMap
)

func (s Shape) String() string {
	switch s {
	case RowArray:
		return "row_array"
	case ChartReady:
		return "chart_ready"
	case Wrapped:
		return "wrapped"
	case CategoryMap:
		return "category_map"
	default:
		return "unrecognized"
	}
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Classify inspects a decoded JSON payload. Checks run in a fixed order:
// a bare sequence, then non-null labels+datasets, then a data sequence, then an object
// holding metric sequences.
func Classify(payload any) Shape {
	switch p := payload.(type) {
	case []any:
		return RowArray
	case []map[string]any:
		return RowArray
	case map[string]any:
		if truthy(p["labels"]) && truthy(p["datasets"]) {
			return ChartReady
		}
		if _, ok := p["data"].([]any); ok {
			return Wrapped
		}
		if len(metricGroups(p)) > 0 {
			return CategoryMap
		}
	}
	return Unrecognized
}

// truthy follows JSON truthiness: null, false, 0 and "" are false, and
// every array or object, even empty, is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// metricGroups returns the object that holds named metric sequences:
// the "metrics" map, the "data" map or the payload itself.
func metricGroups(p map[string]any) map[string]any {
	for _, k := range []string{"metrics", "data", "payload"} {
		if m, ok := p[k].(map[string]any); ok && hasSequence(m) {
			return m
		}
	}
	if hasSequence(p) {
		return p
	}
	return nil
}

func hasSequence(m map[string]any) bool {
	for _, v := range m {
		if _, ok := v.([]any); ok {
			return true
		}
	}
	return false
}
