package linkage

import (
	"fmt"
)

// Payload is the sealed variant type carried by InteractionEvent and
// ChartUpdate. Exactly one shape exists per SyncKind; Kind() reports which
// kind a value belongs to so the translator can reject mismatches.
//
// The variants are self-describing and pass through translation 1:1 - the
// engine never interprets their contents.
type Payload interface {
	// Kind returns the sync kind this payload shape belongs to.
	Kind() SyncKind

	isPayload()
}

// FilterPayload carries a filter predicate: "field op value".
type FilterPayload struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Kind implements Payload.
func (FilterPayload) Kind() SyncKind { return KindFilter }

func (FilterPayload) isPayload() {}

// ZoomPayload carries axis-aligned zoom bounds in data coordinates.
type ZoomPayload struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Kind implements Payload.
func (ZoomPayload) Kind() SyncKind { return KindZoom }

func (ZoomPayload) isPayload() {}

// TimeRangePayload carries a visible time range. Bounds are RFC 3339 (or
// date-only) strings and pass through the engine untouched - the engine
// never parses them.
type TimeRangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Kind implements Payload.
func (TimeRangePayload) Kind() SyncKind { return KindTimeRange }

func (TimeRangePayload) isPayload() {}

// HighlightPayload carries the key of a highlighted data point or series.
type HighlightPayload struct {
	Key string `json:"key"`
}

// Kind implements Payload.
func (HighlightPayload) Kind() SyncKind { return KindHighlight }

func (HighlightPayload) isPayload() {}

// EncodePayload converts a payload to its stable map form for
// serialization (journal rows, trace snapshots, assertion matching).
// The switch is exhaustive over the sealed variants.
func EncodePayload(p Payload) map[string]any {
	switch v := p.(type) {
	case FilterPayload:
		return map[string]any{
			"field":    v.Field,
			"operator": v.Operator,
			"value":    v.Value,
		}
	case ZoomPayload:
		return map[string]any{
			"x_min": v.XMin,
			"x_max": v.XMax,
			"y_min": v.YMin,
			"y_max": v.YMax,
		}
	case TimeRangePayload:
		return map[string]any{
			"from": v.From,
			"to":   v.To,
		}
	case HighlightPayload:
		return map[string]any{
			"key": v.Key,
		}
	default:
		return nil
	}
}

// DecodePayload builds the payload variant for a kind from a generic map,
// as produced by YAML or JSON parsing. Unknown fields are rejected so that
// typos in scenario files fail loudly.
func DecodePayload(kind SyncKind, m map[string]any) (Payload, error) {
	switch kind {
	case KindFilter:
		p := FilterPayload{}
		for key, val := range m {
			s, err := stringField(key, val)
			if err != nil {
				return nil, err
			}
			switch key {
			case "field":
				p.Field = s
			case "operator":
				p.Operator = s
			case "value":
				p.Value = s
			default:
				return nil, fmt.Errorf("filter payload: unknown field %q", key)
			}
		}
		return p, nil

	case KindZoom:
		p := ZoomPayload{}
		for key, val := range m {
			f, err := floatField(key, val)
			if err != nil {
				return nil, err
			}
			switch key {
			case "x_min":
				p.XMin = f
			case "x_max":
				p.XMax = f
			case "y_min":
				p.YMin = f
			case "y_max":
				p.YMax = f
			default:
				return nil, fmt.Errorf("zoom payload: unknown field %q", key)
			}
		}
		return p, nil

	case KindTimeRange:
		p := TimeRangePayload{}
		for key, val := range m {
			s, err := stringField(key, val)
			if err != nil {
				return nil, err
			}
			switch key {
			case "from":
				p.From = s
			case "to":
				p.To = s
			default:
				return nil, fmt.Errorf("time range payload: unknown field %q", key)
			}
		}
		return p, nil

	case KindHighlight:
		p := HighlightPayload{}
		for key, val := range m {
			s, err := stringField(key, val)
			if err != nil {
				return nil, err
			}
			switch key {
			case "key":
				p.Key = s
			default:
				return nil, fmt.Errorf("highlight payload: unknown field %q", key)
			}
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown sync kind %q", kind)
	}
}

func stringField(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, val)
	}
	return s, nil
}

func floatField(key string, val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		// YAML parses whole numbers as int
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("field %q: expected number, got %T", key, val)
	}
}
