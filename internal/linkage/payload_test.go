package linkage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_KindBinding(t *testing.T) {
	assert.Equal(t, KindFilter, FilterPayload{}.Kind())
	assert.Equal(t, KindZoom, ZoomPayload{}.Kind())
	assert.Equal(t, KindTimeRange, TimeRangePayload{}.Kind())
	assert.Equal(t, KindHighlight, HighlightPayload{}.Kind())
}

func TestDecodePayload_TimeRange(t *testing.T) {
	p, err := DecodePayload(KindTimeRange, map[string]any{
		"from": "2024-01-01",
		"to":   "2024-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, TimeRangePayload{From: "2024-01-01", To: "2024-01-31"}, p)
}

func TestDecodePayload_Filter(t *testing.T) {
	p, err := DecodePayload(KindFilter, map[string]any{
		"field":    "region",
		"operator": "eq",
		"value":    "EMEA",
	})
	require.NoError(t, err)
	assert.Equal(t, FilterPayload{Field: "region", Operator: "eq", Value: "EMEA"}, p)
}

func TestDecodePayload_Zoom_AcceptsInts(t *testing.T) {
	// YAML parses whole numbers as int; zoom bounds must still decode.
	p, err := DecodePayload(KindZoom, map[string]any{
		"x_min": 0,
		"x_max": 100,
		"y_min": -1.5,
		"y_max": 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, ZoomPayload{XMin: 0, XMax: 100, YMin: -1.5, YMax: 1.5}, p)
}

func TestDecodePayload_Highlight(t *testing.T) {
	p, err := DecodePayload(KindHighlight, map[string]any{"key": "series-7"})
	require.NoError(t, err)
	assert.Equal(t, HighlightPayload{Key: "series-7"}, p)
}

func TestDecodePayload_UnknownField(t *testing.T) {
	_, err := DecodePayload(KindHighlight, map[string]any{"keey": "typo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestDecodePayload_WrongValueType(t *testing.T) {
	_, err := DecodePayload(KindFilter, map[string]any{"field": 42})
	assert.Error(t, err)
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	_, err := DecodePayload(SyncKind(99), map[string]any{})
	assert.Error(t, err)
}

func TestEncodePayload_RoundTrip(t *testing.T) {
	payloads := []Payload{
		FilterPayload{Field: "region", Operator: "eq", Value: "EMEA"},
		ZoomPayload{XMin: 0, XMax: 100, YMin: -1.5, YMax: 1.5},
		TimeRangePayload{From: "2024-01-01", To: "2024-01-31"},
		HighlightPayload{Key: "series-7"},
	}
	for _, p := range payloads {
		decoded, err := DecodePayload(p.Kind(), EncodePayload(p))
		require.NoError(t, err, "payload %v should round-trip", p)
		assert.Equal(t, p, decoded)
	}
}
