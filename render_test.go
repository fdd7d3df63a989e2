package nuxt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderSpecialKinds(t *testing.T) {
	res, err := Hydrate(`[{}, {"when": 2, "id": 3, "pattern": 4, "roles": 5}, {"$d": 1672531200000}, {"$b": "123456789012345678901234567890"}, {"$r": "/a+/i"}, {"$s": [6, 7]}, "x", "y"]`)
	require.NoError(t, err)

	rendered := Render(res.Value)
	require.Equal(t, map[string]any{
		"when":    "2023-01-01T00:00:00Z",
		"id":      "123456789012345678901234567890",
		"pattern": "(?i)a+",
		"roles":   []any{"x", "y"},
	}, rendered)

	// the rendered tree always encodes as plain JSON
	_, err = json.Marshal(rendered)
	require.NoError(t, err)
}

func TestRenderOrderedMap(t *testing.T) {
	res, err := Hydrate(`[{}, {"$m": [[2, 3]]}, "k", "v"]`)
	require.NoError(t, err)

	require.Equal(t, map[string]any{"k": "v"}, Render(res.Value))
}

func TestRenderCycleBreaks(t *testing.T) {
	res, err := Hydrate(`[{}, {"name": 2, "self": 1}, "loop"]`)
	require.NoError(t, err)

	rendered := Render(res.Value)
	obj := rendered.(map[string]any)
	require.Equal(t, circularMarker, obj["self"])

	_, err = json.Marshal(rendered)
	require.NoError(t, err)
}

func TestRenderSharedValueIsNotACycle(t *testing.T) {
	// the same slice on two branches renders twice, only a true cycle
	// gets the marker
	res, err := Hydrate(`[{}, {"a": 2, "b": 2}, [3], "leaf"]`)
	require.NoError(t, err)

	rendered := Render(res.Value).(map[string]any)
	require.Equal(t, []any{"leaf"}, rendered["a"])
	require.Equal(t, []any{"leaf"}, rendered["b"])
}
