package nuxt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePayloadRejectsNonArray(t *testing.T) {
	for _, raw := range []string{`{"a": 1}`, `"text"`, `42`, `not json`, ``, `   `} {
		_, err := ParsePayload(raw)
		require.ErrorIs(t, err, ErrMalformedInput, "input %q", raw)
	}
}

func TestParsePayloadClassification(t *testing.T) {
	payload, err := ParsePayload(`[{}, "s", 7, true, null, [2, 3], {"a": 2}, {"$d": 0}, {"$d": 0, "other": 1}]`)
	require.NoError(t, err)
	require.Equal(t, 9, payload.Len())

	require.Equal(t, kindObject, payload.cells[0].kind)
	require.Equal(t, kindScalar, payload.cells[1].kind)
	require.Equal(t, kindScalar, payload.cells[2].kind)
	require.Equal(t, kindScalar, payload.cells[3].kind)
	require.Equal(t, kindScalar, payload.cells[4].kind)
	require.Equal(t, kindArray, payload.cells[5].kind)
	require.Equal(t, kindObject, payload.cells[6].kind)

	require.Equal(t, kindSpecial, payload.cells[7].kind)
	require.Equal(t, tagDate, payload.cells[7].tag)

	// a tag key next to regular properties is not a special marker
	require.Equal(t, kindObject, payload.cells[8].kind)
}

func TestParsePayloadKeepsPropertyOrder(t *testing.T) {
	payload, err := ParsePayload(`[{}, {"zebra": 2, "alpha": 3, "mid": 4}, 0, 0, 0]`)
	require.NoError(t, err)

	props := payload.cells[1].props
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.name
	}
	require.Equal(t, []string{"zebra", "alpha", "mid"}, names)
}

func TestNewPayloadPreParsed(t *testing.T) {
	cells := []any{
		map[string]any{},
		map[string]any{"ref": 2},
		"leaf",
	}

	payload, err := NewPayload(cells)
	require.NoError(t, err)

	res, err := payload.Hydrate()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ref": "leaf"}, res.Value)
}

func TestNewPayloadSortsMapKeys(t *testing.T) {
	payload, err := NewPayload([]any{
		map[string]any{},
		map[string]any{"b": 2, "a": 3, "c": 4},
		"x", "y", "z",
	})
	require.NoError(t, err)

	props := payload.cells[1].props
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.name
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestNewPayloadIntReferences(t *testing.T) {
	// pre-parsed input may carry Go ints rather than JSON float64s
	payload, err := NewPayload([]any{
		map[string]any{},
		[]any{int(2), int64(3)},
		"a", "b",
	})
	require.NoError(t, err)

	res, err := payload.Hydrate()
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, res.Value)
}

func TestPayloadIsReadOnlyView(t *testing.T) {
	cells := []any{map[string]any{}, []any{2}, "before"}

	payload, err := NewPayload(cells)
	require.NoError(t, err)

	first, err := payload.Hydrate()
	require.NoError(t, err)
	require.Equal(t, []any{"before"}, first.Value)

	// hydration never wrote through to the caller's slice
	require.Equal(t, "before", cells[2])
}

func TestCellAtBounds(t *testing.T) {
	payload, err := ParsePayload(`[{}, "x"]`)
	require.NoError(t, err)

	_, err = payload.cellAt(2)
	var oor *ReferenceOutOfRangeError
	require.ErrorAs(t, err, &oor)
	require.Equal(t, 2, oor.Index)
	require.Equal(t, 2, oor.Len)

	_, err = payload.cellAt(-1)
	require.ErrorAs(t, err, &oor)
}

func TestAsIndex(t *testing.T) {
	idx, ok := asIndex(float64(3))
	require.True(t, ok)
	require.Equal(t, 3, idx)

	idx, ok = asIndex(float64(-2))
	require.True(t, ok)
	require.Equal(t, -2, idx)

	_, ok = asIndex(3.5)
	require.False(t, ok)

	_, ok = asIndex("3")
	require.False(t, ok)

	_, ok = asIndex(true)
	require.False(t, ok)

	_, ok = asIndex(nil)
	require.False(t, ok)
}
