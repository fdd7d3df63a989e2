package nuxt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetAddAndContains(t *testing.T) {
	s := NewSet()

	require.True(t, s.Add("a"))
	require.True(t, s.Add("b"))
	require.False(t, s.Add("a"))

	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains("a"))
	require.False(t, s.Contains("c"))
}

func TestSetKeepsInsertionOrder(t *testing.T) {
	s := NewSet("z", "a", "m", "a")
	require.Equal(t, []any{"z", "a", "m"}, s.Values())

	var collected []any
	for v := range s.All() {
		collected = append(collected, v)
	}
	require.Equal(t, []any{"z", "a", "m"}, collected)
}

func TestSetNilMember(t *testing.T) {
	s := NewSet()
	require.True(t, s.Add(nil))
	require.False(t, s.Add(nil))
	require.True(t, s.Contains(nil))
}

func TestSetNonComparableMembers(t *testing.T) {
	s := NewSet()

	// slices cannot be compared; they are kept without deduplication
	require.True(t, s.Add([]any{1}))
	require.True(t, s.Add([]any{1}))
	require.Equal(t, 2, s.Len())
	require.False(t, s.Contains([]any{1}))
}

func TestSetValuesIsACopy(t *testing.T) {
	s := NewSet("a")
	values := s.Values()
	values[0] = "mutated"
	require.Equal(t, []any{"a"}, s.Values())
}

func TestSetMarshalJSON(t *testing.T) {
	s := NewSet("b", float64(1), nil)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `["b", 1, null]`, string(out))

	empty, err := json.Marshal(NewSet())
	require.NoError(t, err)
	require.Equal(t, `[]`, string(empty))
}
