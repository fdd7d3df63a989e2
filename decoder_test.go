package nuxt

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestUnmarshalStruct(t *testing.T) {
	type Address struct {
		City    string
		ZipCode int32 `json:"zip,omitempty"`
	}

	type Student struct {
		Name       string
		AgeInYears int64  `json:"age"`
		SkipThis   string `json:"-"`
		Tags       Tags
		Address    *Address
		Height     float32
		Accepted   bool

		// not exported, must not be set
		note string
	}

	value := map[string]any{
		"Name":   "Albert",
		"age":    float64(21),
		"Height": 1.76,
		"Tags":   "foo,bar",
		"Address": map[string]any{
			"City": "Zürich",
			"zip":  float64(8015),
		},
		"Accepted": true,

		// should not be used
		"SkipThis": "FOOBAR",
		"-":        "FOOBAR",
	}

	stud, err := UnmarshalNew[Student](value)
	require.NoError(t, err)
	require.Equal(t, Student{
		Name:       "Albert",
		AgeInYears: 21,
		Tags:       Tags{"foo", "bar"},
		Height:     1.76,
		Accepted:   true,
		Address: &Address{
			City:    "Zürich",
			ZipCode: 8015,
		},
	}, stud)
	require.Empty(t, stud.note)
}

// Tags implements encoding.TextUnmarshaler for the tests.
type Tags []string

func (t *Tags) UnmarshalText(text []byte) error {
	*t = strings.Split(string(text), ",")
	return nil
}

func TestUnmarshalStructWithMap(t *testing.T) {
	type Struct struct {
		Type   string
		Values map[string]string
	}

	value := map[string]any{
		"Type": "Foo",
		"Values": map[string]any{
			"One": "Eins",
			"Two": "Zwei",
		},
	}

	decoded, err := UnmarshalNew[Struct](value)
	require.NoError(t, err)
	require.Equal(t, Struct{
		Type: "Foo",
		Values: map[string]string{
			"One": "Eins",
			"Two": "Zwei",
		},
	}, decoded)
}

func TestUnmarshalFromOrderedMap(t *testing.T) {
	m := orderedmap.New[any, any]()
	m.Set("Name", "grace")
	m.Set("Port", float64(8080))

	type Config struct {
		Name string
		Port uint16
	}

	decoded, err := UnmarshalNew[Config](m)
	require.NoError(t, err)
	require.Equal(t, Config{Name: "grace", Port: 8080}, decoded)
}

func TestUnmarshalMapTargetFromOrderedMap(t *testing.T) {
	m := orderedmap.New[any, any]()
	m.Set("a", float64(1))
	m.Set("b", float64(2))

	decoded, err := UnmarshalNew[map[string]int](m)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 1, "b": 2}, decoded)
}

func TestUnmarshalSliceAndArray(t *testing.T) {
	value := []any{"a", "b", "c"}

	decoded, err := UnmarshalNew[[]string](value)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, decoded)

	arr, err := UnmarshalNew[[2]string](value)
	require.NoError(t, err)
	require.Equal(t, [2]string{"a", "b"}, arr)
}

func TestUnmarshalSliceFromSet(t *testing.T) {
	decoded, err := UnmarshalNew[[]string](NewSet("admin", "user"))
	require.NoError(t, err)
	require.Equal(t, []string{"admin", "user"}, decoded)
}

func TestUnmarshalSpecialTargets(t *testing.T) {
	type Record struct {
		Created time.Time      `json:"created"`
		ID      *big.Int       `json:"id"`
		Match   *regexp.Regexp `json:"match"`
		Roles   *Set           `json:"roles"`
		Extra   any            `json:"extra"`
	}

	id, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	value := map[string]any{
		"created": time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		"id":      id,
		"match":   regexp.MustCompile(`a+`),
		"roles":   NewSet("admin"),
		"extra":   []any{"kept", "as-is"},
	}

	decoded, err := UnmarshalNew[Record](value)
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), decoded.Created)
	require.Zero(t, id.Cmp(decoded.ID))
	require.Equal(t, "a+", decoded.Match.String())
	require.True(t, decoded.Roles.Contains("admin"))
	require.Equal(t, []any{"kept", "as-is"}, decoded.Extra)
}

func TestUnmarshalBigIntFromNumber(t *testing.T) {
	decoded, err := UnmarshalNew[*big.Int](float64(42))
	require.NoError(t, err)
	require.Zero(t, big.NewInt(42).Cmp(decoded))
}

func TestUnmarshalIntRange(t *testing.T) {
	_, err := UnmarshalNew[int8](float64(300))
	require.ErrorIs(t, err, strconv.ErrRange)

	_, err = UnmarshalNew[uint8](float64(-1))
	require.ErrorIs(t, err, strconv.ErrRange)

	decoded, err := UnmarshalNew[int8](float64(-128))
	require.NoError(t, err)
	require.Equal(t, int8(-128), decoded)
}

func TestUnmarshalIntFromBigInt(t *testing.T) {
	decoded, err := UnmarshalNew[int64](big.NewInt(1234))
	require.NoError(t, err)
	require.Equal(t, int64(1234), decoded)

	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	_, err = UnmarshalNew[int64](huge)
	require.Error(t, err)
}

func TestUnmarshalWrongKind(t *testing.T) {
	_, err := UnmarshalNew[int]("not a number")
	require.ErrorIs(t, err, ErrWrongKind)

	_, err = UnmarshalNew[[]string](map[string]any{})
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestUnmarshalMissingFieldIsSkipped(t *testing.T) {
	type Struct struct {
		A string
		B string
	}

	decoded, err := UnmarshalNew[Struct](map[string]any{"A": "set"})
	require.NoError(t, err)
	require.Equal(t, Struct{A: "set"}, decoded)
}

func TestUnmarshalRequireValues(t *testing.T) {
	type Struct struct {
		A string
		B string
	}

	dec := NewDecoder().RequireValues()
	_, err := UnmarshalNewWith[Struct](dec, map[string]any{"A": "set"})
	require.ErrorIs(t, err, ErrNoValue)
}

func TestUnmarshalNilToPointer(t *testing.T) {
	type Struct struct {
		Next *Struct
		Name string
	}

	decoded, err := UnmarshalNew[Struct](map[string]any{
		"Name": "head",
		"Next": nil,
	})
	require.NoError(t, err)
	require.Equal(t, Struct{Name: "head"}, decoded)
}

func TestUnmarshalRecursiveType(t *testing.T) {
	type Node struct {
		Name string
		Next *Node
	}

	value := map[string]any{
		"Name": "a",
		"Next": map[string]any{
			"Name": "b",
			"Next": nil,
		},
	}

	decoded, err := UnmarshalNew[Node](value)
	require.NoError(t, err)
	require.Equal(t, Node{Name: "a", Next: &Node{Name: "b"}}, decoded)
}

func TestUnmarshalEmbeddedNamingConflict(t *testing.T) {
	type First struct{ A string }
	type Second struct{ A string }
	type Outer struct {
		First
		Second
	}

	// the conflicting name is ambiguous and silently ignored
	decoded, err := UnmarshalNew[Outer](map[string]any{"A": "x"})
	require.NoError(t, err)
	require.Equal(t, Outer{}, decoded)
}

func TestUnmarshalTagNaming(t *testing.T) {
	type Struct struct {
		A string
		B string `json:"A"`
	}

	decoded, err := UnmarshalNew[Struct](map[string]any{"A": "value"})
	require.NoError(t, err)
	require.Equal(t, Struct{B: "value"}, decoded)
}

func TestUnmarshalCustomTag(t *testing.T) {
	type Struct struct {
		A string `nuxt:"renamed"`
	}

	dec := NewDecoder().WithTag("nuxt")
	decoded, err := UnmarshalNewWith[Struct](dec, map[string]any{"renamed": "value"})
	require.NoError(t, err)
	require.Equal(t, Struct{A: "value"}, decoded)
}

func TestUnmarshalTargetMustBePointer(t *testing.T) {
	var target struct{}
	require.Error(t, defaultDecoder.Unmarshal(map[string]any{}, target))
	require.Error(t, defaultDecoder.Unmarshal(map[string]any{}, nil))
}

func TestUnmarshalHydratedEndToEnd(t *testing.T) {
	raw := `[{}, {"user": 2, "roles": 5, "since": 8}, {"name": 3, "logins": 4}, "ada", 7, {"$s": [6, 7]}, "admin", "ops", {"$d": 1672531200000}]`

	res, err := Hydrate(raw)
	require.NoError(t, err)

	type Page struct {
		User struct {
			Name   string `json:"name"`
			Logins int    `json:"logins"`
		} `json:"user"`
		Roles []string  `json:"roles"`
		Since time.Time `json:"since"`
	}

	page, err := UnmarshalNew[Page](res.Value)
	require.NoError(t, err)
	require.Equal(t, "ada", page.User.Name)
	require.Equal(t, 7, page.User.Logins)
	require.Equal(t, []string{"admin", "ops"}, page.Roles)
	require.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), page.Since)
}
