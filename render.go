package nuxt

import (
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// circularMarker replaces a value that is reachable from itself when
// rendering, since plain JSON cannot express the cycle.
const circularMarker = "[circular]"

// Render converts a hydrated value into a tree of plain JSON-encodable
// values. Instants render as RFC 3339 strings, big integers as decimal
// strings, patterns as their source text, sets as arrays and ordered maps as
// objects with stringified keys. Values on a cycle render as the
// [circularMarker] string, so the result always encodes.
func Render(v any) any {
	r := renderer{seen: map[identity]struct{}{}}
	return r.render(v)
}

// identity names a container by its backing pointer, used to detect cycles
// on the current render path.
type identity struct {
	kind reflect.Kind
	ptr  uintptr
}

type renderer struct {
	seen map[identity]struct{}
}

func (r *renderer) render(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float64, int, int64:
		return v

	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)

	case *big.Int:
		return t.String()

	case *regexp.Regexp:
		return t.String()

	case []any:
		if len(t) == 0 {
			return []any{}
		}
		id := identity{reflect.Slice, reflect.ValueOf(t).Pointer()}
		if _, ok := r.seen[id]; ok {
			return circularMarker
		}
		r.seen[id] = struct{}{}
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = r.render(elem)
		}
		delete(r.seen, id)
		return out

	case map[string]any:
		if len(t) == 0 {
			return map[string]any{}
		}
		id := identity{reflect.Map, reflect.ValueOf(t).Pointer()}
		if _, ok := r.seen[id]; ok {
			return circularMarker
		}
		r.seen[id] = struct{}{}
		out := make(map[string]any, len(t))
		for name, value := range t {
			out[name] = r.render(value)
		}
		delete(r.seen, id)
		return out

	case *Set:
		id := identity{reflect.Pointer, reflect.ValueOf(t).Pointer()}
		if _, ok := r.seen[id]; ok {
			return circularMarker
		}
		r.seen[id] = struct{}{}
		out := make([]any, 0, t.Len())
		for member := range t.All() {
			out = append(out, r.render(member))
		}
		delete(r.seen, id)
		return out

	case *orderedmap.OrderedMap[any, any]:
		id := identity{reflect.Pointer, reflect.ValueOf(t).Pointer()}
		if _, ok := r.seen[id]; ok {
			return circularMarker
		}
		r.seen[id] = struct{}{}
		out := make(map[string]any, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out[renderKey(pair.Key)] = r.render(pair.Value)
		}
		delete(r.seen, id)
		return out

	default:
		return v
	}
}

func renderKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(Render(k))
}
