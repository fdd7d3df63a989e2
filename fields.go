package nuxt

import (
	"reflect"
	"slices"
	"strings"
)

// structField describes one decodable field of a struct target, with the
// index path to reach it through embedded structs.
type structField struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// structFields resolves the decodable fields of a struct type, honoring the
// struct tag and Go's visibility rules for embedded fields: shallower fields
// shadow deeper ones, and an explicit tag wins over a plain field name.
func structFields(ty reflect.Type, structTag string) []structField {
	if ty.Kind() != reflect.Struct {
		panic("not a struct")
	}

	type queued struct {
		Type        reflect.Type
		ParentIndex []int
	}

	type candidate struct {
		Name     string
		Explicit bool
		Field    structField
	}

	// walk the type breadth first so embedded fields sort by depth
	queue := []queued{{Type: ty}}

	candidates := map[string][]candidate{}

	var order []string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.Type.NumField() {
			fi := item.Type.Field(idx)
			if !fi.IsExported() {
				continue
			}

			name, explicit := fieldName(fi, structTag)
			if name == "" {
				// skipped via tag
				continue
			}

			// derive the index path. cap the parent slice so append
			// always allocates a fresh one
			parent := item.ParentIndex
			index := append(parent[:len(parent):len(parent)], fi.Index...)

			if fi.Anonymous && !explicit {
				// embedded field, queue for later analysis
				if fi.Type.Kind() != reflect.Struct {
					continue
				}

				queue = append(queue, queued{fi.Type, index})
				continue
			}

			if len(candidates[name]) == 0 {
				order = append(order, name)
			}

			candidates[name] = append(candidates[name], candidate{
				Name:     name,
				Explicit: explicit,
				Field: structField{
					Name:  name,
					Index: index,
					Type:  fi.Type,
				},
			})
		}
	}

	var fields []structField

	for _, name := range order {
		candidates := candidates[name]

		// INVARIANT: the bfs walk appends candidates sorted by index
		// length, shortest first
		cmp := func(a, b candidate) int { return len(a.Field.Index) - len(b.Field.Index) }
		if !slices.IsSortedFunc(candidates, cmp) {
			panic("candidates are not sorted")
		}

		// the prefix of candidates at the shallowest depth is visible
		var visible []candidate
		for idx := 0; idx < len(candidates); idx++ {
			if len(candidates[idx].Field.Index) == len(candidates[0].Field.Index) {
				visible = candidates[:idx+1]
			}
		}

		// a single visible candidate always wins
		if len(visible) == 1 {
			fields = append(fields, visible[0].Field)
			continue
		}

		// otherwise only an unambiguous explicit tag wins
		explicit := slices.DeleteFunc(visible, func(c candidate) bool { return !c.Explicit })
		if len(explicit) == 1 {
			fields = append(fields, explicit[0].Field)
			continue
		}

		// ambiguous name, ignored without error
	}

	return fields
}

func fieldName(fi reflect.StructField, structTag string) (name string, explicit bool) {
	tag := fi.Tag.Get(structTag)

	if tag == "" {
		return fi.Name, false
	}

	if tag == "-" {
		// empty name marks the field as skipped
		return "", true
	}

	idx := strings.IndexByte(tag, ',')
	switch {
	case idx == -1:
		// no comma, the full tag is an explicit name
		return tag, true

	case idx > 0:
		// non empty alias, take up to the comma
		return tag[:idx], true

	default:
		// no alias before the comma, keep the field name
		return fi.Name, false
	}
}
