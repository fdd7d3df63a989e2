package nuxt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// Tag keys used by the wire format for values that JSON cannot express
// directly.
const (
	tagDate   = "$d" // milliseconds since epoch
	tagSet    = "$s" // list of member cell indices
	tagMap    = "$m" // list of [keyIndex, valueIndex] pairs
	tagBigInt = "$b" // decimal digit string
	tagRegexp = "$r" // "/pattern/flags" string
)

// cellKind is a closed classification of a cell, decided once per cell from
// its shape when the payload is constructed.
type cellKind int

const (
	kindScalar cellKind = iota
	kindArray
	kindObject
	kindSpecial
)

// property is one key of an object cell, in declared order.
type property struct {
	name  string
	value any
}

// cell is one slot of the flat payload array.
type cell struct {
	kind    cellKind
	scalar  any        // kindScalar
	elems   []any      // kindArray: references or inline scalars
	props   []property // kindObject; also set for kindSpecial (fallback path)
	tag     string     // kindSpecial
	payload any        // kindSpecial
}

type options struct {
	maxCells int
	logger   *slog.Logger
}

// Option configures payload parsing and hydration.
type Option func(*options)

// WithMaxCells sets a ceiling on the number of cells a payload may declare.
// Payloads above the ceiling are rejected with [GraphTooLargeError] before any
// hydration work happens, bounding worst case work for untrusted pages.
// Zero means no limit.
func WithMaxCells(n int) Option {
	return func(o *options) {
		o.maxCells = n
	}
}

// WithLogger routes hydration diagnostics to the given logger.
// Diagnostics are discarded when no logger is configured.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Payload is an indexed, read-only view over a parsed flat cell array.
// It does not own the input and never mutates it.
type Payload struct {
	cells  []cell
	logger *slog.Logger
}

// ParsePayload parses the raw text of a __NUXT_DATA__ element into a
// [Payload]. The input must be a JSON array; anything else fails with
// [ErrMalformedInput]. Object key order is preserved from the source text so
// hydration order is deterministic.
func ParsePayload(raw string, opts ...Option) (*Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty input: %w", ErrMalformedInput)
	}

	var rawCells []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rawCells); err != nil {
		return nil, fmt.Errorf("payload is not a JSON array: %w", ErrMalformedInput)
	}

	o := applyOptions(opts)
	if err := checkCellCount(len(rawCells), o); err != nil {
		return nil, err
	}

	cells := make([]cell, len(rawCells))
	for i, rawCell := range rawCells {
		c, err := parseCell(rawCell)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells[i] = c
	}

	return &Payload{cells: cells, logger: o.logger}, nil
}

// NewPayload builds a [Payload] from an already-parsed cell slice, e.g. data
// pulled out of a page as a JavaScript value rather than text. Object cells
// given as Go maps carry no declared key order; their properties hydrate in
// sorted key order to keep runs deterministic.
func NewPayload(cells []any, opts ...Option) (*Payload, error) {
	o := applyOptions(opts)
	if err := checkCellCount(len(cells), o); err != nil {
		return nil, err
	}

	classified := make([]cell, len(cells))
	for i, v := range cells {
		classified[i] = classifyValue(v)
	}

	return &Payload{cells: classified, logger: o.logger}, nil
}

// Len returns the number of cells in the payload.
func (p *Payload) Len() int {
	return len(p.cells)
}

// cellAt is the bounds-checked accessor every reference resolves through.
func (p *Payload) cellAt(idx int) (cell, error) {
	if idx < 0 || idx >= len(p.cells) {
		return cell{}, &ReferenceOutOfRangeError{Index: idx, Len: len(p.cells)}
	}
	return p.cells[idx], nil
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

func checkCellCount(n int, o options) error {
	if o.maxCells > 0 && n > o.maxCells {
		return &GraphTooLargeError{Cells: n, Limit: o.maxCells}
	}
	return nil
}

// parseCell classifies one raw cell. Objects are tokenized instead of
// unmarshalled into a map so the declared property order survives.
func parseCell(raw json.RawMessage) (cell, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return cell{}, fmt.Errorf("empty cell: %w", ErrMalformedInput)
	}

	switch trimmed[0] {
	case '[':
		var elems []any
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return cell{}, fmt.Errorf("decode array cell: %w", err)
		}
		return cell{kind: kindArray, elems: elems}, nil

	case '{':
		props, err := parseObjectProps(trimmed)
		if err != nil {
			return cell{}, err
		}
		return classifyObject(props), nil

	default:
		var scalar any
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return cell{}, fmt.Errorf("decode scalar cell: %w", err)
		}
		return cell{kind: kindScalar, scalar: scalar}, nil
	}
}

// parseObjectProps reads an object token by token, keeping source key order.
func parseObjectProps(raw []byte) ([]property, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode object cell: %w", err)
	}

	var props []property
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode object key: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string: %w", keyToken, ErrMalformedInput)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode object value for %q: %w", key, err)
		}
		props = append(props, property{name: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode object cell: %w", err)
	}

	return props, nil
}

// classifyValue mirrors parseCell for pre-parsed input.
func classifyValue(v any) cell {
	switch t := v.(type) {
	case []any:
		return cell{kind: kindArray, elems: t}

	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		props := make([]property, len(keys))
		for i, k := range keys {
			props[i] = property{name: k, value: t[k]}
		}
		return classifyObject(props)

	default:
		return cell{kind: kindScalar, scalar: v}
	}
}

// classifyObject separates special-type markers from plain objects. A special
// cell is an object with a single property whose name starts with "$"; the
// wire format never mixes tag keys with regular properties. The properties
// are kept on the cell either way so unknown tags can fall back to plain
// object hydration.
func classifyObject(props []property) cell {
	if len(props) == 1 && strings.HasPrefix(props[0].name, "$") {
		return cell{
			kind:    kindSpecial,
			tag:     props[0].name,
			payload: props[0].value,
			props:   props,
		}
	}
	return cell{kind: kindObject, props: props}
}

// asIndex reports whether a child value inside a composite cell is a
// reference index. Integral numbers are references; everything else is an
// inline scalar. Negative integers flow through as indices so range checking
// can reject them.
func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
