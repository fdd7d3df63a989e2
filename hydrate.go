package nuxt

import (
	"fmt"
	"log/slog"
)

// rootIndex is the conventional position of the hydration root; cell 0 holds
// serializer metadata and is ignored.
const rootIndex = 1

// Stats carries the counters one hydration run accumulates.
type Stats struct {
	// CellsVisited is the number of cells resolved for the first time.
	CellsVisited int

	// CacheSize is the number of entries in the run's memo when it finished.
	CacheSize int

	// DecodeFailures counts special-type payloads that degraded to nil.
	DecodeFailures int

	// UnknownTags counts cells that fell back to plain object hydration
	// because their tag was not recognized.
	UnknownTags int
}

// Result is the outcome of one hydration run: the fully materialized value
// plus the non-fatal diagnostics collected along the way. Callers either get
// a complete Result or a single structural error, never both.
type Result struct {
	Value    any
	Failures []DecodeFailure
	Warnings []Warning
	Stats    Stats
}

// Hydrate parses raw payload text and hydrates its conventional root in one
// call.
func Hydrate(raw string, opts ...Option) (*Result, error) {
	payload, err := ParsePayload(raw, opts...)
	if err != nil {
		return nil, err
	}
	return payload.Hydrate()
}

// Hydrate resolves the conventional root: cell 1, or cell 0 for single-cell
// payloads that carry no metadata slot.
func (p *Payload) Hydrate() (*Result, error) {
	root := rootIndex
	if len(p.cells) < 2 {
		root = 0
	}
	return p.HydrateIndex(root)
}

// HydrateIndex resolves the graph rooted at the given cell. Every call owns
// its own cache, so independent calls may run concurrently without
// coordination, including on the same Payload.
func (p *Payload) HydrateIndex(root int) (*Result, error) {
	if root < 0 || root >= len(p.cells) {
		return nil, fmt.Errorf("root index %d of %d cells: %w", root, len(p.cells), ErrMalformedInput)
	}

	run := &hydration{
		payload: p,
		cache:   map[int]any{},
		logger:  p.logger,
	}

	value, err := run.resolveIndex(root)
	if err != nil {
		return nil, err
	}

	return &Result{
		Value:    value,
		Failures: run.failures,
		Warnings: run.warnings,
		Stats: Stats{
			CellsVisited:   run.visited,
			CacheSize:      len(run.cache),
			DecodeFailures: len(run.failures),
			UnknownTags:    len(run.warnings),
		},
	}, nil
}

// hydration is the state of a single run. The cache maps cell index to its
// hydrated value; composites are registered before their children resolve,
// which is what terminates cycles and preserves shared identity.
type hydration struct {
	payload  *Payload
	cache    map[int]any
	failures []DecodeFailure
	warnings []Warning
	visited  int
	logger   *slog.Logger
}

// resolve hydrates one child position of a composite cell: integral numbers
// are reference indices, anything else is an inline scalar.
func (h *hydration) resolve(v any) (any, error) {
	if idx, ok := asIndex(v); ok {
		return h.resolveIndex(idx)
	}
	return v, nil
}

func (h *hydration) resolveIndex(idx int) (any, error) {
	if cached, ok := h.cache[idx]; ok {
		return cached, nil
	}

	c, err := h.payload.cellAt(idx)
	if err != nil {
		return nil, err
	}
	h.visited++

	switch c.kind {
	case kindScalar:
		h.cache[idx] = c.scalar
		return c.scalar, nil

	case kindArray:
		// Shell first: allocated at final length so the cached slice
		// header stays valid while elements fill in.
		shell := make([]any, len(c.elems))
		h.cache[idx] = shell
		for i, elem := range c.elems {
			value, err := h.resolve(elem)
			if err != nil {
				return nil, err
			}
			shell[i] = value
		}
		return shell, nil

	case kindObject:
		return h.resolveObject(idx, c.props)

	case kindSpecial:
		return h.resolveSpecial(idx, c)

	default:
		panic("unclassified cell")
	}
}

func (h *hydration) resolveObject(idx int, props []property) (any, error) {
	shell := make(map[string]any, len(props))
	h.cache[idx] = shell
	for _, prop := range props {
		value, err := h.resolve(prop.value)
		if err != nil {
			return nil, err
		}
		shell[prop.name] = value
	}
	return shell, nil
}

// fail records a node-level decode failure and degrades the cell to nil.
func (h *hydration) fail(idx int, tag, detail string) any {
	h.nodeFail(idx, tag, detail)
	h.cache[idx] = nil
	return nil
}

// nodeFail records a failure without touching the cache, for entry-level
// failures inside an otherwise healthy container.
func (h *hydration) nodeFail(idx int, tag, detail string) {
	h.failures = append(h.failures, DecodeFailure{Index: idx, Tag: tag, Detail: detail})
	h.logger.Warn("special type decode failed", "cell", idx, "tag", tag, "detail", detail)
}
