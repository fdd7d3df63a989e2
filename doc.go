// Package nuxt decodes the flat, reference-indexed payload that Nuxt 3 embeds
// into rendered pages (the __NUXT_DATA__ element) back into native Go values.
//
// The payload is a JSON array of cells. Composite cells reference other cells
// by integer index instead of nesting them inline, so shared sub-structures
// appear once and cyclic object graphs are representable. [ParsePayload]
// builds an indexed view over the cell array and [Payload.Hydrate] resolves it
// into a value tree of maps, slices, scalars and the special kinds the wire
// format tags explicitly: [time.Time], [Set], ordered maps, [math/big.Int]
// and [regexp.Regexp].
//
// Hydration is linear in the number of cells and terminates on cyclic graphs:
// every composite value is registered in a per-run cache before its children
// are resolved, so a reference that loops back receives the same handle
// instead of re-entering resolution.
//
// A [Decoder] maps hydrated trees onto Go structs, similar to json.Unmarshal.
package nuxt
