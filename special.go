package nuxt

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// resolveSpecial dispatches a tagged cell to its decoder. Scalar-shaped
// results (date, big integer, pattern) are cached directly; container-shaped
// results (set, map) follow the same shell-then-fill discipline as arrays and
// objects, since their members are references that may cycle back.
func (h *hydration) resolveSpecial(idx int, c cell) (any, error) {
	switch c.tag {
	case tagDate:
		return h.resolveDate(idx, c.payload), nil

	case tagSet:
		return h.resolveSet(idx, c.payload)

	case tagMap:
		return h.resolveMap(idx, c.payload)

	case tagBigInt:
		return h.resolveBigInt(idx, c.payload), nil

	case tagRegexp:
		return h.resolveRegexp(idx, c.payload), nil

	default:
		// Unknown tags hydrate as plain objects so payloads from newer
		// serializers still come through; the fallback is recorded as a
		// warning rather than treated as an error.
		h.warnings = append(h.warnings, Warning{Index: idx, Tag: c.tag})
		h.logger.Warn("unsupported special tag, hydrating as plain object", "cell", idx, "tag", c.tag)
		return h.resolveObject(idx, c.props)
	}
}

func (h *hydration) resolveDate(idx int, payload any) any {
	millis, ok := asMillis(payload)
	if !ok {
		return h.fail(idx, tagDate, fmt.Sprintf("payload %v is not a millisecond timestamp", payload))
	}

	value := time.UnixMilli(millis).UTC()
	h.cache[idx] = value
	return value
}

func (h *hydration) resolveSet(idx int, payload any) (any, error) {
	members, ok := payload.([]any)
	if !ok {
		return h.fail(idx, tagSet, fmt.Sprintf("payload %v is not an index list", payload)), nil
	}

	shell := NewSet()
	h.cache[idx] = shell
	for _, member := range members {
		value, err := h.resolve(member)
		if err != nil {
			return nil, err
		}
		shell.Add(value)
	}
	return shell, nil
}

func (h *hydration) resolveMap(idx int, payload any) (any, error) {
	pairs, ok := payload.([]any)
	if !ok {
		return h.fail(idx, tagMap, fmt.Sprintf("payload %v is not a pair list", payload)), nil
	}

	shell := orderedmap.New[any, any]()
	h.cache[idx] = shell
	for i, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			h.nodeFail(idx, tagMap, fmt.Sprintf("entry %d is not a [key, value] pair", i))
			continue
		}

		key, err := h.resolve(pair[0])
		if err != nil {
			return nil, err
		}
		if !comparableValue(key) {
			h.nodeFail(idx, tagMap, fmt.Sprintf("entry %d key of type %T is not usable as a map key", i, key))
			continue
		}

		value, err := h.resolve(pair[1])
		if err != nil {
			return nil, err
		}
		shell.Set(key, value)
	}
	return shell, nil
}

func (h *hydration) resolveBigInt(idx int, payload any) any {
	digits, ok := payload.(string)
	if !ok {
		return h.fail(idx, tagBigInt, fmt.Sprintf("payload %v is not a decimal string", payload))
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return h.fail(idx, tagBigInt, fmt.Sprintf("%q is not a decimal integer", digits))
	}
	h.cache[idx] = value
	return value
}

func (h *hydration) resolveRegexp(idx int, payload any) any {
	source, ok := payload.(string)
	if !ok {
		return h.fail(idx, tagRegexp, fmt.Sprintf("payload %v is not a pattern string", payload))
	}

	value, err := compileJSRegexp(source)
	if err != nil {
		return h.fail(idx, tagRegexp, err.Error())
	}
	h.cache[idx] = value
	return value
}

// compileJSRegexp turns a JavaScript "/pattern/flags" literal into a compiled
// Go pattern. The flags i, m and s map to inline groups; g, y, u, v and d
// only affect how JavaScript drives matching and are dropped. Any other flag
// is rejected.
func compileJSRegexp(source string) (*regexp.Regexp, error) {
	if len(source) < 2 || source[0] != '/' {
		return nil, fmt.Errorf("pattern %q is not of the form /pattern/flags", source)
	}

	slash := strings.LastIndexByte(source, '/')
	if slash == 0 {
		return nil, fmt.Errorf("pattern %q has no closing slash", source)
	}

	pattern := source[1:slash]
	var inline []byte
	for _, flag := range source[slash+1:] {
		switch flag {
		case 'i', 'm', 's':
			inline = append(inline, byte(flag))
		case 'g', 'y', 'u', 'v', 'd':
			// match-irrelevant, dropped
		default:
			return nil, fmt.Errorf("unsupported regexp flag %q in %q", flag, source)
		}
	}

	if len(inline) > 0 {
		pattern = "(?" + string(inline) + ")" + pattern
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", source, err)
	}
	return compiled, nil
}

func asMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
