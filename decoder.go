package nuxt

import (
	"encoding"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/constraints"
)

// ErrNoValue is returned when a hydrated object carries no entry for a
// requested field.
var ErrNoValue = errors.New("no value")

// ErrWrongKind is returned when a hydrated value cannot be represented as the
// requested Go type.
var ErrWrongKind = errors.New("wrong kind")

// NotSupportedError is returned for target types the decoder cannot fill.
type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("type %q is not supported", n.Type)
}

// Unmarshal maps a hydrated value onto target, which must be a non-nil
// pointer. It is a convenience for pages whose shape the caller knows:
//
//	res, _ := payload.Hydrate()
//	var page struct {
//		Meetings []Meeting `json:"meetings"`
//	}
//	err := nuxt.Unmarshal(res.Value, &page)
func Unmarshal(value any, target any) error {
	return defaultDecoder.Unmarshal(value, target)
}

// UnmarshalNew maps a hydrated value onto a fresh T.
func UnmarshalNew[T any](value any) (T, error) {
	return UnmarshalNewWith[T](&defaultDecoder, value)
}

// UnmarshalNewWith maps a hydrated value onto a fresh T using dec.
func UnmarshalNewWith[T any](dec *Decoder, value any) (T, error) {
	var target T
	err := dec.Unmarshal(value, &target)
	return target, err
}

// A setter assigns a hydrated value to the reflect.Value.
type setter func(value any, target reflect.Value) error

// A set of target types currently being analyzed, for cycle detection.
type typeSet map[reflect.Type]struct{}

var (
	tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
	tyTime            = reflect.TypeFor[time.Time]()
	tyBigInt          = reflect.TypeFor[*big.Int]()
	tyRegexp          = reflect.TypeFor[*regexp.Regexp]()
	tySet             = reflect.TypeFor[*Set]()
)

// The default Decoder instance.
var defaultDecoder Decoder

// Decoder maps hydrated value trees onto Go types. The zero value uses the
// "json" struct tag. A Decoder is safe for concurrent use.
type Decoder struct {
	// the struct tag that is used
	structTag string

	// Cache for setters, indexed by reflect.Type
	setterCache sync.Map

	// Set to true to fail with ErrNoValue if a struct field has no
	// matching entry in the hydrated object.
	requireValues bool
}

func NewDecoder() *Decoder {
	return &Decoder{
		structTag: "json",
	}
}

func (d *Decoder) WithTag(structTag string) *Decoder {
	if d.structTag == structTag {
		return d
	}

	return &Decoder{
		structTag:     structTag,
		requireValues: d.requireValues,
	}
}

func (d *Decoder) RequireValues() *Decoder {
	if d.requireValues {
		return d
	}

	return &Decoder{
		structTag:     d.structTag,
		requireValues: true,
	}
}

func (d *Decoder) Unmarshal(value any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}

	targetValue := rv.Elem()

	// build the setter for the targets type
	setter, err := d.setterOf(typeSet{}, targetValue.Type())
	if err != nil {
		return err
	}

	return setter(value, targetValue)
}

func (d *Decoder) setterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if cached, ok := d.setterCache.Load(ty); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a recursive type. return a setter that does a cache
		// lookup when executed; the real setter is in the cache by then.
		lazySetter := func(value any, target reflect.Value) error {
			cached, _ := d.setterCache.Load(ty)
			return cached.(setter)(value, target)
		}

		return lazySetter, nil
	}

	inConstruction[ty] = struct{}{}

	setter, err := d.makeSetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	d.setterCache.Store(ty, setter)

	return setter, nil
}

func (d *Decoder) makeSetterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	// hydrated special kinds assign directly
	switch ty {
	case tyTime:
		return setTime, nil
	case tyBigInt:
		return setBigInt, nil
	case tyRegexp:
		return setRegexp, nil
	case tySet:
		return setSet, nil
	}

	if reflect.PointerTo(ty).Implements(tyTextUnmarshaler) {
		return setTextUnmarshaler, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return setBool, nil

	case reflect.Int:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt), int64(math.MaxInt), false), nil

	case reflect.Int8:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt8), int64(math.MaxInt8), false), nil

	case reflect.Int16:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt16), int64(math.MaxInt16), false), nil

	case reflect.Int32:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt32), int64(math.MaxInt32), false), nil

	case reflect.Int64:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt64), int64(math.MaxInt64), false), nil

	case reflect.Uint:
		return makeSetInt(reflect.Value.SetUint, 0, uint64(math.MaxUint), true), nil

	case reflect.Uint8:
		return makeSetInt(reflect.Value.SetUint, 0, uint64(math.MaxUint8), true), nil

	case reflect.Uint16:
		return makeSetInt(reflect.Value.SetUint, 0, uint64(math.MaxUint16), true), nil

	case reflect.Uint32:
		return makeSetInt(reflect.Value.SetUint, 0, uint64(math.MaxUint32), true), nil

	case reflect.Uint64:
		return makeSetInt(reflect.Value.SetUint, 0, uint64(math.MaxUint64), true), nil

	case reflect.Float32, reflect.Float64:
		return setFloat, nil

	case reflect.String:
		return setString, nil

	case reflect.Interface:
		if ty.NumMethod() == 0 {
			return setAny, nil
		}
		return nil, NotSupportedError{Type: ty}

	case reflect.Pointer:
		return d.makeSetPointer(inConstruction, ty)

	case reflect.Struct:
		return d.makeSetStruct(inConstruction, ty)

	case reflect.Slice:
		return d.makeSetSlice(inConstruction, ty)

	case reflect.Array:
		return d.makeSetArray(inConstruction, ty)

	case reflect.Map:
		return d.makeSetMap(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func (d *Decoder) makeSetStruct(inConstruction typeSet, ty reflect.Type) (setter, error) {
	var setters []setter

	structTag := d.structTag
	if structTag == "" {
		structTag = "json"
	}

	fields := structFields(ty, structTag)

	for _, field := range fields {
		fieldSetter, err := d.setterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("setter for field %q: %w", field.Name, err)
		}

		setters = append(setters, fieldSetter)
	}

	setter := func(value any, target reflect.Value) error {
		for idx, field := range fields {
			fieldValue, err := objectGet(value, field.Name)
			switch {
			case errors.Is(err, ErrNoValue):
				if d.requireValues {
					return fmt.Errorf("field %q: %w", field.Name, err)
				}
				// no entry in the hydrated object, skip the field
				continue
			case err != nil:
				return fmt.Errorf("lookup child %q: %w", field.Name, err)
			}

			fieldTarget := target.FieldByIndex(field.Index)
			if err := setters[idx](fieldValue, fieldTarget); err != nil {
				return fmt.Errorf("set field %q on %q: %w", field.Name, target.Type(), err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetMap(inConstruction typeSet, ty reflect.Type) (setter, error) {
	keySetter, err := d.setterOf(inConstruction, ty.Key())
	if err != nil {
		return nil, fmt.Errorf("setter for key type %q: %w", ty, err)
	}

	valueSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for value type %q: %w", ty, err)
	}

	keyType := ty.Key()
	valueType := ty.Elem()

	setter := func(value any, target reflect.Value) error {
		entries, err := objectEntries(value)
		if err != nil {
			return fmt.Errorf("iterate key/value pairs: %w", err)
		}

		mapTarget := reflect.MakeMap(ty)

		for key, entryValue := range entries {
			keyTarget := reflect.New(keyType).Elem()
			if err := keySetter(key, keyTarget); err != nil {
				return fmt.Errorf("set key: %w", err)
			}

			valueTarget := reflect.New(valueType).Elem()
			if err := valueSetter(entryValue, valueTarget); err != nil {
				return fmt.Errorf("set value: %w", err)
			}

			mapTarget.SetMapIndex(keyTarget, valueTarget)
		}

		target.Set(mapTarget)

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetSlice(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	setter := func(value any, target reflect.Value) error {
		elems, err := sliceElems(value)
		if err != nil {
			return err
		}

		sliceTarget := reflect.MakeSlice(ty, len(elems), len(elems))
		for idx, elem := range elems {
			if err := elementSetter(elem, sliceTarget.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		target.Set(sliceTarget)

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetArray(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// number of elements in the array
	elementCount := ty.Len()

	setter := func(value any, target reflect.Value) error {
		elems, err := sliceElems(value)
		if err != nil {
			return err
		}

		for idx := 0; idx < elementCount && idx < len(elems); idx++ {
			if err := elementSetter(elems[idx], target.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetPointer(inConstruction typeSet, ty reflect.Type) (setter, error) {
	pointeeType := ty.Elem()

	pointeeSetter, err := d.setterOf(inConstruction, pointeeType)
	if err != nil {
		return nil, err
	}

	setter := func(value any, target reflect.Value) error {
		if value == nil {
			target.Set(reflect.Zero(ty))
			return nil
		}

		// newValue is a pointer to an instance of the pointeeType
		newValue := reflect.New(pointeeType)
		if err := pointeeSetter(value, newValue.Elem()); err != nil {
			return err
		}

		target.Set(newValue)

		return nil
	}

	return setter, nil
}

// objectGet looks up one property of a hydrated object-shaped value.
func objectGet(value any, name string) (any, error) {
	switch t := value.(type) {
	case map[string]any:
		v, ok := t[name]
		if !ok {
			return nil, ErrNoValue
		}
		return v, nil

	case *orderedmap.OrderedMap[any, any]:
		v, ok := t.Get(name)
		if !ok {
			return nil, ErrNoValue
		}
		return v, nil

	default:
		return nil, fmt.Errorf("%T has no properties: %w", value, ErrWrongKind)
	}
}

// objectEntries iterates a hydrated object-shaped value. Plain objects yield
// in sorted key order, ordered maps in insertion order.
func objectEntries(value any) (iter.Seq2[any, any], error) {
	switch t := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		return func(yield func(any, any) bool) {
			for _, k := range keys {
				if !yield(k, t[k]) {
					return
				}
			}
		}, nil

	case *orderedmap.OrderedMap[any, any]:
		return func(yield func(any, any) bool) {
			for pair := t.Oldest(); pair != nil; pair = pair.Next() {
				if !yield(pair.Key, pair.Value) {
					return
				}
			}
		}, nil

	default:
		return nil, fmt.Errorf("%T is not object shaped: %w", value, ErrWrongKind)
	}
}

// sliceElems flattens a hydrated sequence-shaped value.
func sliceElems(value any) ([]any, error) {
	switch t := value.(type) {
	case []any:
		return t, nil
	case *Set:
		return t.Values(), nil
	default:
		return nil, fmt.Errorf("%T is not sequence shaped: %w", value, ErrWrongKind)
	}
}

func setBool(value any, target reflect.Value) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("get bool value from %T: %w", value, ErrWrongKind)
	}

	target.SetBool(b)
	return nil
}

func makeSetInt[V constraints.Integer](
	setValue func(reflect.Value, V),
	minValue, maxValue V,
	isUnsigned bool,
) setter {
	return func(value any, target reflect.Value) error {
		intValue, err := valueInt(value)
		if err != nil {
			return fmt.Errorf("get int value: %w", err)
		}

		var vZero V

		if isUnsigned && intValue < 0 {
			return fmt.Errorf("invalid %T value %d: %w", vZero, intValue, strconv.ErrRange)
		}

		if V(intValue) < minValue {
			return fmt.Errorf("invalid %T value %d: %w", vZero, intValue, strconv.ErrRange)
		}

		if V(intValue) > maxValue {
			return fmt.Errorf("invalid %T value %d: %w", vZero, intValue, strconv.ErrRange)
		}

		setValue(target, V(intValue))
		return nil
	}
}

// valueInt extracts an integer from a hydrated value. JSON numbers arrive as
// float64; big integers pass through when they fit.
func valueInt(value any) (int64, error) {
	switch t := value.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("number %v is not integral: %w", t, ErrWrongKind)
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case *big.Int:
		if !t.IsInt64() {
			return 0, fmt.Errorf("big integer %s overflows int64: %w", t, strconv.ErrRange)
		}
		return t.Int64(), nil
	default:
		return 0, fmt.Errorf("get int value from %T: %w", value, ErrWrongKind)
	}
}

func setFloat(value any, target reflect.Value) error {
	switch t := value.(type) {
	case float64:
		target.SetFloat(t)
		return nil
	case int:
		target.SetFloat(float64(t))
		return nil
	case int64:
		target.SetFloat(float64(t))
		return nil
	default:
		return fmt.Errorf("get float value from %T: %w", value, ErrWrongKind)
	}
}

func setString(value any, target reflect.Value) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("get string value from %T: %w", value, ErrWrongKind)
	}

	target.SetString(s)
	return nil
}

func setAny(value any, target reflect.Value) error {
	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	target.Set(reflect.ValueOf(value))
	return nil
}

func setTime(value any, target reflect.Value) error {
	switch t := value.(type) {
	case time.Time:
		target.Set(reflect.ValueOf(t))
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", t, err)
		}
		target.Set(reflect.ValueOf(parsed))
		return nil
	default:
		return fmt.Errorf("get time value from %T: %w", value, ErrWrongKind)
	}
}

func setBigInt(value any, target reflect.Value) error {
	if n, ok := value.(*big.Int); ok {
		target.Set(reflect.ValueOf(n))
		return nil
	}

	intValue, err := valueInt(value)
	if err != nil {
		return err
	}
	target.Set(reflect.ValueOf(big.NewInt(intValue)))
	return nil
}

func setRegexp(value any, target reflect.Value) error {
	re, ok := value.(*regexp.Regexp)
	if !ok {
		return fmt.Errorf("get pattern value from %T: %w", value, ErrWrongKind)
	}

	target.Set(reflect.ValueOf(re))
	return nil
}

func setSet(value any, target reflect.Value) error {
	s, ok := value.(*Set)
	if !ok {
		return fmt.Errorf("get set value from %T: %w", value, ErrWrongKind)
	}

	target.Set(reflect.ValueOf(s))
	return nil
}

func setTextUnmarshaler(value any, target reflect.Value) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("get string value from %T: %w", value, ErrWrongKind)
	}

	m := target.Addr().Interface().(encoding.TextUnmarshaler)
	return m.UnmarshalText([]byte(text))
}
