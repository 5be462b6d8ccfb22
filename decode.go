package cs2

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/exp/constraints"
)

var tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()

// A setter assigns the value a node describes to the target reflect.Value.
type setter func(n *Node, target reflect.Value) error

// A (schema, target type) pair, the unit the setter cache is keyed by.
type binding struct {
	schema *Schema
	ty     reflect.Type
}

// A set of bindings that are currently in construction
type bindingSet map[binding]struct{}

// Decoder walks schema descriptors against structural trees and produces
// typed values. Compiled (schema, type) bindings are cached in the Decoder,
// so reusing one instance across calls is cheap; the zero value and the
// shared default used by [Decode] are both ready to use. A Decoder is safe
// for concurrent use.
type Decoder struct {
	setterCache sync.Map
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// The default Decoder instance.
var dec Decoder

// Decode decodes with the default [Decoder].
func Decode(node *Node, schema *Schema, v any) error {
	return dec.Decode(node, schema, v)
}

// Decode walks schema against the document root node and stores the result
// in v, which must be a non-nil pointer to a struct or to a slice of
// structs. For a struct target the last record named schema.Name is
// decoded; for a slice target every record with that name is decoded, in
// source order. Decoding is fail-fast: the first field error aborts the
// call and is returned wrapped with the path of field keys leading to it.
func (d *Decoder) Decode(node *Node, schema *Schema, v any) error {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer: %w", ErrTypeMismatch)
	}
	elem := target.Elem()

	switch elem.Kind() {
	case reflect.Struct:
		set, err := d.setterFor(binding{schema, elem.Type()}, bindingSet{})
		if err != nil {
			return err
		}
		rec, ok := node.Get(schema.Name)
		if !ok {
			return fmt.Errorf("record %q: %w", schema.Name, ErrMissingField)
		}
		if err := set(rec, elem); err != nil {
			return fmt.Errorf("record %q: %w", schema.Name, err)
		}
		return nil

	case reflect.Slice:
		elemTy := elem.Type().Elem()
		set, err := d.setterFor(binding{schema, elemTy}, bindingSet{})
		if err != nil {
			return err
		}
		// replace leftover elements of a reused target, keeping the capacity
		if elem.Len() > 0 {
			elem.SetLen(0)
		}
		for rec := range node.All(schema.Name) {
			item := reflect.New(elemTy).Elem()
			if err := set(rec, item); err != nil {
				return fmt.Errorf("record %q: %w", schema.Name, err)
			}
			elem.Set(reflect.Append(elem, item))
		}
		return nil

	default:
		return UnsupportedTypeError{Type: elem.Type()}
	}
}

func (d *Decoder) setterFor(b binding, inConstruction bindingSet) (setter, error) {
	if cached, ok := d.setterCache.Load(b); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[b]; ok {
		// detected a cycle. return a setter that does a cache lookup when
		// executed; the real setter will be cached by then.
		lazySetter := func(n *Node, target reflect.Value) error {
			cached, _ := d.setterCache.Load(b)
			return cached.(setter)(n, target)
		}
		return lazySetter, nil
	}
	inConstruction[b] = struct{}{}

	if err := b.schema.Validate(); err != nil {
		return nil, err
	}
	set, err := d.compileRecord(b.schema, b.ty, inConstruction)
	if err != nil {
		return nil, err
	}

	d.setterCache.Store(b, set)
	return set, nil
}

// boundField is one schema field resolved against a concrete struct type.
type boundField struct {
	key      string
	index    []int
	list     bool
	elemType reflect.Type
	optional bool
	set      setter
}

func (d *Decoder) compileRecord(schema *Schema, ty reflect.Type, inConstruction bindingSet) (setter, error) {
	if ty.Kind() != reflect.Struct {
		return nil, UnsupportedTypeError{Type: ty}
	}

	var bound []boundField
	for i := range schema.Fields {
		f := &schema.Fields[i]
		sf, ok := ty.FieldByName(f.Name)
		if !ok {
			return nil, fmt.Errorf("schema %q: %s has no field %q: %w", schema.Name, ty, f.Name, ErrSchema)
		}

		bf := boundField{key: f.wireKey(), index: sf.Index}

		if sf.Type.Kind() == reflect.Slice && f.Hint != FixedBlock {
			bf.list = true
			bf.elemType = sf.Type.Elem()
			set, err := d.fieldSetter(f, bf.elemType, inConstruction)
			if err != nil {
				return nil, fmt.Errorf("schema %q: field %q: %w", schema.Name, f.Name, err)
			}
			bf.set = set
		} else {
			bf.optional = f.OmitEmpty || sf.Type.Kind() == reflect.Pointer
			set, err := d.fieldSetter(f, sf.Type, inConstruction)
			if err != nil {
				return nil, fmt.Errorf("schema %q: field %q: %w", schema.Name, f.Name, err)
			}
			bf.set = set
		}
		bound = append(bound, bf)
	}

	set := func(n *Node, target reflect.Value) error {
		if n.Kind != Record {
			return fmt.Errorf("expected a record, got a %s: %w", n.Kind, ErrTypeMismatch)
		}
		for _, bf := range bound {
			fieldValue := target.FieldByIndex(bf.index)

			if bf.list {
				if fieldValue.Len() > 0 {
					fieldValue.SetLen(0)
				}
				for child := range n.All(bf.key) {
					item := reflect.New(bf.elemType).Elem()
					if err := bf.set(child, item); err != nil {
						return fmt.Errorf("field %q: %w", bf.key, err)
					}
					fieldValue.Set(reflect.Append(fieldValue, item))
				}
				continue
			}

			child, ok := n.Get(bf.key)
			if !ok {
				if bf.optional {
					continue
				}
				return fmt.Errorf("field %q: %w", bf.key, ErrMissingField)
			}
			if err := bf.set(child, fieldValue); err != nil {
				return fmt.Errorf("field %q: %w", bf.key, err)
			}
		}
		return nil
	}

	return set, nil
}

func (d *Decoder) fieldSetter(f *Field, ty reflect.Type, inConstruction bindingSet) (setter, error) {
	if ty.Kind() == reflect.Pointer {
		inner, err := d.fieldSetter(f, ty.Elem(), inConstruction)
		if err != nil {
			return nil, err
		}
		return makeSetPointer(inner, ty.Elem()), nil
	}

	switch f.Hint {
	case HexStrict, HexCompact:
		return makeSetHex(f, ty)
	case FixedBlock:
		return makeSetBlock(f.Size, ty)
	}

	if reflect.PointerTo(ty).Implements(tyTextUnmarshaler) {
		return setTextUnmarshaler, nil
	}

	switch ty.Kind() {
	case reflect.String:
		return setString, nil

	case reflect.Bool:
		return setBool, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return makeSetInt(parseDecSigned(ty.Bits()), reflect.Value.SetInt), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return makeSetInt(parseDecUnsigned(ty.Bits()), reflect.Value.SetUint), nil

	case reflect.Struct:
		if f.Elem == nil {
			return nil, fmt.Errorf("record field without an element schema: %w", ErrSchema)
		}
		return d.setterFor(binding{f.Elem, ty}, inConstruction)

	default:
		return nil, UnsupportedTypeError{Type: ty}
	}
}

func makeSetPointer(inner setter, pointee reflect.Type) setter {
	return func(n *Node, target reflect.Value) error {
		value := reflect.New(pointee)
		if err := inner(n, value.Elem()); err != nil {
			return err
		}
		target.Set(value)
		return nil
	}
}

func scalarText(n *Node) (string, error) {
	if n.Kind != Scalar {
		return "", fmt.Errorf("expected a scalar, got a %s: %w", n.Kind, ErrTypeMismatch)
	}
	return n.Value, nil
}

// makeSetInt builds a setter for one integer shape from a parse function
// and the matching reflect assignment, SetInt or SetUint.
func makeSetInt[V constraints.Integer](parse func(string) (V, error), assign func(reflect.Value, V)) setter {
	return func(n *Node, target reflect.Value) error {
		s, err := scalarText(n)
		if err != nil {
			return err
		}
		value, err := parse(s)
		if err != nil {
			return err
		}
		assign(target, value)
		return nil
	}
}

func parseDecSigned(bits int) func(string) (int64, error) {
	return func(s string) (int64, error) {
		value, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return 0, fmt.Errorf("parse %q as int%d: %w", s, bits, ErrTypeMismatch)
		}
		return value, nil
	}
}

func parseDecUnsigned(bits int) func(string) (uint64, error) {
	return func(s string) (uint64, error) {
		value, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			return 0, fmt.Errorf("parse %q as uint%d: %w", s, bits, ErrTypeMismatch)
		}
		return value, nil
	}
}

func makeSetHex(f *Field, ty reflect.Type) (setter, error) {
	switch ty.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil, fmt.Errorf("hex field needs an unsigned integer, not %s: %w", ty, ErrSchema)
	}

	bits := ty.Bits()
	compact := f.Hint == HexCompact
	digits := f.Digits
	if digits == 0 {
		digits = bits / 4
	}

	parse := func(s string) (uint64, error) {
		value, err := parseHexLit(s, compact, digits)
		if err != nil {
			return 0, err
		}
		if bits < 64 && value >= 1<<uint(bits) {
			return 0, fmt.Errorf("value %q overflows uint%d: %w", s, bits, ErrTypeMismatch)
		}
		return value, nil
	}
	return makeSetInt(parse, reflect.Value.SetUint), nil
}

func makeSetBlock(size int, ty reflect.Type) (setter, error) {
	array := ty.Kind() == reflect.Array
	switch {
	case array && ty.Elem().Kind() == reflect.Uint8:
		if size == 0 {
			size = ty.Len()
		}
		if size != ty.Len() {
			return nil, fmt.Errorf("block size %d does not match %s: %w", size, ty, ErrSchema)
		}
	case ty.Kind() == reflect.Slice && ty.Elem().Kind() == reflect.Uint8:
		if size == 0 {
			return nil, fmt.Errorf("block field on a slice needs an explicit size: %w", ErrSchema)
		}
	default:
		return nil, fmt.Errorf("block field needs bytes, not %s: %w", ty, ErrSchema)
	}

	return func(n *Node, target reflect.Value) error {
		data, err := blockBytes(n)
		if err != nil {
			return err
		}
		if len(data) != size {
			return fmt.Errorf("got %d bytes, want %d: %w", len(data), size, ErrBlockSize)
		}
		if array {
			reflect.Copy(target, reflect.ValueOf(data))
		} else {
			target.SetBytes(slices.Clone(data))
		}
		return nil
	}, nil
}

// blockBytes reads a node as binary data. A single-line run of hex pairs
// parses as a Scalar, so scalars are accepted and normalized here.
func blockBytes(n *Node) ([]byte, error) {
	switch n.Kind {
	case Block:
		return n.Bytes, nil
	case Scalar:
		return appendHexPairs(nil, n.Value)
	default:
		return nil, fmt.Errorf("expected a block, got a %s: %w", n.Kind, ErrTypeMismatch)
	}
}

func setString(n *Node, target reflect.Value) error {
	s, err := scalarText(n)
	if err != nil {
		return err
	}
	target.SetString(s)
	return nil
}

// Booleans are written as 1 and 0 in CS2 files.
func setBool(n *Node, target reflect.Value) error {
	s, err := scalarText(n)
	if err != nil {
		return err
	}
	switch s {
	case "1":
		target.SetBool(true)
	case "0":
		target.SetBool(false)
	default:
		return fmt.Errorf("parse %q as bool: %w", s, ErrTypeMismatch)
	}
	return nil
}

func setTextUnmarshaler(n *Node, target reflect.Value) error {
	s, err := scalarText(n)
	if err != nil {
		return err
	}
	m := target.Addr().Interface().(encoding.TextUnmarshaler)
	if err := m.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("%v: %w", err, ErrTypeMismatch)
	}
	return nil
}
