package cs2

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

var tyTextMarshaler = reflect.TypeFor[encoding.TextMarshaler]()

// An emitter turns a source reflect.Value into a node.
type emitter func(source reflect.Value) (*Node, error)

// Encoder turns typed values back into structural trees, the inverse of
// [Decoder]. Compiled bindings are cached, and an Encoder is safe for
// concurrent use.
type Encoder struct {
	emitterCache sync.Map
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// The default Encoder instance.
var enc Encoder

// Encode encodes with the default [Encoder].
func Encode(schema *Schema, v any) (*Node, error) {
	return enc.Encode(schema, v)
}

// Encode walks schema against v and returns a document root holding one
// record named schema.Name per encoded value. v may be a struct, a slice
// of structs, or a pointer to either.
func (e *Encoder) Encode(schema *Schema, v any) (*Node, error) {
	source := reflect.ValueOf(v)
	for source.Kind() == reflect.Pointer {
		if source.IsNil() {
			return nil, fmt.Errorf("source must not be a nil pointer: %w", ErrTypeMismatch)
		}
		source = source.Elem()
	}

	root := NewRecord()

	switch source.Kind() {
	case reflect.Struct:
		emit, err := e.emitterFor(binding{schema, source.Type()}, bindingSet{})
		if err != nil {
			return nil, err
		}
		rec, err := emit(source)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", schema.Name, err)
		}
		root.Add(schema.Name, rec)
		return root, nil

	case reflect.Slice:
		emit, err := e.emitterFor(binding{schema, source.Type().Elem()}, bindingSet{})
		if err != nil {
			return nil, err
		}
		for i := range source.Len() {
			rec, err := emit(source.Index(i))
			if err != nil {
				return nil, fmt.Errorf("record %q: %w", schema.Name, err)
			}
			root.Add(schema.Name, rec)
		}
		return root, nil

	default:
		return nil, UnsupportedTypeError{Type: source.Type()}
	}
}

func (e *Encoder) emitterFor(b binding, inConstruction bindingSet) (emitter, error) {
	if cached, ok := e.emitterCache.Load(b); ok {
		return cached.(emitter), nil
	}

	if _, ok := inConstruction[b]; ok {
		lazyEmitter := func(source reflect.Value) (*Node, error) {
			cached, _ := e.emitterCache.Load(b)
			return cached.(emitter)(source)
		}
		return lazyEmitter, nil
	}
	inConstruction[b] = struct{}{}

	if err := b.schema.Validate(); err != nil {
		return nil, err
	}
	emit, err := e.compileRecord(b.schema, b.ty, inConstruction)
	if err != nil {
		return nil, err
	}

	e.emitterCache.Store(b, emit)
	return emit, nil
}

// boundOut is one schema field resolved against a concrete struct type,
// output side.
type boundOut struct {
	key       string
	index     []int
	pointer   bool
	list      bool
	omitEmpty bool
	emit      emitter
}

func (e *Encoder) compileRecord(schema *Schema, ty reflect.Type, inConstruction bindingSet) (emitter, error) {
	if ty.Kind() != reflect.Struct {
		return nil, UnsupportedTypeError{Type: ty}
	}

	var bound []boundOut
	for i := range schema.Fields {
		f := &schema.Fields[i]
		sf, ok := ty.FieldByName(f.Name)
		if !ok {
			return nil, fmt.Errorf("schema %q: %s has no field %q: %w", schema.Name, ty, f.Name, ErrSchema)
		}

		bf := boundOut{key: f.wireKey(), index: sf.Index, omitEmpty: f.OmitEmpty}

		elemTy := sf.Type
		if elemTy.Kind() == reflect.Pointer {
			bf.pointer = true
			elemTy = elemTy.Elem()
		}
		if elemTy.Kind() == reflect.Slice && f.Hint != FixedBlock && !bf.pointer {
			bf.list = true
			elemTy = elemTy.Elem()
		}

		emit, err := e.fieldEmitter(f, elemTy, inConstruction)
		if err != nil {
			return nil, fmt.Errorf("schema %q: field %q: %w", schema.Name, f.Name, err)
		}
		bf.emit = emit
		bound = append(bound, bf)
	}

	emit := func(source reflect.Value) (*Node, error) {
		rec := NewRecord()
		for _, bf := range bound {
			fieldValue := source.FieldByIndex(bf.index)

			if bf.pointer {
				if fieldValue.IsNil() {
					continue
				}
				fieldValue = fieldValue.Elem()
			}

			if bf.list {
				for i := range fieldValue.Len() {
					item := fieldValue.Index(i)
					for item.Kind() == reflect.Pointer && !item.IsNil() {
						item = item.Elem()
					}
					// nil elements vanish like nil pointer fields do
					if item.Kind() == reflect.Pointer {
						continue
					}
					child, err := bf.emit(item)
					if err != nil {
						return nil, fmt.Errorf("field %q: %w", bf.key, err)
					}
					rec.Add(bf.key, child)
				}
				continue
			}

			if bf.omitEmpty && fieldValue.IsZero() {
				continue
			}

			child, err := bf.emit(fieldValue)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", bf.key, err)
			}
			rec.Add(bf.key, child)
		}
		return rec, nil
	}

	return emit, nil
}

func (e *Encoder) fieldEmitter(f *Field, ty reflect.Type, inConstruction bindingSet) (emitter, error) {
	if ty.Kind() == reflect.Pointer {
		// list elements may still be pointers; the record loop derefs them.
		ty = ty.Elem()
	}

	switch f.Hint {
	case HexStrict, HexCompact:
		return makeEmitHex(f, ty)
	case FixedBlock:
		return makeEmitBlock(f.Size, ty)
	}

	if ty.Implements(tyTextMarshaler) || reflect.PointerTo(ty).Implements(tyTextMarshaler) {
		return emitTextMarshaler, nil
	}

	switch ty.Kind() {
	case reflect.String:
		return emitString, nil

	case reflect.Bool:
		return emitBool, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return emitInt, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return emitUint, nil

	case reflect.Struct:
		if f.Elem == nil {
			return nil, fmt.Errorf("record field without an element schema: %w", ErrSchema)
		}
		return e.emitterFor(binding{f.Elem, ty}, inConstruction)

	default:
		return nil, UnsupportedTypeError{Type: ty}
	}
}

func makeEmitHex(f *Field, ty reflect.Type) (emitter, error) {
	switch ty.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil, fmt.Errorf("hex field needs an unsigned integer, not %s: %w", ty, ErrSchema)
	}

	compact := f.Hint == HexCompact
	digits := f.Digits
	if digits == 0 {
		digits = ty.Bits() / 4
	}

	return func(source reflect.Value) (*Node, error) {
		return NewScalar(formatHexLit(source.Uint(), compact, digits)), nil
	}, nil
}

func makeEmitBlock(size int, ty reflect.Type) (emitter, error) {
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

	return func(source reflect.Value) (*Node, error) {
		data := make([]byte, source.Len())
		reflect.Copy(reflect.ValueOf(data), source)
		if len(data) != size {
			return nil, fmt.Errorf("got %d bytes, want %d: %w", len(data), size, ErrBlockSize)
		}
		return NewBlock(data), nil
	}, nil
}

func emitString(source reflect.Value) (*Node, error) {
	return NewScalar(source.String()), nil
}

func emitBool(source reflect.Value) (*Node, error) {
	if source.Bool() {
		return NewScalar("1"), nil
	}
	return NewScalar("0"), nil
}

func emitInt(source reflect.Value) (*Node, error) {
	return NewScalar(strconv.FormatInt(source.Int(), 10)), nil
}

func emitUint(source reflect.Value) (*Node, error) {
	return NewScalar(strconv.FormatUint(source.Uint(), 10)), nil
}

func emitTextMarshaler(source reflect.Value) (*Node, error) {
	var m encoding.TextMarshaler
	if source.Type().Implements(tyTextMarshaler) {
		m = source.Interface().(encoding.TextMarshaler)
	} else {
		if !source.CanAddr() {
			copied := reflect.New(source.Type())
			copied.Elem().Set(source)
			source = copied.Elem()
		}
		m = source.Addr().Interface().(encoding.TextMarshaler)
	}
	text, err := m.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrTypeMismatch)
	}
	return NewScalar(string(text)), nil
}
