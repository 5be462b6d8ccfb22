package cs2

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Namer overrides the schema name derived from a type name. The CS2 file
// containers need this: their wire name is a bracket header like
// "[lokomotive]", which no Go type name can produce.
type Namer interface {
	CS2Name() string
}

var tyNamer = reflect.TypeFor[Namer]()

// Schemas derived from struct tags, indexed by reflect.Type.
var schemaCache sync.Map

// TypeSchema derives the [Schema] for T from its struct tags. Results are
// cached per type; the returned Schema is shared and must not be modified.
func TypeSchema[T any]() (*Schema, error) {
	return schemaFor(reflect.TypeFor[T]())
}

// SchemaOf derives the [Schema] for v's type from its struct tags,
// unwrapping pointers and slices first, so a *T, a []T and a *[]T all yield
// the schema of T.
func SchemaOf(v any) (*Schema, error) {
	ty := reflect.TypeOf(v)
	for ty != nil && (ty.Kind() == reflect.Pointer || ty.Kind() == reflect.Slice) {
		ty = ty.Elem()
	}
	if ty == nil {
		return nil, fmt.Errorf("cannot derive a schema for nil: %w", ErrSchema)
	}
	return schemaFor(ty)
}

func schemaFor(ty reflect.Type) (*Schema, error) {
	if cached, ok := schemaCache.Load(ty); ok {
		return cached.(*Schema), nil
	}

	schema, err := deriveSchema(ty, typeSet{})
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	schemaCache.Store(ty, schema)
	return schema, nil
}

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

func deriveSchema(ty reflect.Type, inConstruction typeSet) (*Schema, error) {
	if ty.Kind() != reflect.Struct {
		return nil, UnsupportedTypeError{Type: ty}
	}
	if _, ok := inConstruction[ty]; ok {
		return nil, fmt.Errorf("recursive type %s: %w", ty, ErrSchema)
	}
	inConstruction[ty] = struct{}{}
	defer delete(inConstruction, ty)

	schema := &Schema{Name: schemaName(ty)}

	type queued struct {
		ty reflect.Type
	}

	// walk the type BFS so that fields of embedded structs are promoted
	// behind the outer type's own fields; shallower names win
	queue := []queued{{ty}}
	claimed := map[string]struct{}{}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.ty.NumField() {
			fi := item.ty.Field(idx)
			if !fi.IsExported() {
				// embedded structs of unexported type still promote their
				// exported fields, like encoding/json
				if fi.Anonymous && fi.Type.Kind() == reflect.Struct {
					queue = append(queue, queued{fi.Type})
				}
				continue
			}

			key, opts, skip, explicit := parseTag(fi)
			if skip {
				continue
			}

			if fi.Anonymous && !explicit {
				if fi.Type.Kind() != reflect.Struct {
					continue
				}
				queue = append(queue, queued{fi.Type})
				continue
			}

			if _, ok := claimed[fi.Name]; ok {
				continue
			}
			claimed[fi.Name] = struct{}{}

			field, err := deriveField(fi, key, opts, inConstruction)
			if err != nil {
				return nil, fmt.Errorf("field %q of %s: %w", fi.Name, ty, err)
			}
			schema.Fields = append(schema.Fields, field)
		}
	}

	return schema, nil
}

func deriveField(fi reflect.StructField, key, opts string, inConstruction typeSet) (Field, error) {
	field := Field{Name: fi.Name, Key: key}

	for _, opt := range strings.Split(opts, ",") {
		switch opt {
		case "":
		case "omitempty":
			field.OmitEmpty = true
		case "hex":
			field.Hint = HexStrict
		case "hexc":
			field.Hint = HexCompact
		case "block":
			field.Hint = FixedBlock
		default:
			return Field{}, fmt.Errorf("unknown tag option %q: %w", opt, ErrSchema)
		}
	}

	base := fi.Type
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	switch field.Hint {
	case HexStrict:
		switch base.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			field.Digits = int(base.Size()) * 2
		default:
			return Field{}, fmt.Errorf("hex needs an unsigned integer, not %s: %w", base, ErrSchema)
		}
		return field, nil

	case HexCompact:
		switch base.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			return field, nil
		}
		return Field{}, fmt.Errorf("hexc needs an unsigned integer, not %s: %w", base, ErrSchema)

	case FixedBlock:
		if base.Kind() != reflect.Array || base.Elem().Kind() != reflect.Uint8 {
			return Field{}, fmt.Errorf("block needs a byte array, not %s: %w", base, ErrSchema)
		}
		field.Size = base.Len()
		return field, nil
	}

	// plain fields: structs recurse, slices recurse into their element
	switch base.Kind() {
	case reflect.Struct:
		if reflect.PointerTo(base).Implements(tyTextUnmarshaler) {
			return field, nil
		}
		elem, err := deriveSchema(base, inConstruction)
		if err != nil {
			return Field{}, err
		}
		if elem.Name == "" {
			// anonymous struct types have no name to derive one from
			elem.Name = field.wireKey()
		}
		field.Elem = elem
	case reflect.Slice:
		elemTy := base.Elem()
		for elemTy.Kind() == reflect.Pointer {
			elemTy = elemTy.Elem()
		}
		if elemTy.Kind() == reflect.Struct && !reflect.PointerTo(elemTy).Implements(tyTextUnmarshaler) {
			elem, err := deriveSchema(elemTy, inConstruction)
			if err != nil {
				return Field{}, err
			}
			if elem.Name == "" {
				elem.Name = field.wireKey()
			}
			field.Elem = elem
		}
	}
	return field, nil
}

// parseTag reads the `cs2` struct tag, falling back to `json` for the name
// alone. The key is empty when the tag does not rename the field.
func parseTag(fi reflect.StructField) (key, opts string, skip, explicit bool) {
	if tag, ok := fi.Tag.Lookup("cs2"); ok {
		if tag == "-" {
			return "", "", true, true
		}
		key, opts, _ = strings.Cut(tag, ",")
		return key, opts, false, true
	}

	if tag, ok := fi.Tag.Lookup("json"); ok {
		if tag == "-" {
			return "", "", true, true
		}
		key, _, _ = strings.Cut(tag, ",")
		return key, "", false, key != ""
	}

	return "", "", false, false
}

func schemaName(ty reflect.Type) string {
	if ty.Implements(tyNamer) {
		return reflect.New(ty).Elem().Interface().(Namer).CS2Name()
	}
	if reflect.PointerTo(ty).Implements(tyNamer) {
		return reflect.New(ty).Interface().(Namer).CS2Name()
	}
	return toSnakeCase(ty.Name())
}

// toSnakeCase maps Go names onto CS2 keys: "Vorname" becomes "vorname",
// "Funktionen2" becomes "funktionen_2".
func toSnakeCase(s string) string {
	var result strings.Builder
	prev := rune(0)
	for i, r := range s {
		boundary := unicode.IsUpper(r) || (unicode.IsDigit(r) && !unicode.IsDigit(prev))
		if i > 0 && boundary {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return result.String()
}
