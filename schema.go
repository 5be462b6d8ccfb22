package cs2

import "fmt"

// Hint selects the wire encoding of a single schema field.
type Hint int8

const (
	// Plain writes the value as plain text: decimal integers, booleans as
	// 1/0, strings verbatim.
	Plain Hint = iota
	// HexStrict is a 0x-prefixed hex literal with an exact digit width,
	// zero padded on output and rejected on input at any other width.
	HexStrict
	// HexCompact is a 0x-prefixed hex literal without zero padding.
	HexCompact
	// FixedBlock is a fixed-size byte payload written as hex byte pairs.
	FixedBlock
)

func (h Hint) String() string {
	switch h {
	case Plain:
		return "plain"
	case HexStrict:
		return "hex"
	case HexCompact:
		return "hexc"
	case FixedBlock:
		return "block"
	default:
		panic("unknown hint")
	}
}

// Field describes how one typed field maps onto a record entry. The zero
// value of everything but Name is a plain, required field keyed by the
// snake_case form of Name.
type Field struct {
	// Name is the Go struct field this entry binds to.
	Name string

	// Key overrides the wire key. Empty means snake_case of Name.
	Key string

	// Hint selects the wire encoding.
	Hint Hint

	// Digits is the literal width for HexStrict fields. Zero derives it
	// from the bound integer type, two digits per byte.
	Digits int

	// Size is the byte length for FixedBlock fields. Zero derives it from
	// the bound array type.
	Size int

	// OmitEmpty skips the field when encoding a zero value, and lets it
	// default to the zero value when absent from input.
	OmitEmpty bool

	// Elem is the nested schema for record fields and list elements.
	Elem *Schema
}

func (f *Field) wireKey() string {
	if f.Key != "" {
		return f.Key
	}
	return toSnakeCase(f.Name)
}

// Schema is the data-valued descriptor consumed by [Decode] and [Encode].
// Name is the wire key of the record itself, `lokomotive` or `[lokomotive]`
// style. A Schema must not be modified once it is in use; shared read-only
// schemas are safe across goroutines.
type Schema struct {
	Name   string
	Fields []Field
}

type schemaSet map[*Schema]struct{}

// Validate reports, once and up front, everything about the descriptor that
// can be checked without a target type: empty names, out-of-range hex
// widths, negative block sizes and duplicate wire keys. All failures wrap
// [ErrSchema]. Validation of type-dependent details (a FixedBlock field
// bound to something that is not a byte array, say) happens when the schema
// is first bound to a type.
func (s *Schema) Validate() error {
	return s.validate(schemaSet{})
}

func (s *Schema) validate(seen schemaSet) error {
	if _, ok := seen[s]; ok {
		return nil
	}
	seen[s] = struct{}{}

	if s.Name == "" {
		return fmt.Errorf("schema has no name: %w", ErrSchema)
	}
	keys := make(map[string]struct{}, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("schema %q: field %d has no name: %w", s.Name, i, ErrSchema)
		}
		if f.Digits < 0 || f.Digits > 16 {
			return fmt.Errorf("schema %q: field %q: hex width %d out of range: %w", s.Name, f.Name, f.Digits, ErrSchema)
		}
		if f.Size < 0 {
			return fmt.Errorf("schema %q: field %q: negative block size: %w", s.Name, f.Name, ErrSchema)
		}
		key := f.wireKey()
		if _, dup := keys[key]; dup {
			return fmt.Errorf("schema %q: duplicate key %q: %w", s.Name, key, ErrSchema)
		}
		keys[key] = struct{}{}

		if f.Elem != nil {
			if err := f.Elem.validate(seen); err != nil {
				return err
			}
		}
	}
	return nil
}
