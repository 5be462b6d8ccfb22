package cs2

// Unmarshal parses data and decodes it into v using a schema derived from
// the type of v. v must be a non-nil pointer to a struct or to a slice of
// structs carrying `cs2:"..."` tags.
func Unmarshal(data []byte, v any) error {
	schema, err := SchemaOf(v)
	if err != nil {
		return err
	}
	return UnmarshalSchema(data, schema, v)
}

// UnmarshalSchema is like [Unmarshal] with an explicit schema.
func UnmarshalSchema(data []byte, schema *Schema, v any) error {
	node, err := Parse(data)
	if err != nil {
		return err
	}
	return Decode(node, schema, v)
}

// Marshal encodes v using a schema derived from its type and renders the
// result to text. v may be a struct, a slice of structs, or a pointer to
// either.
func Marshal(v any) ([]byte, error) {
	schema, err := SchemaOf(v)
	if err != nil {
		return nil, err
	}
	return MarshalSchema(schema, v)
}

// MarshalSchema is like [Marshal] with an explicit schema.
func MarshalSchema(schema *Schema, v any) ([]byte, error) {
	node, err := Encode(schema, v)
	if err != nil {
		return nil, err
	}
	return Render(node), nil
}
