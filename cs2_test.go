package cs2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	type lokomotive struct {
		Name string `cs2:"name"`
		UID  uint16 `cs2:"uid,hex"`
	}

	input := "lokomotive\n .name=BR 01\n .uid=0x1234\n"

	var lok lokomotive
	require.NoError(t, Unmarshal([]byte(input), &lok))
	require.Equal(t, lokomotive{Name: "BR 01", UID: 0x1234}, lok)

	// marshalling the value back reproduces the input byte for byte,
	// including the hex literal width
	out, err := Marshal(lok)
	require.NoError(t, err)
	require.Equal(t, input, string(out))
}

func TestUnmarshalSlice(t *testing.T) {
	type lokomotive struct {
		Name string `cs2:"name"`
	}

	input := "lokomotive\n .name=a\nlokomotive\n .name=b\n"

	var loks []lokomotive
	require.NoError(t, Unmarshal([]byte(input), &loks))
	require.Equal(t, []lokomotive{{Name: "a"}, {Name: "b"}}, loks)

	out, err := Marshal(loks)
	require.NoError(t, err)
	require.Equal(t, input, string(out))
}

type gleisHeader struct {
	Version uint8 `cs2:"version"`
}

type gleisbild struct {
	gleisHeader
	Name string `cs2:"name"`
}

func TestUnmarshalEmbedded(t *testing.T) {
	input := "gleisbild\n .name=Seite 1\n .version=2\n"

	var g gleisbild
	require.NoError(t, Unmarshal([]byte(input), &g))
	require.Equal(t, "Seite 1", g.Name)
	require.Equal(t, uint8(2), g.Version)

	out, err := Marshal(g)
	require.NoError(t, err)
	require.Equal(t, input, string(out))
}

func TestUnmarshalParseError(t *testing.T) {
	type lokomotive struct {
		Name string `cs2:"name"`
	}

	var lok lokomotive
	err := Unmarshal([]byte("lokomotive\n ..name=x\n"), &lok)
	require.ErrorIs(t, err, ErrUnexpectedIndent)
}

func TestMarshalSchema(t *testing.T) {
	schema := &Schema{Name: "version", Fields: []Field{
		{Name: "Major", OmitEmpty: true},
		{Name: "Minor"},
	}}

	type version struct {
		Major uint8
		Minor uint8
	}

	out, err := MarshalSchema(schema, version{Minor: 3})
	require.NoError(t, err)
	require.Equal(t, "version\n .minor=3\n", string(out))

	var v version
	require.NoError(t, UnmarshalSchema(out, schema, &v))
	require.Equal(t, version{Minor: 3}, v)
}
