package cs2

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeRecord(t *testing.T) {
	schema := &Schema{Name: "lokomotive", Fields: []Field{
		{Name: "Name"},
		{Name: "UID", Key: "uid", Hint: HexStrict, Digits: 4},
	}}

	type lokomotive struct {
		Name string
		UID  uint16
	}

	root, err := Encode(schema, lokomotive{Name: "BR 01", UID: 0x4001})
	require.NoError(t, err)

	expected := "" +
		"lokomotive\n" +
		" .name=BR 01\n" +
		" .uid=0x4001\n"
	require.Equal(t, expected, string(Render(root)))
}

func TestEncodeSlice(t *testing.T) {
	schema := &Schema{Name: "lokomotive", Fields: []Field{{Name: "Name"}}}
	type lokomotive struct{ Name string }

	root, err := Encode(schema, []lokomotive{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)
	require.Equal(t, "lokomotive\n .name=a\nlokomotive\n .name=b\n", string(Render(root)))
}

func TestEncodeHexPadding(t *testing.T) {
	schema := &Schema{Name: "lok", Fields: []Field{
		{Name: "UID", Key: "uid", Hint: HexStrict, Digits: 4},
		{Name: "Adresse", Hint: HexCompact},
	}}
	type lok struct {
		UID     uint16
		Adresse uint16
	}

	root, err := Encode(schema, lok{UID: 1, Adresse: 5})
	require.NoError(t, err)

	// strict literals are zero padded, compact ones are minimal
	require.Equal(t, "lok\n .uid=0x0001\n .adresse=0x5\n", string(Render(root)))
}

func TestEncodeBool(t *testing.T) {
	schema := &Schema{Name: "optionen", Fields: []Field{
		{Name: "An"},
		{Name: "Aus"},
	}}
	type optionen struct {
		An  bool
		Aus bool
	}

	root, err := Encode(schema, optionen{An: true})
	require.NoError(t, err)
	require.Equal(t, "optionen\n .an=1\n .aus=0\n", string(Render(root)))
}

func TestEncodeOmitEmpty(t *testing.T) {
	schema := &Schema{Name: "lok", Fields: []Field{
		{Name: "Name"},
		{Name: "Vorname", OmitEmpty: true},
		{Name: "Vmax", OmitEmpty: true},
	}}
	type lok struct {
		Name    string
		Vorname string
		Vmax    int
	}

	root, err := Encode(schema, lok{Name: "a"})
	require.NoError(t, err)
	require.Equal(t, "lok\n .name=a\n", string(Render(root)))

	root, err = Encode(schema, lok{Name: "a", Vorname: "b", Vmax: 120})
	require.NoError(t, err)
	require.Equal(t, "lok\n .name=a\n .vorname=b\n .vmax=120\n", string(Render(root)))
}

func TestEncodeNilPointerSkipped(t *testing.T) {
	schema := &Schema{Name: "lok", Fields: []Field{
		{Name: "Name"},
		{Name: "MfxUID", Key: "mfxuid", Hint: HexStrict, Digits: 8},
	}}
	type lok struct {
		Name   string
		MfxUID *uint32
	}

	root, err := Encode(schema, lok{Name: "a"})
	require.NoError(t, err)
	require.Equal(t, "lok\n .name=a\n", string(Render(root)))

	mfxuid := uint32(0xffcd995d)
	root, err = Encode(schema, lok{Name: "a", MfxUID: &mfxuid})
	require.NoError(t, err)
	require.Equal(t, "lok\n .name=a\n .mfxuid=0xffcd995d\n", string(Render(root)))
}

func TestEncodeLists(t *testing.T) {
	funktion := &Schema{Name: "funktion", Fields: []Field{{Name: "Nr"}}}
	schema := &Schema{Name: "lok", Fields: []Field{
		{Name: "Funktionen", Elem: funktion},
	}}

	type funktionT struct{ Nr uint8 }
	type lok struct{ Funktionen []funktionT }

	root, err := Encode(schema, lok{Funktionen: []funktionT{{Nr: 0}, {Nr: 1}}})
	require.NoError(t, err)

	expected := "" +
		"lok\n" +
		" .funktionen\n" +
		" ..nr=0\n" +
		" .funktionen\n" +
		" ..nr=1\n"
	require.Equal(t, expected, string(Render(root)))

	// empty lists disappear from the output entirely
	root, err = Encode(schema, lok{})
	require.NoError(t, err)
	require.Equal(t, "lok\n", string(Render(root)))
}

func TestEncodeListSkipsNilElements(t *testing.T) {
	funktion := &Schema{Name: "funktion", Fields: []Field{{Name: "Nr"}}}
	schema := &Schema{Name: "lok", Fields: []Field{
		{Name: "Funktionen", Elem: funktion},
	}}

	type funktionT struct{ Nr uint8 }
	type lok struct{ Funktionen []*funktionT }

	root, err := Encode(schema, lok{Funktionen: []*funktionT{{Nr: 0}, nil, {Nr: 2}}})
	require.NoError(t, err)

	expected := "" +
		"lok\n" +
		" .funktionen\n" +
		" ..nr=0\n" +
		" .funktionen\n" +
		" ..nr=2\n"
	require.Equal(t, expected, string(Render(root)))
}

func TestEncodeBlock(t *testing.T) {
	schema := &Schema{Name: "lok", Fields: []Field{
		{Name: "Icon", Hint: FixedBlock},
	}}
	type lok struct{ Icon [4]byte }

	root, err := Encode(schema, lok{Icon: [4]byte{0xde, 0xad, 0xbe, 0xef}})
	require.NoError(t, err)
	require.Equal(t, "lok\n .icon=de ad be ef\n", string(Render(root)))
}

func TestEncodeTextMarshaler(t *testing.T) {
	schema := &Schema{Name: "geraet", Fields: []Field{
		{Name: "IP", Key: "ip"},
	}}
	type geraet struct{ IP netip.Addr }

	root, err := Encode(schema, geraet{IP: netip.MustParseAddr("192.168.1.2")})
	require.NoError(t, err)
	require.Equal(t, "geraet\n .ip=192.168.1.2\n", string(Render(root)))
}

func TestEncodeUnsupportedType(t *testing.T) {
	schema := &Schema{Name: "lok", Fields: []Field{{Name: "Gewicht"}}}
	type lok struct{ Gewicht float64 }

	_, err := Encode(schema, lok{Gewicht: 83.5})
	require.ErrorAs(t, err, &UnsupportedTypeError{})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	funktion := &Schema{Name: "funktion", Fields: []Field{
		{Name: "Nr"},
		{Name: "Wert", OmitEmpty: true},
	}}
	schema := &Schema{Name: "lokomotive", Fields: []Field{
		{Name: "Name"},
		{Name: "UID", Key: "uid", Hint: HexStrict, Digits: 4},
		{Name: "Funktionen", Elem: funktion},
	}}

	type funktionT struct {
		Nr   uint8
		Wert uint8
	}
	type lokomotive struct {
		Name       string
		UID        uint16
		Funktionen []funktionT
	}

	in := lokomotive{
		Name: "01 133 DB",
		UID:  0x4001,
		Funktionen: []funktionT{
			{Nr: 0, Wert: 1},
			{Nr: 1},
		},
	}

	encoded, err := Encode(schema, in)
	require.NoError(t, err)

	parsed, err := Parse(Render(encoded))
	require.NoError(t, err)

	var out lokomotive
	require.NoError(t, Decode(parsed, schema, &out))
	require.Equal(t, in, out)
}
