package cs2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderRecord(t *testing.T) {
	lok := NewRecord()
	lok.AddScalar("name", "BR 01")
	lok.AddScalar("uid", "0x1234")

	root := NewRecord()
	root.Add("lokomotive", lok)

	expected := "" +
		"lokomotive\n" +
		" .name=BR 01\n" +
		" .uid=0x1234\n"
	require.Equal(t, expected, string(Render(root)))
}

func TestRenderNested(t *testing.T) {
	fn := NewRecord()
	fn.AddScalar("nr", "0")
	fn.AddScalar("typ", "1")

	lok := NewRecord()
	lok.AddScalar("name", "Lok")
	lok.Add("funktionen", fn)
	lok.AddScalar("vmax", "-14")

	root := NewRecord()
	root.Add("lokomotive", lok)

	expected := "" +
		"lokomotive\n" +
		" .name=Lok\n" +
		" .funktionen\n" +
		" ..nr=0\n" +
		" ..typ=1\n" +
		" .vmax=-14\n"
	require.Equal(t, expected, string(Render(root)))
}

func TestRenderBracketSection(t *testing.T) {
	version := NewRecord()
	version.AddScalar("minor", "3")

	lok := NewRecord()
	lok.AddScalar("name", "Lok")

	section := NewRecord()
	section.Add("version", version)
	section.Add("lokomotive", lok)

	root := NewRecord()
	root.Add("[lokomotive]", section)

	expected := "" +
		"[lokomotive]\n" +
		"version\n" +
		" .minor=3\n" +
		"lokomotive\n" +
		" .name=Lok\n"
	require.Equal(t, expected, string(Render(root)))
}

func TestRenderBlock(t *testing.T) {
	lok := NewRecord()
	lok.Add("icon", NewBlock([]byte{0xde, 0xad, 0xbe, 0xef}))

	root := NewRecord()
	root.Add("lokomotive", lok)

	expected := "" +
		"lokomotive\n" +
		" .icon=de ad be ef\n"
	require.Equal(t, expected, string(Render(root)))
}

func TestRenderBlockWraps(t *testing.T) {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(i)
	}

	lok := NewRecord()
	lok.Add("icon", NewBlock(data))

	root := NewRecord()
	root.Add("lokomotive", lok)

	expected := "" +
		"lokomotive\n" +
		" .icon=00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f\n" +
		"   10 11 12 13\n"
	require.Equal(t, expected, string(Render(root)))

	// the wrapped form reads back as the same payload
	parsed, err := Parse(Render(root))
	require.NoError(t, err)
	lokBack, _ := parsed.Get("lokomotive")
	icon, _ := lokBack.Get("icon")
	require.Equal(t, Block, icon.Kind)
	require.Equal(t, data, icon.Bytes)
}

func TestRenderEmptyGroup(t *testing.T) {
	root := NewRecord()
	root.Add("lokomotive", NewRecord())
	require.Equal(t, "lokomotive\n", string(Render(root)))
}

func TestRenderParseRoundTrip(t *testing.T) {
	canonical := "" +
		"[lokomotive]\n" +
		"version\n" +
		" .minor=3\n" +
		"lokomotive\n" +
		" .name=01 133 DB\n" +
		" .uid=0x4001\n" +
		" .funktionen\n" +
		" ..nr=0\n" +
		" ..wert=1\n" +
		" .funktionen\n" +
		" ..nr=1\n"

	root, err := Parse([]byte(canonical))
	require.NoError(t, err)
	require.Equal(t, canonical, string(Render(root)))
}
