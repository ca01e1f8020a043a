package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCurrent(t *testing.T) {
	t.Cleanup(func() { _ = SetCurrent(DefaultName) })

	require.NoError(t, SetCurrent(" Cardtrack-Dark "))
	assert.Equal(t, "cardtrack-dark", Current().Name)

	require.NoError(t, SetCurrent(""))
	assert.Equal(t, DefaultName, Current().Name)

	require.Error(t, SetCurrent("solarized"))
	assert.Equal(t, DefaultName, Current().Name)
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, []string{"cardtrack-dark", "cardtrack-light"}, Available())
}

func TestPaletteFallsBackToDefault(t *testing.T) {
	p := Palette{Name: "partial", Colors: map[Token]Color{ColorDanger: single("#FF0000")}}
	assert.Equal(t, "#FF0000", p.Color(ColorDanger).Light)
	assert.Equal(t, lightPalette().Colors[ColorBorder], p.Color(ColorBorder))
}

func TestContrastColor(t *testing.T) {
	assert.Equal(t, "#121418", contrastColor("#FFFFFF"))
	assert.Equal(t, "#F8F8F8", contrastColor("#000000"))
	assert.Equal(t, "#121418", contrastColor("not-a-color"))
}
