package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	src := rand.New(rand.NewPCG(1, 2))
	for n := 1; n <= 64; n++ {
		seq := Generate(src, n)
		require.Len(t, seq, n)
		for _, c := range seq {
			assert.Contains(t, Palette, c)
		}
	}
}

func TestGenerate_UsesSourceInOrder(t *testing.T) {
	src := script(Blue, Green, Yellow, Red, Blue)

	assert.Equal(t, []Color{Blue, Green, Yellow, Red, Blue}, Generate(src, 5))
}

func TestGenerate_Distribution(t *testing.T) {
	src, err := NewSource(2024)
	require.NoError(t, err)

	const draws = 40000
	counts := map[Color]int{}
	repeats := 0
	seq := Generate(src, draws)
	for i, c := range seq {
		counts[c]++
		if i > 0 && seq[i-1] == c {
			repeats++
		}
	}

	require.Len(t, counts, len(Palette))
	for _, c := range Palette {
		// expected 10000 each; allow a generous band
		assert.InDelta(t, draws/len(Palette), counts[c], 600, "color %s", c)
	}
	// Independent draws repeat the previous color about a quarter of the time.
	assert.InDelta(t, draws/4, repeats, 600)
}

func TestNewSource_Seeded(t *testing.T) {
	a, err := NewSource(99)
	require.NoError(t, err)
	b, err := NewSource(99)
	require.NoError(t, err)

	assert.Equal(t, Generate(a, 32), Generate(b, 32))
}

func TestPalette_CaseSensitive(t *testing.T) {
	assert.Equal(t, [...]Color{"red", "yellow", "green", "blue"}, Palette)
	assert.NotContains(t, Palette, Color("Red"))
}
