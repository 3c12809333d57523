package detection

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frameClip = image.Rect(0, 0, 640, 480)

func leftBand() StripConfig {
	return StripConfig{
		VerticalInterval: Interval{218, 368},
		VerticalStep:     10,
		WidthInterval:    Interval{36, 120},
		CenterInterval:   Interval{205, -15},
	}
}

func TestBuildStrips_DefaultLeftBand(t *testing.T) {
	strips, err := BuildStrips(leftBand(), frameClip)
	require.NoError(t, err)
	require.Len(t, strips, 16)

	// Top row: center 205, half-width 36.
	assert.Equal(t, image.Point{X: 169, Y: 218}, strips[0].Left)
	assert.Equal(t, 72, strips[0].Width)
	assert.Equal(t, image.Point{X: 241, Y: 218}, strips[0].Right())

	// Bottom row: center -15, half-width 120, clipped at column 0.
	last := strips[len(strips)-1]
	assert.Equal(t, 368, last.Row())
	assert.Equal(t, 0, last.Left.X)
	assert.Equal(t, 105, last.Right().X)
}

func TestBuildStrips_FloorInterpolation(t *testing.T) {
	strips, err := BuildStrips(leftBand(), frameClip)
	require.NoError(t, err)

	// Row 228: width 36 + floor(84*10/150) = 41 and
	// center 205 + floor(-220*10/150) = 205 - 15 = 190.
	s := strips[1]
	assert.Equal(t, 228, s.Row())
	assert.Equal(t, 190-41, s.Left.X)
	assert.Equal(t, 82, s.Width)
}

func TestBuildStrips_EndRowOvershoot(t *testing.T) {
	cfg := StripConfig{
		VerticalInterval: Interval{0, 25},
		VerticalStep:     10,
		WidthInterval:    Interval{5, 5},
		CenterInterval:   Interval{50, 50},
	}
	strips, err := BuildStrips(cfg, frameClip)
	require.NoError(t, err)

	rows := make([]int, len(strips))
	for i, s := range strips {
		rows[i] = s.Row()
	}
	assert.Equal(t, []int{0, 10, 20, 30}, rows)
}

func TestBuildStrips_DropsRowsOutsideClip(t *testing.T) {
	t.Run("horizontally outside", func(t *testing.T) {
		cfg := StripConfig{
			VerticalInterval: Interval{0, 100},
			VerticalStep:     10,
			WidthInterval:    Interval{10, 10},
			CenterInterval:   Interval{50, -200},
		}
		strips, err := BuildStrips(cfg, frameClip)
		require.NoError(t, err)
		// Centers 50, 25, 0 reach the image; from row 30 on the segment
		// lies left of column 0.
		require.Len(t, strips, 3)
		assert.Equal(t, image.Point{X: 0, Y: 20}, strips[2].Left)
		assert.Equal(t, 10, strips[2].Width)
	})

	t.Run("below the image", func(t *testing.T) {
		cfg := StripConfig{
			VerticalInterval: Interval{470, 500},
			VerticalStep:     10,
			WidthInterval:    Interval{10, 10},
			CenterInterval:   Interval{320, 320},
		}
		strips, err := BuildStrips(cfg, frameClip)
		require.NoError(t, err)
		require.Len(t, strips, 1)
		assert.Equal(t, 470, strips[0].Row())
	})

	t.Run("right edge is exclusive", func(t *testing.T) {
		cfg := StripConfig{
			VerticalInterval: Interval{10, 20},
			VerticalStep:     10,
			WidthInterval:    Interval{20, 20},
			CenterInterval:   Interval{630, 630},
		}
		strips, err := BuildStrips(cfg, frameClip)
		require.NoError(t, err)
		require.Len(t, strips, 2)
		assert.Equal(t, 639, strips[0].Right().X)
	})
}

func TestBuildStrips_AllOutside(t *testing.T) {
	cfg := StripConfig{
		VerticalInterval: Interval{0, 100},
		VerticalStep:     10,
		WidthInterval:    Interval{10, 10},
		CenterInterval:   Interval{-100, -100},
	}
	_, err := BuildStrips(cfg, frameClip)
	assert.ErrorIs(t, err, ErrEmptyStripSet)
}

func TestBuildStrips_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name string
		cfg  StripConfig
		clip image.Rectangle
	}{
		{"zero step", StripConfig{VerticalInterval: Interval{0, 100}, VerticalStep: 0}, frameClip},
		{"descending rows", StripConfig{VerticalInterval: Interval{100, 0}, VerticalStep: 10}, frameClip},
		{"flat rows", StripConfig{VerticalInterval: Interval{50, 50}, VerticalStep: 10}, frameClip},
		{"negative width", StripConfig{VerticalInterval: Interval{0, 100}, VerticalStep: 10, WidthInterval: Interval{-1, 4}}, frameClip},
		{"empty clip", leftBand(), image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildStrips(tt.cfg, tt.clip)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 2, floorDiv(7, 3))
	assert.Equal(t, -3, floorDiv(-7, 3))
	assert.Equal(t, -2, floorDiv(-6, 3))
	assert.Equal(t, 0, floorDiv(0, 3))
}
