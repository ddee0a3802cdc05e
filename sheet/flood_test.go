package sheet_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"spritecut/sheet"
)

func TestRemoveBackground_StripsBorderConnectedWhite(t *testing.T) {
	cell := newSheet(100, 100, white)
	fillRect(cell, image.Rect(40, 40, 60, 60), red)

	out := sheet.RemoveBackground(cell, sheet.DefaultConfig())
	require.Equal(t, cell.Bounds().Size(), out.Bounds().Size())

	square := image.Rect(40, 40, 60, 60)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			px := out.NRGBAAt(x, y)
			if image.Pt(x, y).In(square) {
				require.Equal(t, red, px, "sprite pixel at (%d,%d)", x, y)
			} else {
				require.EqualValues(t, 0, px.A, "background alpha at (%d,%d)", x, y)
				// RGB channels stay untouched, only alpha is cleared.
				require.EqualValues(t, 255, px.R, "background red at (%d,%d)", x, y)
			}
		}
	}

	// The input cell must not have been written to.
	require.EqualValues(t, 255, cell.NRGBAAt(0, 0).A)
}

func TestRemoveBackground_InteriorWhiteSurvives(t *testing.T) {
	// A closed dark ring: the white island inside it has no border-connected
	// path of near-white pixels, so it stays fully opaque no matter its size.
	cell := newSheet(50, 50, white)
	fillRect(cell, image.Rect(10, 10, 40, 40), black)
	fillRect(cell, image.Rect(13, 13, 37, 37), white)

	out := sheet.RemoveBackground(cell, sheet.DefaultConfig())

	require.EqualValues(t, 0, out.NRGBAAt(0, 0).A)
	require.EqualValues(t, 0, out.NRGBAAt(49, 49).A)
	require.Equal(t, black, out.NRGBAAt(10, 10))
	for y := 13; y < 37; y++ {
		for x := 13; x < 37; x++ {
			require.Equal(t, white, out.NRGBAAt(x, y), "island pixel at (%d,%d)", x, y)
		}
	}
}

func TestRemoveBackground_ToleranceExpandsButNeverSeeds(t *testing.T) {
	cfg := sheet.DefaultConfig() // threshold 230, tolerance 25

	// RGB 210 is below the seed threshold but above 230-25=205, so it is
	// reachable from an adjacent masked pixel.
	cell := newSheet(5, 5, white)
	cell.SetNRGBA(2, 2, color.NRGBA{210, 210, 210, 255})
	out := sheet.RemoveBackground(cell, cfg)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			require.EqualValues(t, 0, out.NRGBAAt(x, y).A, "pixel at (%d,%d)", x, y)
		}
	}

	// The same value on the border seeds nothing: a seed must be near-white
	// in its own right.
	dim := newSheet(5, 5, color.NRGBA{210, 210, 210, 255})
	fillRect(dim, image.Rect(1, 1, 4, 4), white)
	out = sheet.RemoveBackground(dim, cfg)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			require.EqualValues(t, 255, out.NRGBAAt(x, y).A, "pixel at (%d,%d)", x, y)
		}
	}
}

func TestRemoveBackground_Idempotent(t *testing.T) {
	cell := newSheet(60, 60, white)
	fillRect(cell, image.Rect(15, 15, 45, 45), red)
	fillRect(cell, image.Rect(25, 25, 35, 35), white) // interior detail

	once := sheet.RemoveBackground(cell, sheet.DefaultConfig())
	twice := sheet.RemoveBackground(once, sheet.DefaultConfig())
	require.Equal(t, once.Pix, twice.Pix)
}
