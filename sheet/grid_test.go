package sheet_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"spritecut/sheet"
)

// newSheet returns a w x h fully opaque image filled with c.
func newSheet(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
	red   = color.NRGBA{200, 30, 30, 255}
)

// threeByThreeSheet builds a 308x308 sheet: nine 100x100 white cells
// separated by 4px black grid lines, each cell holding a 20x20 red square
// in its center.
func threeByThreeSheet() *image.NRGBA {
	img := newSheet(308, 308, white)
	for _, start := range []int{100, 204} {
		fillRect(img, image.Rect(0, start, 308, start+4), black)
		fillRect(img, image.Rect(start, 0, start+4, 308), black)
	}
	for _, cy := range []int{0, 104, 208} {
		for _, cx := range []int{0, 104, 208} {
			fillRect(img, image.Rect(cx+40, cy+40, cx+60, cy+60), red)
		}
	}
	return img
}

func TestDetectCells_SeparatorGrid(t *testing.T) {
	cells := sheet.DetectCells(threeByThreeSheet(), sheet.DefaultConfig())

	want := make([]image.Rectangle, 0, 9)
	for _, y := range []int{0, 104, 208} {
		for _, x := range []int{0, 104, 208} {
			want = append(want, image.Rect(x, y, x+100, y+100))
		}
	}
	require.Equal(t, want, cells)

	// No separator pixel may sit inside a returned cell.
	for _, band := range []image.Rectangle{
		image.Rect(0, 100, 308, 104), image.Rect(0, 204, 308, 208),
		image.Rect(100, 0, 104, 308), image.Rect(204, 0, 208, 308),
	} {
		for _, cell := range cells {
			require.True(t, cell.Intersect(band).Empty(),
				"cell %v overlaps separator band %v", cell, band)
		}
	}
}

func TestDetectCells_WhiteGapProjection(t *testing.T) {
	// Two sprites side by side, no drawn separators: the wide empty band
	// between them is the only usable split.
	img := newSheet(200, 100, white)
	fillRect(img, image.Rect(35, 35, 65, 65), black)
	fillRect(img, image.Rect(135, 35, 165, 65), black)

	cells := sheet.DetectCells(img, sheet.DefaultConfig())
	require.Equal(t, []image.Rectangle{
		image.Rect(0, 0, 100, 100),
		image.Rect(100, 0, 200, 100),
	}, cells)
}

func TestDetectCells_UnbalancedGapFallsBack(t *testing.T) {
	// The only candidate gap sits at x 150..185; splitting there would
	// leave a 33px segment on a 200px axis, below the 25% balance floor,
	// so the whole image comes back as one cell.
	img := newSheet(200, 100, white)
	fillRect(img, image.Rect(20, 0, 150, 100), black)
	fillRect(img, image.Rect(185, 0, 200, 100), black)

	cells := sheet.DetectCells(img, sheet.DefaultConfig())
	require.Equal(t, []image.Rectangle{image.Rect(0, 0, 200, 100)}, cells)
}

func TestDetectCells_NoGridFallsBack(t *testing.T) {
	// A single centered sprite on a borderless near-white sheet: no filled
	// separator rows/columns, and the surrounding whitespace is all edge
	// margin, so both strategies fail.
	img := newSheet(100, 100, color.NRGBA{250, 250, 250, 255})
	fillRect(img, image.Rect(40, 40, 60, 60), color.NRGBA{90, 90, 90, 255})

	cells := sheet.DetectCells(img, sheet.DefaultConfig())
	require.Equal(t, []image.Rectangle{image.Rect(0, 0, 100, 100)}, cells)
}

func TestDetectCells_NeverEmpty(t *testing.T) {
	img := newSheet(5, 5, white)
	cells := sheet.DetectCells(img, sheet.DefaultConfig())
	require.Len(t, cells, 1)
	require.Equal(t, img.Bounds(), cells[0])
}

func TestDetectCells_ThickDarkBlockIsNotASeparator(t *testing.T) {
	// A 40px fully dark horizontal block spans the sheet. It is far
	// thicker than any drawn grid line, so the separator strategy must not
	// slice around it; the gap strategy then splits on the white band
	// between block and bottom content.
	img := newSheet(100, 400, white)
	fillRect(img, image.Rect(0, 80, 100, 120), black)
	fillRect(img, image.Rect(10, 250, 90, 350), red)

	cells := sheet.DetectCells(img, sheet.DefaultConfig())
	for _, cell := range cells {
		require.True(t, cell.In(img.Bounds()))
		require.Greater(t, cell.Dx(), 10)
		require.Greater(t, cell.Dy(), 10)
	}
	require.GreaterOrEqual(t, len(cells), 2)
}
