package sheet

import (
	"cmp"
	"image"
	"slices"
)

// Detection heuristics. These are observable behavior: the separator strategy
// only accepts rows/columns that are almost entirely dark and no thicker than
// a drawn grid line, and the projection strategy refuses splits that would
// produce lopsided cells.
const (
	// fillRatio is the fraction of dark pixels a row/column needs to count
	// as part of a drawn separator line.
	fillRatio = 0.95

	// maxSeparatorThickness is the thickest band still treated as a
	// separator; anything thicker is sprite content.
	maxSeparatorThickness = 20

	// contentDensity is the dark-pixel fraction below which a row/column
	// counts as empty for the white-gap strategy.
	contentDensity = 0.02

	// edgeMarginFrac excludes gap bands within this fraction of either axis
	// edge; border whitespace is not an internal gap.
	edgeMarginFrac = 0.05

	// minBalanceRatio is the minimum span of every segment produced by a
	// gap split, as a fraction of the axis length.
	minBalanceRatio = 0.25

	// minCellSpan discards candidate cells narrower or shorter than this.
	minCellSpan = 10
)

// band is a half-open [Start, End) run of row or column indices.
type band struct {
	Start, End int
}

func (b band) width() int { return b.End - b.Start }

// DetectCells finds the grid layout of a sprite sheet and returns the cell
// rectangles in row-major order, in the image's own coordinate space.
//
// Two strategies are tried in order: separator-line detection (rows/columns
// that are almost entirely dark) and white-gap projection profiles (wide
// empty bands between sprites). If neither finds at least two cells the
// whole image is returned as a single cell, so the result is never empty.
func DetectCells(img *image.NRGBA, cfg Config) []image.Rectangle {
	rowDark, colDark := darkFractions(img, cfg.WhiteThreshold)
	b := img.Bounds()

	if cells := detectSeparatorLines(rowDark, colDark, b); cells != nil {
		return cells
	}
	if cells := detectWhiteGaps(rowDark, colDark, b, cfg.GapMinWidth); cells != nil {
		return cells
	}
	return []image.Rectangle{b}
}

// darkFractions computes, per row and per column, the fraction of pixels
// whose mean brightness is below threshold. Both strategies share these
// projection profiles.
func darkFractions(img *image.NRGBA, threshold int) (rows, cols []float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rows = make([]float64, h)
	cols = make([]float64, w)
	if w == 0 || h == 0 {
		return rows, cols
	}

	// mean(r,g,b) < threshold  <=>  r+g+b < 3*threshold
	darkSum := 3 * threshold
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			px := img.Pix[off+4*x : off+4*x+3 : off+4*x+3]
			if int(px[0])+int(px[1])+int(px[2]) < darkSum {
				rows[y]++
				cols[x]++
			}
		}
	}
	for y := range rows {
		rows[y] /= float64(w)
	}
	for x := range cols {
		cols[x] /= float64(h)
	}
	return rows, cols
}

// findBands collapses consecutive true entries of mask into bands.
func findBands(mask []bool) []band {
	var bands []band
	inBand := false
	start := 0
	for i, v := range mask {
		switch {
		case v && !inBand:
			start = i
			inBand = true
		case !v && inBand:
			bands = append(bands, band{start, i})
			inBand = false
		}
	}
	if inBand {
		bands = append(bands, band{start, len(mask)})
	}
	return bands
}

// detectSeparatorLines implements the first strategy: rows/columns that are
// almost entirely non-white are drawn separator lines. Cells are the gap
// intervals strictly between separator bands, so no separator pixel ever
// lands inside a returned cell.
func detectSeparatorLines(rowDark, colDark []float64, bounds image.Rectangle) []image.Rectangle {
	hBands := separatorBands(rowDark)
	vBands := separatorBands(colDark)
	if len(hBands) == 0 && len(vBands) == 0 {
		return nil
	}

	hIntervals := bandsToGapIntervals(hBands, len(rowDark))
	vIntervals := bandsToGapIntervals(vBands, len(colDark))
	if hIntervals == nil {
		hIntervals = []band{{0, len(rowDark)}}
	}
	if vIntervals == nil {
		vIntervals = []band{{0, len(colDark)}}
	}

	var cells []image.Rectangle
	for _, hi := range hIntervals {
		for _, vi := range vIntervals {
			if vi.width() > minCellSpan && hi.width() > minCellSpan {
				cells = append(cells, image.Rect(
					bounds.Min.X+vi.Start, bounds.Min.Y+hi.Start,
					bounds.Min.X+vi.End, bounds.Min.Y+hi.End,
				))
			}
		}
	}
	if len(cells) < 2 {
		return nil
	}
	return cells
}

func separatorBands(profile []float64) []band {
	mask := make([]bool, len(profile))
	for i, frac := range profile {
		mask[i] = frac > fillRatio
	}
	bands := findBands(mask)
	kept := bands[:0]
	for _, b := range bands {
		if b.width() <= maxSeparatorThickness {
			kept = append(kept, b)
		}
	}
	return kept
}

// bandsToGapIntervals converts separator bands into the cell intervals
// sitting between them: leading run before the first band, runs between
// consecutive bands, trailing run after the last. Slivers of minCellSpan or
// less next to the edges or between bands are dropped. Returns nil when no
// interval survives.
func bandsToGapIntervals(bands []band, total int) []band {
	if len(bands) == 0 {
		return nil
	}

	var intervals []band
	if bands[0].Start > minCellSpan {
		intervals = append(intervals, band{0, bands[0].Start})
	}
	for i := 0; i < len(bands)-1; i++ {
		gap := band{bands[i].End, bands[i+1].Start}
		if gap.width() > minCellSpan {
			intervals = append(intervals, gap)
		}
	}
	if bands[len(bands)-1].End < total-minCellSpan {
		intervals = append(intervals, band{bands[len(bands)-1].End, total})
	}
	return intervals
}

// detectWhiteGaps implements the second strategy: wide low-content bands in
// the projection profiles are treated as implicit separators. Each axis
// independently picks its widest one or two gaps, gated by the balance
// check, and falls back to no split when nothing balanced exists.
func detectWhiteGaps(rowDark, colDark []float64, bounds image.Rectangle, gapMinWidth int) []image.Rectangle {
	h, w := len(rowDark), len(colDark)

	hGaps := findGapBands(rowDark, gapMinWidth)
	vGaps := findGapBands(colDark, gapMinWidth)
	if len(hGaps) == 0 && len(vGaps) == 0 {
		return nil
	}

	hSelected := selectBestGaps(hGaps, h)
	vSelected := selectBestGaps(vGaps, w)
	if hSelected == nil && vSelected == nil {
		return nil
	}

	hSplits := gapsToSplits(hSelected, h)
	vSplits := gapsToSplits(vSelected, w)

	var cells []image.Rectangle
	for ri := 0; ri < len(hSplits)-1; ri++ {
		for ci := 0; ci < len(vSplits)-1; ci++ {
			y0, y1 := hSplits[ri], hSplits[ri+1]
			x0, x1 := vSplits[ci], vSplits[ci+1]
			if x1-x0 > minCellSpan && y1-y0 > minCellSpan {
				cells = append(cells, image.Rect(
					bounds.Min.X+x0, bounds.Min.Y+y0,
					bounds.Min.X+x1, bounds.Min.Y+y1,
				))
			}
		}
	}
	if len(cells) < 2 {
		return nil
	}
	return cells
}

// findGapBands finds runs of the profile below contentDensity that are at
// least minWidth wide and clear of the 5% edge margins.
func findGapBands(profile []float64, minWidth int) []band {
	total := len(profile)
	mask := make([]bool, total)
	for i, frac := range profile {
		mask[i] = frac < contentDensity
	}
	margin := int(float64(total) * edgeMarginFrac)

	var gaps []band
	for _, b := range findBands(mask) {
		if b.width() >= minWidth && b.Start > margin && b.End < total-margin {
			gaps = append(gaps, b)
		}
	}
	return gaps
}

// selectBestGaps picks the widest one or two gaps whose midpoints split the
// axis into balanced segments. Two gaps (a three-cell split) are preferred
// over one; nil means the axis stays unsplit.
func selectBestGaps(gaps []band, total int) []band {
	if len(gaps) == 0 {
		return nil
	}

	byWidth := slices.Clone(gaps)
	slices.SortStableFunc(byWidth, func(a, b band) int {
		return cmp.Compare(b.width(), a.width())
	})

	for _, n := range []int{2, 1} {
		if len(byWidth) < n {
			continue
		}
		candidate := slices.Clone(byWidth[:n])
		slices.SortFunc(candidate, func(a, b band) int {
			return cmp.Compare(a.Start, b.Start)
		})
		if splitsBalanced(gapsToSplits(candidate, total), total) {
			return candidate
		}
	}
	return nil
}

// gapsToSplits turns selected gaps into split positions: axis start, each
// gap's midpoint, axis end. A nil selection yields the unsplit axis.
func gapsToSplits(gaps []band, total int) []int {
	if len(gaps) == 0 {
		return []int{0, total}
	}
	splits := make([]int, 0, len(gaps)+2)
	splits = append(splits, 0)
	for _, g := range gaps {
		splits = append(splits, (g.Start+g.End)/2)
	}
	return append(splits, total)
}

// splitsBalanced reports whether every segment between consecutive splits
// spans at least minBalanceRatio of the axis.
func splitsBalanced(splits []int, total int) bool {
	for i := 0; i < len(splits)-1; i++ {
		if float64(splits[i+1]-splits[i]) < float64(total)*minBalanceRatio {
			return false
		}
	}
	return true
}
