package sheet

import (
	"image"
)

// neighbor offsets for 4-connectivity, in x/y pairs.
var neighborOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// RemoveBackground returns a copy of cell with the near-white background made
// transparent. The fill is seeded from every border pixel whose channels are
// all >= WhiteThreshold and expands through 4-connected neighbors whose
// channels are all >= WhiteThreshold-FloodFillTolerance. Reached pixels get
// alpha 0; RGB values are left untouched. White areas not connected to the
// border survive, which is what keeps eyes, teeth and highlights inside a
// sprite opaque.
//
// Runs in O(W*H) time and space; the visited and mask bitmaps live only for
// the duration of the call.
func RemoveBackground(cell *image.NRGBA, cfg Config) *image.NRGBA {
	out := copyRegion(cell, cell.Bounds())
	b := out.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return out
	}

	seedMin := cfg.WhiteThreshold
	fillMin := cfg.WhiteThreshold - cfg.FloodFillTolerance

	// visited tracks every inspected pixel, mask only those classified as
	// background. A border pixel that fails the seed test is visited but
	// not masked, so it never starts an expansion.
	visited := make([]bool, w*h)
	mask := make([]bool, w*h)

	channelsAtLeast := func(x, y, floor int) bool {
		off := out.PixOffset(b.Min.X+x, b.Min.Y+y)
		return int(out.Pix[off]) >= floor && int(out.Pix[off+1]) >= floor && int(out.Pix[off+2]) >= floor
	}

	type point struct{ x, y int }
	var queue []point

	seed := func(x, y int) {
		idx := y*w + x
		if visited[idx] {
			return
		}
		visited[idx] = true
		if channelsAtLeast(x, y, seedMin) {
			mask[idx] = true
			queue = append(queue, point{x, y})
		}
	}

	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 1; y < h-1; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	// Multi-source BFS over the 4-connected grid. Every pixel is enqueued
	// at most once, so the loop is bounded by the cell area.
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		for _, d := range neighborOffsets {
			nx, ny := p.x+d[0], p.y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			idx := ny*w + nx
			if visited[idx] {
				continue
			}
			visited[idx] = true
			if channelsAtLeast(nx, ny, fillMin) {
				mask[idx] = true
				queue = append(queue, point{nx, ny})
			}
		}
	}

	for y := 0; y < h; y++ {
		off := out.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			if mask[y*w+x] {
				out.Pix[off+4*x+3] = 0
			}
		}
	}
	return out
}
