package sheet

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Split crops img into one independent image per rectangle, in the order the
// rectangles were detected. Each output owns its pixels and has its origin
// at (0,0). A rectangle reaching outside img is a caller bug and aborts the
// whole sheet.
func Split(img *image.NRGBA, rects []image.Rectangle) ([]*image.NRGBA, error) {
	cells := make([]*image.NRGBA, 0, len(rects))
	for i, r := range rects {
		if r.Empty() || !r.In(img.Bounds()) {
			return nil, fmt.Errorf("cell %d out of sheet bounds: %v not in %v", i, r, img.Bounds())
		}
		cells = append(cells, copyRegion(img, r))
	}
	return cells, nil
}

// Crop tightly crops sprite to the bounding box of its opaque pixels,
// expanded by cfg.Padding on each side but never past the sprite's own
// bounds. A nil result is the skip signal: the cell holds fewer than
// cfg.MinSpritePixels visible pixels and is not worth emitting.
func Crop(sprite *image.NRGBA, cfg Config) *image.NRGBA {
	b := sprite.Bounds()
	w, h := b.Dx(), b.Dy()

	visible := 0
	minX, minY := w, h
	maxX, maxY := -1, -1
	for y := 0; y < h; y++ {
		off := sprite.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			if sprite.Pix[off+4*x+3] == 0 {
				continue
			}
			visible++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if visible < cfg.MinSpritePixels {
		return nil
	}

	minX = max(0, minX-cfg.Padding)
	minY = max(0, minY-cfg.Padding)
	maxX = min(w-1, maxX+cfg.Padding)
	maxY = min(h-1, maxY+cfg.Padding)

	r := image.Rect(b.Min.X+minX, b.Min.Y+minY, b.Min.X+maxX+1, b.Min.Y+maxY+1)
	return copyRegion(sprite, r)
}

// Resize scales sprite to fit a size x size square without distortion and
// centers it on a fully transparent canvas. The scale factor is
// min(size/w, size/h); leftover canvas stays at alpha 0. A sprite already at
// the target scale is block-copied instead of resampled.
func Resize(sprite *image.NRGBA, size int) *image.NRGBA {
	b := sprite.Bounds()
	w, h := b.Dx(), b.Dy()
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	if w == 0 || h == 0 {
		return canvas
	}

	scale := min(float64(size)/float64(w), float64(size)/float64(h))
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))
	offX := (size - newW) / 2
	offY := (size - newH) / 2

	if newW == w && newH == h {
		rowLen := 4 * w
		for y := 0; y < h; y++ {
			src := sprite.PixOffset(b.Min.X, b.Min.Y+y)
			dst := canvas.PixOffset(offX, offY+y)
			copy(canvas.Pix[dst:dst+rowLen], sprite.Pix[src:src+rowLen])
		}
		return canvas
	}

	dest := image.Rect(offX, offY, offX+newW, offY+newH)
	draw.CatmullRom.Scale(canvas, dest, sprite, b, draw.Over, nil)
	return canvas
}

// ToNRGBA returns img as an NRGBA buffer with its origin at (0,0), copying
// unless img already has that exact representation.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == image.Pt(0, 0) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// copyRegion extracts r from img into a fresh origin-based buffer.
func copyRegion(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	rowLen := 4 * r.Dx()
	for y := 0; y < r.Dy(); y++ {
		src := img.PixOffset(r.Min.X, r.Min.Y+y)
		dst := out.PixOffset(0, y)
		copy(out.Pix[dst:dst+rowLen], img.Pix[src:src+rowLen])
	}
	return out
}
