// Package cut orchestrates sprite extraction: it scans the input for sheet
// images, runs each through the sheet pipeline on a worker pool, and writes
// the finished sprites as numbered transparent PNGs, one folder per sheet.
package cut

import (
	"fmt"
	"image"
	"log/slog"

	"spritecut/sheet"
)

// ProcessSheet runs the full extraction pipeline on one decoded sheet:
// detect the cell grid, split it, strip each cell's background, then crop
// and (when configured) letterbox-resize. Cells with too little visible
// content are dropped, so the result holds only finished sprites, in
// detection order. The input image is never modified.
func ProcessSheet(logger *slog.Logger, img *image.NRGBA, cfg sheet.Config) ([]*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("zero-dimension sheet: %v", b)
	}

	rects := sheet.DetectCells(img, cfg)
	logger.Info("detected cells", "count", len(rects))

	cells, err := sheet.Split(img, rects)
	if err != nil {
		return nil, fmt.Errorf("could not split sheet: %w", err)
	}

	sprites := make([]*image.NRGBA, 0, len(cells))
	for i, cell := range cells {
		cleaned := sheet.RemoveBackground(cell, cfg)
		cropped := sheet.Crop(cleaned, cfg)
		if cropped == nil {
			logger.Debug("cell is empty, skipping", "cell", i)
			continue
		}
		if cfg.OutputSize > 0 {
			cropped = sheet.Resize(cropped, cfg.OutputSize)
		}
		sprites = append(sprites, cropped)
	}
	return sprites, nil
}
