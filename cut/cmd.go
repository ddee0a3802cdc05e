package cut

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/alecthomas/kong"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"spritecut/parallel"
	"spritecut/sheet"
)

type CLICmd struct {
	Input          string `help:"Path to a single sheet image or a folder of sheets." short:"i" required:""`
	Output         string `help:"Destination folder for extracted sprites. One subfolder per sheet." short:"o" required:""`
	Size           int    `help:"Target square size in pixels (0 keeps the cropped size)." default:"512"`
	Padding        int    `help:"Transparent padding around the cropped sprite." default:"10"`
	WhiteThreshold int    `help:"Channel value at or above which a pixel is treated as white background." default:"230"`
	FloodTolerance int    `help:"Color tolerance for flood-fill expansion." default:"25"`
	MinPixels      int    `help:"Minimum visible pixels for a cell to count as a sprite." default:"200"`
	GapMinWidth    int    `help:"Minimum width of a white band recognised as a grid gap." default:"8"`
	Config         string `help:"YAML config file; its values take precedence over the flags." optional:""`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	input, err := filepath.Abs(c.Input)
	if err == nil {
		_, err = os.Stat(input)
	}
	if err != nil {
		return fmt.Errorf("invalid input path %q: %w", c.Input, err)
	}
	c.Input = input

	if c.Output, err = filepath.Abs(c.Output); err != nil {
		return fmt.Errorf("invalid output path %q: %w", c.Output, err)
	}

	switch {
	case c.Size < 0:
		return fmt.Errorf("invalid size: %d", c.Size)
	case c.Padding < 0:
		return fmt.Errorf("invalid padding: %d", c.Padding)
	case c.WhiteThreshold < 0 || c.WhiteThreshold > 255:
		return fmt.Errorf("white threshold out of range: %d", c.WhiteThreshold)
	case c.FloodTolerance < 0:
		return fmt.Errorf("invalid flood tolerance: %d", c.FloodTolerance)
	case c.MinPixels < 0:
		return fmt.Errorf("invalid minimum pixel count: %d", c.MinPixels)
	case c.GapMinWidth < 0:
		return fmt.Errorf("invalid gap width: %d", c.GapMinWidth)
	}
	return nil
}

// pipelineConfig folds the flags into a sheet.Config, then lets an explicit
// YAML config file override them.
func (c *CLICmd) pipelineConfig() (sheet.Config, error) {
	conf := sheet.DefaultConfig()
	conf.OutputSize = c.Size
	conf.Padding = c.Padding
	conf.WhiteThreshold = c.WhiteThreshold
	conf.FloodFillTolerance = c.FloodTolerance
	conf.MinSpritePixels = c.MinPixels
	conf.GapMinWidth = c.GapMinWidth

	if c.Config == "" {
		return conf, nil
	}
	return sheet.LoadConfig(c.Config, conf)
}

// Run processes every sheet under the input path, one pool task per sheet,
// and writes each sheet's sprites to <output>/<sheet-stem>/<n>.png numbered
// from 0 in detection order.
func (c *CLICmd) Run(pool *parallel.Pool) error {
	conf, err := c.pipelineConfig()
	if err != nil {
		return err
	}

	sheets, err := c.collectSheets()
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		slog.Warn("no sheet images found", "input", c.Input)
		return nil
	}

	if err := os.MkdirAll(c.Output, 0o755); err != nil {
		return fmt.Errorf("unable to create output folder %q: %w", c.Output, err)
	}

	var sheetCount, spriteCount, errCount atomic.Uint64
	for _, sheetPath := range sheets {
		pool.Submit(func() {
			logger := slog.Default().With("file", sheetPath)

			sprites, err := processFile(logger, sheetPath, conf)
			if err != nil {
				errCount.Add(1)
				logger.Error("could not process sheet", "error", err)
				return
			}

			stem := strings.TrimSuffix(filepath.Base(sheetPath), filepath.Ext(sheetPath))
			destDir := filepath.Join(c.Output, stem)
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				errCount.Add(1)
				logger.Error("unable to create sheet folder", "dir", destDir, "error", err)
				return
			}

			for idx, sprite := range sprites {
				if err := saveSprite(sprite, destDir, idx); err != nil {
					errCount.Add(1)
					logger.Error("could not save sprite", "dir", destDir, "index", idx, "error", err)
					return
				}
				b := sprite.Bounds()
				logger.Info("saved sprite", "index", idx, "width", b.Dx(), "height", b.Dy())
			}
			sheetCount.Add(1)
			spriteCount.Add(uint64(len(sprites)))
		})
	}
	pool.Close()

	processed := sheetCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "sheets", processed, "sprites", spriteCount.Load(), "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d sheets", errors)
	}
	return nil
}

// collectSheets resolves the input path to the list of sheet files: the file
// itself, or every decodable image directly inside the folder.
func (c *CLICmd) collectSheets() ([]string, error) {
	info, err := os.Stat(c.Input)
	if err != nil {
		return nil, fmt.Errorf("cannot stat input %q: %w", c.Input, err)
	}
	if !info.IsDir() {
		return []string{c.Input}, nil
	}

	entries, err := os.ReadDir(c.Input)
	if err != nil {
		return nil, fmt.Errorf("unable to read folder %q: %w", c.Input, err)
	}

	var sheets []string
	for _, entry := range entries {
		if entry.IsDir() || !decodableExt(entry.Name()) {
			continue
		}
		sheets = append(sheets, filepath.Join(c.Input, entry.Name()))
	}
	return sheets, nil
}

func decodableExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp":
		return true
	}
	return false
}

func processFile(logger *slog.Logger, path string, conf sheet.Config) ([]*image.NRGBA, error) {
	imgFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer func() {
		if closeErr := imgFile.Close(); closeErr != nil {
			logger.Error("could not close image", "error", closeErr)
		}
	}()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	return ProcessSheet(logger, sheet.ToNRGBA(img), conf)
}

// saveSprite writes one sprite as <dir>/<idx>.png through a temp file so a
// failed encode never leaves a truncated output behind.
func saveSprite(sprite image.Image, dir string, idx int) (err error) {
	destName := fmt.Sprintf("%d.png", idx)

	outFile, err := os.CreateTemp(dir, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}
		if err != nil || !canRename {
			_ = os.Remove(outFile.Name())
			return
		}
		if defErr := os.Rename(outFile.Name(), filepath.Join(dir, destName)); defErr != nil {
			err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
		}
	}()

	enc := png.Encoder{
		CompressionLevel: png.BestCompression,
		BufferPool:       pngPool,
	}
	if err = enc.Encode(outFile, sprite); err != nil {
		return fmt.Errorf("could not encode PNG destination %q: %w", destName, err)
	}

	canRename = true
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
