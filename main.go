package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"spritecut/cut"
	"spritecut/parallel"
)

var cli struct {
	Workers int        `help:"Number of parallel workers (0 = one per CPU)." default:"1"`
	Cut     cut.CLICmd `cmd:"" default:"withargs" help:"Extract sprites from sprite-sheet images."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("spritecut"),
		kong.Description("Extract individual sprites from sprite-sheet images, "+
			"remove the white background, and save them as transparent PNGs."),
	)

	pool := parallel.Start(cli.Workers)
	if err := kctx.Run(pool); err != nil {
		slog.Error("processing failed", "error", err)
		os.Exit(1)
	}
}
