package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/urfave/cli/v3"

	"github.com/ivanvanderbyl/pdflayout"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdflayout",
		Usage: "Reconstruct the reading order of a PDF as typed content elements",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input PDF file path",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output JSON file path (default: stdout)",
			},
			&cli.IntFlag{
				Name:  "processors",
				Usage: "Maximum number of parallel page workers",
				Value: 2,
			},
			&cli.IntFlag{
				Name:  "header-margin",
				Usage: "Margin from the top of the page to ignore as header",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "footer-margin",
				Usage: "Margin from the bottom of the page to ignore as footer",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "tolerance",
				Usage: "Tolerance for merging table bounding boxes",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "no-image-text",
				Usage: "Exclude text overlaid on images",
			},
		},
		Action: parsePDF,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type parseResult struct {
	Elements []pdflayout.Element `json:"elements"`
	NumPages int                 `json:"num_pages"`
}

func parsePDF(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputPath := cmd.String("output")
	processors := cmd.Int("processors")

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	// One instance per worker plus the primary view used for assembly.
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  processors + 1,
		MaxTotal: processors + 1,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise pdfium: %w", err)
	}
	defer pool.Close()

	config := pdflayout.DefaultConfig()
	config.MaxProcessors = processors
	config.HeaderMargin = float64(cmd.Int("header-margin"))
	config.FooterMargin = float64(cmd.Int("footer-margin"))
	config.Tolerance = float64(cmd.Int("tolerance"))
	config.NoImageText = cmd.Bool("no-image-text")

	parser := pdflayout.NewParserWithConfig(config)
	source := pdflayout.NewPdfiumSource(pool, data)

	elements, numPages, err := parser.Parse(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to parse PDF: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Parsed %d pages into %d elements\n", numPages, len(elements))

	out, err := json.MarshalIndent(parseResult{Elements: elements, NumPages: numPages}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Result written to %s\n", outputPath)
	} else {
		fmt.Println(string(out))
	}

	return nil
}
