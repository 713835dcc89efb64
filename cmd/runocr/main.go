package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ledgerline/billpipe/internal/extract"
	"github.com/ledgerline/billpipe/internal/ocr"
)

// runocr extracts text from a single file and reports the quality metadata.
// Useful for tuning OCR settings without running the full pipeline.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <path-to-file>")
		os.Exit(2)
	}
	path := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:     os.Getenv("PDFTOTEXT_BIN"),
		Pdftoppm:      os.Getenv("PDFTOPPM_BIN"),
		Tesseract:     os.Getenv("TESSERACT_BIN"),
		Magick:        os.Getenv("MAGICK_BIN"),
		TesseractLang: os.Getenv("TESSERACT_LANG"),
		TessdataDir:   os.Getenv("TESSDATA_PREFIX"),
	}, logger)
	textExtractor := extract.NewOCRAdapter(ocrx, logger)

	start := time.Now()
	res, err := textExtractor.Extract(ctx, path)
	dur := time.Since(start)

	if err != nil {
		logger.Error("text extraction failed",
			"path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"quality", res.Quality,
		"enhanced", res.Enhanced,
		"duration_ms", dur.Milliseconds(),
	)
}
