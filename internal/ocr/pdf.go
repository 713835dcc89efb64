package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledgerline/billpipe/constants"
)

// extractPDF tries the native text layer first; if it is too short or scores
// below the acceptance gate, the pages are rasterized and OCR'd instead.
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil {
		trimmed := strings.TrimSpace(text)
		score := QualityScore(trimmed)
		if len(trimmed) >= NativeTextMinChars && score >= NativeAcceptScore {
			return Result{
				Text:       Normalize(text),
				Pages:      pages,
				SourceType: constants.PDF,
				Method:     "pdf-text",
				Quality:    score,
				Language:   e.cfg.TesseractLang,
				Warnings:   warns,
			}, nil
		}
		e.logger.Debug("native pdf text rejected, falling back to ocr",
			"path", path, "chars", len(trimmed), "score", score)
	} else {
		warns = append(warns, err.Error())
	}

	res, ocrErr := e.pdfToOCR(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	return res, ocrErr
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "bp-pp-*")
	if err != nil {
		return Result{SourceType: constants.PDF}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Result{SourceType: constants.PDF, Warnings: []string{string(errb)}}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{SourceType: constants.PDF, Warnings: []string{"pdftoppm produced no images"}},
			fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	enhanced := false
	for _, img := range matches {
		txt, wasEnhanced, w, err := e.ocrWithEnhancement(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		enhanced = enhanced || wasEnhanced
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}

	text := Normalize(b.String())
	return Result{
		Text:       text,
		Pages:      len(matches),
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Quality:    QualityScore(text),
		Enhanced:   enhanced,
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
	}, nil
}
