package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ledgerline/billpipe/constants"
)

var reBoxNoise = regexp.MustCompile(`[|¦_]{3,}`)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	txt, enhanced, warn, err := e.ocrWithEnhancement(ctx, path)
	if err != nil {
		return Result{SourceType: constants.IMAGE, Warnings: warn}, err
	}
	txt = Normalize(txt)

	return Result{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Quality:    QualityScore(txt),
		Enhanced:   enhanced,
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
	}, nil
}

// ocrWithEnhancement OCRs an image; when the first pass scores under the
// enhancement gate it runs one greyscale/contrast/sharpen pass and keeps
// whichever result scores higher.
func (e *Extractor) ocrWithEnhancement(ctx context.Context, path string) (string, bool, []string, error) {
	txt, warns, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return "", false, warns, err
	}

	score := QualityScore(Normalize(txt))
	if score >= EnhanceBelowScore {
		return txt, false, warns, nil
	}

	e.logger.Debug("ocr quality below enhancement gate, retrying", "path", path, "score", score)
	enhancedPath, cleanup, err := e.enhanceImage(ctx, path)
	if err != nil {
		// keep the original result; enhancement is best-effort
		warns = append(warns, fmt.Sprintf("enhance: %v", err))
		return txt, false, warns, nil
	}
	defer cleanup()

	retry, w2, err := e.tesseractOCR(ctx, enhancedPath)
	warns = append(warns, w2...)
	if err != nil {
		warns = append(warns, fmt.Sprintf("enhanced ocr: %v", err))
		return txt, false, warns, nil
	}

	if QualityScore(Normalize(retry)) > score {
		return retry, true, warns, nil
	}
	return txt, false, warns, nil
}

// enhanceImage writes a greyscale, contrast-normalized, sharpened copy.
func (e *Extractor) enhanceImage(ctx context.Context, path string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "bp-enh-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "enhanced.png")

	// magick <in> -colorspace Gray -normalize -sharpen 0x1 <out>
	if _, errb, err := e.runner.Run(ctx, e.cfg.Magick, path,
		"-colorspace", "Gray", "-normalize", "-sharpen", "0x1", out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("magick enhance failed: %w (%s)", err, truncate(string(errb), 512))
	}
	if _, statErr := os.Stat(out); statErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("enhancement produced no output: %v", statErr)
	}
	return out, cleanup, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
