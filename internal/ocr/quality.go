package ocr

import "unicode"

// Quality gates used by the extraction strategy.
const (
	// NativeTextMinChars is the minimum text-layer length before a native PDF
	// extraction is even considered.
	NativeTextMinChars = 64

	// NativeAcceptScore accepts a native PDF text layer outright.
	NativeAcceptScore = 0.5

	// EnhanceBelowScore triggers one image enhancement pass before re-OCR.
	EnhanceBelowScore = 0.4
)

// QualityScore estimates extracted-text reliability in [0,1].
// Weighted blend of text length, alphabetic ratio and digit ratio:
// bills carry both prose (vendor, descriptions) and numbers (amounts),
// so a signal missing either scores low.
func QualityScore(text string) float64 {
	if text == "" {
		return 0
	}

	var letters, digits, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if total == 0 {
		return 0
	}

	// length score saturates at 500 visible characters
	lenScore := float64(total) / 500.0
	if lenScore > 1 {
		lenScore = 1
	}
	alphaRatio := float64(letters) / float64(total)
	// a digit share of 15% already counts as fully "numeric enough"
	digitRatio := float64(digits) / float64(total) / 0.15
	if digitRatio > 1 {
		digitRatio = 1
	}

	score := 0.4*lenScore + 0.4*alphaRatio + 0.2*digitRatio
	if score > 1 {
		score = 1
	}
	return score
}
