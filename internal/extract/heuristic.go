package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// HeuristicConfidence is the fixed confidence attached to rule-based results.
// Always treated as lower-trust than a model-based extraction.
const HeuristicConfidence = 0.3

const (
	minHeuristicChars = 10
	maxVendorLen      = 80
	maxLineItems      = 10
)

var (
	reISODate = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	reDMYDate = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)
	reNumber  = regexp.MustCompile(`\d[\d,]*(?:\.\d{1,2})?`)
	reAlpha   = regexp.MustCompile(`[A-Za-z]{2,}`)
)

// keyword classes collapse extraction to one synthetic line item; many real
// bills (fuel pumps, cab apps) have no tabular layout at all.
var keywordClasses = []struct {
	keywords []string
	category string
	label    string
}{
	{[]string{"petrol", "diesel", "fuel", "filling station"}, "Fuel", "Fuel purchase"},
	{[]string{"cab", "taxi", "uber", "ola", "ride"}, "Travel", "Cab fare"},
	{[]string{"flight", "airline", "airways", "boarding"}, "Travel", "Air travel"},
	{[]string{"restaurant", "food", "cafe", "meal", "dining"}, "Meals", "Food and dining"},
	{[]string{"software", "subscription", "license", "cloud", "hosting"}, "Software", "Technology service"},
}

// Heuristic extracts best-effort bill fields from raw text using patterns
// only. Pure function: same text always yields the same result. Returns nil
// when the input is absent or too short to say anything useful.
func Heuristic(text string) *Result {
	text = strings.TrimSpace(text)
	if len(text) < minHeuristicChars {
		return nil
	}

	lines := strings.Split(text, "\n")

	f := Fields{
		VendorName: firstNonEmptyLine(lines),
		BillDate:   findDate(text),
		Confidence: HeuristicConfidence,
	}
	f.Subtotal, f.TaxAmount, f.Total = findTotals(lines)

	if cls, label, ok := classify(text); ok {
		f.CategoryHint = cls
		// collapse to a single synthetic line equal to the bill total
		if f.Total != "" {
			f.LineItems = []LineItem{{Description: label, Quantity: 1, Amount: f.Total}}
		}
	} else {
		f.LineItems = findLineItems(lines)
	}

	return &Result{Fields: f, Provider: ProviderHeuristic}
}

func firstNonEmptyLine(lines []string) string {
	for _, ln := range lines {
		s := strings.TrimSpace(ln)
		if s == "" {
			continue
		}
		if len(s) > maxVendorLen {
			s = s[:maxVendorLen]
		}
		return s
	}
	return ""
}

// findDate looks for YYYY-MM-DD-like then DD-MM-YYYY-like tokens. Component
// order is disambiguated by which side exceeds 31 (year) or 12 (day).
func findDate(text string) string {
	if m := reISODate.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if y > 1900 && validMonthDay(mo, d) {
			return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
		}
	}
	if m := reDMYDate.FindStringSubmatch(text); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if y > 1900 {
			// prefer DD-MM; swap when the first component cannot be a day
			d, mo := a, b
			if d > 31 {
				return ""
			}
			if mo > 12 && d <= 12 {
				d, mo = mo, d
			}
			if validMonthDay(mo, d) {
				return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
			}
		}
	}
	return ""
}

func validMonthDay(mo, d int) bool {
	return mo >= 1 && mo <= 12 && d >= 1 && d <= 31
}

// findTotals scans lines for amount keywords. The last number on a matching
// line wins. Subtotal is derived as total-tax when absent.
func findTotals(lines []string) (subtotal, tax, total string) {
	for _, ln := range lines {
		low := strings.ToLower(ln)
		num := lastNumber(ln)
		if num == "" {
			continue
		}
		switch {
		case strings.Contains(low, "grand total"),
			strings.Contains(low, "amount due"),
			strings.Contains(low, "total due"),
			(strings.Contains(low, "total") && !strings.Contains(low, "subtotal") && !strings.Contains(low, "sub total")):
			if total == "" {
				total = num
			}
		case strings.Contains(low, "subtotal"), strings.Contains(low, "sub total"):
			if subtotal == "" {
				subtotal = num
			}
		case strings.Contains(low, "tax"), strings.Contains(low, "gst"), strings.Contains(low, "vat"):
			if tax == "" {
				tax = num
			}
		}
	}

	if subtotal == "" && total != "" && tax != "" {
		t := parseAmount(total)
		x := parseAmount(tax)
		if t > 0 && x >= 0 && t >= x {
			subtotal = formatAmount(t - x)
		}
	}
	return subtotal, tax, total
}

// findLineItems keeps lines that carry both alphabetic text and a positive
// number, capped at maxLineItems. Keyword summary lines are skipped.
func findLineItems(lines []string) []LineItem {
	var items []LineItem
	for _, ln := range lines {
		if len(items) >= maxLineItems {
			break
		}
		low := strings.ToLower(ln)
		if strings.Contains(low, "total") || strings.Contains(low, "tax") ||
			strings.Contains(low, "gst") || strings.Contains(low, "vat") ||
			strings.Contains(low, "amount due") {
			continue
		}
		if !reAlpha.MatchString(ln) {
			continue
		}
		num := lastNumber(ln)
		if num == "" || parseAmount(num) <= 0 {
			continue
		}
		desc := strings.TrimSpace(reNumber.ReplaceAllString(ln, ""))
		desc = strings.Trim(desc, " \t-:x@")
		if desc == "" {
			continue
		}
		items = append(items, LineItem{
			Description: desc,
			Quantity:    1,
			Amount:      num,
		})
	}
	return items
}

func classify(text string) (category, label string, ok bool) {
	low := strings.ToLower(text)
	for _, cls := range keywordClasses {
		for _, kw := range cls.keywords {
			if strings.Contains(low, kw) {
				return cls.category, cls.label, true
			}
		}
	}
	return "", "", false
}

func lastNumber(line string) string {
	matches := reNumber.FindAllString(line, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := strings.ReplaceAll(matches[i], ",", "")
		if v, err := strconv.ParseFloat(m, 64); err == nil && v > 0 {
			return m
		}
	}
	return ""
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}
