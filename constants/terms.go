package constants

import (
	"strconv"
	"strings"
)

// TermsType is the payment-terms discriminator for a bill.
type TermsType string

const (
	TermsFull         TermsType = "FULL"
	TermsAdvance      TermsType = "ADVANCE"
	TermsInstallments TermsType = "INSTALLMENTS"
	// NET_<n> types are dynamic; see ParseNetDays.
)

// ParseNetDays extracts n from a "NET_<n>" terms type.
// Returns false for anything else.
func ParseNetDays(t string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(t))
	if !strings.HasPrefix(s, "NET_") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "NET_"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
