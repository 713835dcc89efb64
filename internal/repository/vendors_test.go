package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVendorCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ACME Traders", "ACME_TRADERS"},
		{"  acme traders  ", "ACME_TRADERS"},
		{"O'Brien & Sons, Ltd.", "O_BRIEN_SONS_LTD"},
		{"Café 24/7", "CAF_24_7"},
		{"---", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, VendorCode(c.in), c.in)
	}
}

// The upsert must refresh mutable vendor fields when the code already exists,
// not just bump updated_at.
func TestVendorUpsertRefreshesName(t *testing.T) {
	assert.True(t, strings.Contains(vendorUpsertSQL, "name = EXCLUDED.name"))
	assert.True(t, strings.Contains(vendorUpsertSQL, "updated_at = now()"))
}
