package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in      string
		want    Category
		matched bool
	}{
		{"Fuel", Fuel, true},
		{"fuel", Fuel, true},
		{"  Software  ", Software, true},
		{"gas", Fuel, true},              // synonym
		{"uber", Travel, true},           // synonym
		{"SaaS platform", Software, true},// substring rule
		{"shipping charges", Freight, true},
		{"office stationery misc", OfficeSupplies, true},
		{"", Other, false},
		{"quantum flux", Other, false},
	}
	for _, c := range cases {
		got, matched := Canonicalize(c.in)
		assert.Equal(t, c.want, got, c.in)
		assert.Equal(t, c.matched, matched, c.in)
	}
}

func TestGroupFor(t *testing.T) {
	assert.Equal(t, GroupCOGS, GroupFor(RawMaterials))
	assert.Equal(t, GroupOperating, GroupFor(Fuel))
	assert.Equal(t, GroupMarketing, GroupFor(Advertising))
	assert.Equal(t, GroupAdmin, GroupFor(Software))
	assert.Equal(t, GroupOperating, GroupFor(Category("unknown")))
}

func TestEveryCategoryHasAGroup(t *testing.T) {
	for _, cat := range allCategories {
		_, ok := categoryGroups[cat]
		assert.True(t, ok, "category %s has no group", cat)
	}
}

func TestParseNetDays(t *testing.T) {
	days, ok := ParseNetDays("NET_30")
	assert.True(t, ok)
	assert.Equal(t, 30, days)

	days, ok = ParseNetDays("net_15")
	assert.True(t, ok)
	assert.Equal(t, 15, days)

	for _, bad := range []string{"", "NET_", "NET_x", "ADVANCE", "NET_-5"} {
		_, ok := ParseNetDays(bad)
		assert.False(t, ok, bad)
	}
}
