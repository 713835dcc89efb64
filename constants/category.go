package constants

import (
	"strings"
)

type Category string

type CategoryGroup string

// Coarse classification a detailed category rolls up into.
const (
	GroupCOGS      CategoryGroup = "COGS"
	GroupOperating CategoryGroup = "OPERATING"
	GroupMarketing CategoryGroup = "MARKETING"
	GroupAdmin     CategoryGroup = "ADMIN"
)

const (
	RawMaterials         Category = "RawMaterials"
	Packaging            Category = "Packaging"
	Freight              Category = "Freight"
	Fuel                 Category = "Fuel"
	Travel               Category = "Travel"
	Meals                Category = "Meals"
	Utilities            Category = "Utilities"
	Rent                 Category = "Rent"
	Advertising          Category = "Advertising"
	Promotions           Category = "Promotions"
	Software             Category = "Software"
	OfficeSupplies       Category = "OfficeSupplies"
	ProfessionalServices Category = "ProfessionalServices"
	Other                Category = "Other"
)

// categoryGroups is the static lookup table mapping a canonical category to its group.
var categoryGroups = map[Category]CategoryGroup{
	RawMaterials:         GroupCOGS,
	Packaging:            GroupCOGS,
	Freight:              GroupCOGS,
	Fuel:                 GroupOperating,
	Travel:               GroupOperating,
	Meals:                GroupOperating,
	Utilities:            GroupOperating,
	Rent:                 GroupOperating,
	Advertising:          GroupMarketing,
	Promotions:           GroupMarketing,
	Software:             GroupAdmin,
	OfficeSupplies:       GroupAdmin,
	ProfessionalServices: GroupAdmin,
	Other:                GroupOperating,
}

var allCategories = []Category{
	RawMaterials,
	Packaging,
	Freight,
	Fuel,
	Travel,
	Meals,
	Utilities,
	Rent,
	Advertising,
	Promotions,
	Software,
	OfficeSupplies,
	ProfessionalServices,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// GroupFor returns the category group for a canonical category.
func GroupFor(cat Category) CategoryGroup {
	if g, ok := categoryGroups[cat]; ok {
		return g
	}
	return GroupOperating
}

// substring fallback rules, checked in order after exact/synonym lookup
var substringRules = []struct {
	needle string
	cat    Category
}{
	{"travel", Travel},
	{"cab", Travel},
	{"taxi", Travel},
	{"flight", Travel},
	{"fuel", Fuel},
	{"petrol", Fuel},
	{"diesel", Fuel},
	{"food", Meals},
	{"meal", Meals},
	{"restaurant", Meals},
	{"marketing", Promotions},
	{"advert", Advertising},
	{"software", Software},
	{"saas", Software},
	{"tech", Software},
	{"material", RawMaterials},
	{"packag", Packaging},
	{"freight", Freight},
	{"shipping", Freight},
	{"electricity", Utilities},
	{"internet", Utilities},
	{"rent", Rent},
	{"legal", ProfessionalServices},
	{"consult", ProfessionalServices},
	{"office", OfficeSupplies},
}

// Canonicalize maps a free-form category label to a canonical category.
// Returns false when nothing matched and the label fell through to Other.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"gas":           Fuel,
		"uber":          Travel,
		"ola":           Travel,
		"airline":       Travel,
		"hotel":         Travel,
		"subscription":  Software,
		"stationery":    OfficeSupplies,
		"power":         Utilities,
		"ads":           Advertising,
		"raw materials": RawMaterials,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	for _, rule := range substringRules {
		if strings.Contains(normalized, rule.needle) {
			return rule.cat, true
		}
	}

	return Other, false
}
