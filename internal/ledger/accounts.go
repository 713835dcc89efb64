package ledger

import (
	"github.com/ledgerline/billpipe/constants"
)

// Fixed accounts every posting touches.
const (
	InputTaxAccountCode = "1400"
	InputTaxAccountName = "Input Tax Credit"

	PayableAccountCode = "2100"
	PayableAccountName = "Accounts Payable"
)

// expenseAccounts maps a bill category to its expense ledger account.
// First digit 5 marks expense accounts; the second digit encodes the group.
var expenseAccounts = map[constants.Category]struct {
	Code string
	Name string
}{
	constants.RawMaterials:         {"5010", "Raw Materials"},
	constants.Packaging:            {"5020", "Packaging"},
	constants.Freight:              {"5030", "Freight Inward"},
	constants.Fuel:                 {"5210", "Fuel Expense"},
	constants.Travel:               {"5220", "Travel Expense"},
	constants.Meals:                {"5230", "Meals & Entertainment"},
	constants.Utilities:            {"5240", "Utilities"},
	constants.Rent:                 {"5250", "Rent"},
	constants.Advertising:          {"5410", "Advertising"},
	constants.Promotions:           {"5420", "Promotions"},
	constants.Software:             {"5610", "Software & Subscriptions"},
	constants.OfficeSupplies:       {"5620", "Office Supplies"},
	constants.ProfessionalServices: {"5630", "Professional Services"},
	constants.Other:                {"5290", "General Expense"},
}

// ExpenseAccountFor resolves the expense account code and name for a category.
func ExpenseAccountFor(cat constants.Category) (code, name string) {
	if a, ok := expenseAccounts[cat]; ok {
		return a.Code, a.Name
	}
	a := expenseAccounts[constants.Other]
	return a.Code, a.Name
}
