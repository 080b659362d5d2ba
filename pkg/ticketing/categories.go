package ticketing

// Category is the type of a ticket. The category set is a fixed business
// rule, not user-configurable.
type Category string

const (
	CategorySupport     Category = "support"
	CategoryPurchase    Category = "purchase"
	CategoryReport      Category = "report"
	CategoryStaffReport Category = "staff_report"
	CategoryOther       Category = "other"
)

// CategoryInfo is the presentation metadata for a category.
type CategoryInfo struct {
	// Label is the human-readable category name, used in surface naming.
	Label string

	// Emoji decorates panel buttons and welcome messages.
	Emoji string

	// Description is shown on the ticket panel.
	Description string

	// Color is the embed accent colour.
	Color int
}

// Categories is the closed category set with its metadata.
var Categories = map[Category]CategoryInfo{
	CategorySupport: {
		Label:       "Support",
		Emoji:       "\U0001F527",
		Description: "Get help with general questions or issues.",
		Color:       0x5865F2,
	},
	CategoryPurchase: {
		Label:       "Purchase",
		Emoji:       "\U0001F4B8",
		Description: "Questions about purchasing our products or services.",
		Color:       0x57F287,
	},
	CategoryReport: {
		Label:       "Report User",
		Emoji:       "\U0001F6E1",
		Description: "Report a user for breaking rules.",
		Color:       0xFEE75C,
	},
	CategoryStaffReport: {
		Label:       "Staff Report",
		Emoji:       "⚠",
		Description: "Report a staff member (handled privately).",
		Color:       0xED4245,
	},
	CategoryOther: {
		Label:       "Other",
		Emoji:       "❓",
		Description: "Other inquiries that don't fit the categories above.",
		Color:       0xEB459E,
	},
}

// CategoryOrder is the display order for panel buttons.
var CategoryOrder = []Category{
	CategorySupport,
	CategoryPurchase,
	CategoryReport,
	CategoryStaffReport,
	CategoryOther,
}

// Valid reports whether the category is a member of the fixed set.
func (c Category) Valid() bool {
	_, ok := Categories[c]
	return ok
}

// Info returns the category metadata.
func (c Category) Info() CategoryInfo {
	return Categories[c]
}
