package core

type (
	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Group string `json:"group"`
		Icon  string `json:"icon"`
	}

	// CategoryCatalog is the static income/expense category reference data.
	CategoryCatalog struct {
		Income  []Category `json:"income"`
		Expense []Category `json:"expense"`
	}
)

// DefaultCategories returns the catalog seeded into a new document.
func DefaultCategories() CategoryCatalog {
	return CategoryCatalog{
		Income: []Category{
			{ID: "income-salary", Name: "Salary", Color: "#4caf50", Group: "earned", Icon: "briefcase"},
			{ID: "income-freelance", Name: "Freelance", Color: "#8bc34a", Group: "earned", Icon: "laptop"},
			{ID: "income-investments", Name: "Investments", Color: "#009688", Group: "passive", Icon: "chart-line"},
			{ID: "income-gifts", Name: "Gifts", Color: "#cddc39", Group: "other", Icon: "gift"},
			{ID: "income-other", Name: "Other Income", Color: "#9e9e9e", Group: "other", Icon: "plus"},
		},
		Expense: []Category{
			{ID: "expense-housing", Name: "Housing", Color: "#f44336", Group: "essentials", Icon: "home"},
			{ID: "expense-utilities", Name: "Utilities", Color: "#e91e63", Group: "essentials", Icon: "bolt"},
			{ID: "expense-food", Name: "Groceries", Color: "#ff9800", Group: "food", Icon: "shopping-basket"},
			{ID: "expense-dining", Name: "Dining Out", Color: "#ff5722", Group: "food", Icon: "utensils"},
			{ID: "expense-transport", Name: "Transportation", Color: "#3f51b5", Group: "essentials", Icon: "car"},
			{ID: "expense-health", Name: "Health", Color: "#00bcd4", Group: "wellbeing", Icon: "heartbeat"},
			{ID: "expense-fitness", Name: "Fitness", Color: "#03a9f4", Group: "wellbeing", Icon: "dumbbell"},
			{ID: "expense-entertainment", Name: "Entertainment", Color: "#9c27b0", Group: "lifestyle", Icon: "film"},
			{ID: "expense-shopping", Name: "Shopping", Color: "#673ab7", Group: "lifestyle", Icon: "shopping-bag"},
			{ID: "expense-subscriptions", Name: "Subscriptions", Color: "#795548", Group: "lifestyle", Icon: "sync"},
			{ID: "expense-education", Name: "Education", Color: "#607d8b", Group: "growth", Icon: "book"},
			{ID: "expense-other", Name: "Other", Color: "#9e9e9e", Group: "other", Icon: "ellipsis-h"},
		},
	}
}

// Lookup finds a category by id in either list.
func (c CategoryCatalog) Lookup(id string) (Category, bool) {
	for _, cat := range c.Expense {
		if cat.ID == id {
			return cat, true
		}
	}
	for _, cat := range c.Income {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Name returns the display name of a category, or the id when unknown.
func (c CategoryCatalog) Name(id string) string {
	if cat, ok := c.Lookup(id); ok {
		return cat.Name
	}
	return id
}

func (c CategoryCatalog) InGroup(id, group string) bool {
	cat, ok := c.Lookup(id)
	return ok && cat.Group == group
}
