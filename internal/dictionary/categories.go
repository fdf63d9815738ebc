package dictionary

// CategoryDef describes one curated expense category offered to the
// tracker UI. Purchases may use any valid slug; this list is only the
// suggested set.
type CategoryDef struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var curated = []CategoryDef{
	{Code: "uncategorized", Label: "Uncategorized"},
	{Code: "general", Label: "General"},
	{Code: "groceries", Label: "Groceries"},
	{Code: "eating_out", Label: "Eating Out"},
	{Code: "transport", Label: "Transport"},
	{Code: "shopping", Label: "Shopping"},
	{Code: "entertainment", Label: "Entertainment"},
	{Code: "bills", Label: "Bills"},
	{Code: "travel", Label: "Travel"},
	{Code: "health", Label: "Health"},
	{Code: "education", Label: "Education"},
	{Code: "subscriptions", Label: "Subscriptions"},
}

// Categories returns the curated category list.
func Categories() []CategoryDef {
	out := make([]CategoryDef, len(curated))
	copy(out, curated)
	return out
}

// IsCurated reports whether code is in the curated set.
func IsCurated(code string) bool {
	for _, c := range curated {
		if c.Code == code {
			return true
		}
	}
	return false
}
