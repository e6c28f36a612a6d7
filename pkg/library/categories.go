package library

// Category is one of the fixed book categories.
type Category struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Categories lists every category the catalog accepts, in display order.
var Categories = []Category{
	{Label: "Romance", Value: "romance"},
	{Label: "Horror", Value: "horror"},
	{Label: "Programming", Value: "programming"},
	{Label: "Mystery", Value: "mystery"},
	{Label: "Novel", Value: "novel"},
	{Label: "Fantasy", Value: "fantasy"},
	{Label: "Science Fiction", Value: "science-fiction"},
	{Label: "Other", Value: "other"},
}

// IsValidCategory reports whether value is a known category.
func IsValidCategory(value string) bool {
	for _, category := range Categories {
		if category.Value == value {
			return true
		}
	}

	return false
}

// CategoryLabel returns the display label for value, or value itself when unknown.
func CategoryLabel(value string) string {
	for _, category := range Categories {
		if category.Value == value {
			return category.Label
		}
	}

	return value
}

// CategoryValues returns the accepted category values.
func CategoryValues() []string {
	values := make([]string, 0, len(Categories))
	for _, category := range Categories {
		values = append(values, category.Value)
	}

	return values
}
