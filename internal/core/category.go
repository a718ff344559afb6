package core

import "fmt"

// Category is the closed set of budget categories. The set is fixed at deploy
// time; every Allocation and every report must carry all of them.
type Category string

const (
	CategoryFuel        Category = "דלק"
	CategoryRestaurants Category = "מסעדות"
	CategoryVacations   Category = "חופשות"
	CategoryOutings     Category = "בילויים"
	CategoryClothing    Category = "בגדים"
	CategoryFriends     Category = "חברים"
	CategoryMaayan      Category = "מעיין"
	CategoryGrooming    Category = "טיפוח והנעלה"
	CategoryGroceries   Category = "סופר"
)

// categories lists every valid Category in display order.
var categories = []Category{
	CategoryFuel,
	CategoryRestaurants,
	CategoryVacations,
	CategoryOutings,
	CategoryClothing,
	CategoryFriends,
	CategoryMaayan,
	CategoryGrooming,
	CategoryGroceries,
}

// Categories returns all valid categories in display order.
// The returned slice is a copy and safe to mutate.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory validates a raw string against the closed category set.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// IsValid reports whether the category belongs to the closed set.
func (c Category) IsValid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) String() string {
	return string(c)
}
