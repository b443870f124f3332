package task

import (
	"fmt"
	"strings"
)

// Category is the closed set of labels the backend files tasks under.
type Category string

const (
	CategoryGeneral  Category = "GENERAL"
	CategoryWork     Category = "WORK"
	CategoryPersonal Category = "PERSONAL"
	CategoryHealth   Category = "HEALTH"
	CategoryLearning Category = "LEARNING"
	CategoryShopping Category = "SHOPPING"
	CategoryFinance  Category = "FINANCE"
	CategorySocial   Category = "SOCIAL"
)

// AllCategories returns all valid task categories.
func AllCategories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryWork,
		CategoryPersonal,
		CategoryHealth,
		CategoryLearning,
		CategoryShopping,
		CategoryFinance,
		CategorySocial,
	}
}

func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// DisplayName returns the title-cased label, e.g. "Shopping".
func (c Category) DisplayName() string {
	if !c.IsValid() {
		return string(c)
	}
	s := strings.ToLower(string(c))
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseCategory parses user input into a Category.
func ParseCategory(s string) (Category, error) {
	category := Category(normalize(s))
	if !category.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidCategory, s)
	}
	return category, nil
}
