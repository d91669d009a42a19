package constants

import (
	"strings"
)

type Category string

const (
	InterCityTransport Category = "inter-city"
	Accommodation      Category = "accommodation"
	IntraCityTransport Category = "intra-city"
	Registration       Category = "registration"
	Unknown            Category = "unknown"
)

// allCategories lists the assignable categories; Unknown is the fallback and
// is never offered to the structuring service.
var allCategories = []Category{
	InterCityTransport,
	Accommodation,
	IntraCityTransport,
	Registration,
}

// SummaryOrder is the fixed column and row ordering used by the summary
// export.
var SummaryOrder = []Category{
	InterCityTransport,
	Accommodation,
	IntraCityTransport,
	Registration,
}

// labels maps categories to their localized display names.
var labels = map[Category]string{
	InterCityTransport: "城市间交通费",
	Accommodation:      "住宿费",
	IntraCityTransport: "市内交通费",
	Registration:       "会议注册费",
	Unknown:            "未知",
}

// Label returns the localized display name for the category.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return labels[Unknown]
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a raw type value onto the fixed category set. Anything
// outside the four assignable values, including the empty string, comes back
// as Unknown with ok=false.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Unknown, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Unknown, false
}
