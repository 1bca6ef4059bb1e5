package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Aggregations are the KPI id suffixes served by the historical endpoint.
var Aggregations = []string{"avg", "sum", "min", "max"}

// AggregationOf returns the aggregation suffix of id's final "_" segment,
// or "" when the id does not end in a recognized suffix.
func AggregationOf(id string) string {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return ""
	}
	last := strings.ToLower(id[i+1:])
	for _, a := range Aggregations {
		if last == a {
			return a
		}
	}
	return ""
}

// DisplayName turns a snake_case KPI id into a title, rendering an
// aggregation suffix as a parenthesized abbreviation:
// "energy_cost_avg" becomes "Energy Cost (Avg)".
func DisplayName(id string) string {
	caser := cases.Title(language.English)

	base, suffix := id, ""
	if agg := AggregationOf(id); agg != "" {
		base = id[:len(id)-len(agg)-1]
		suffix = " (" + caser.String(agg) + ")"
	}

	words := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	return caser.String(strings.Join(words, " ")) + suffix
}

// SplitCamel inserts spaces at camelCase word boundaries, keeping acronyms
// together: "EnergyKPI" becomes "Energy KPI", "KPIEnergy" becomes "KPI Energy".
func SplitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
