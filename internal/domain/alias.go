package domain

// AliasTable maps raw country names to their canonical grouping name.
// Matching is exact and case-sensitive.
type AliasTable map[string]string

// DefaultCountryAliases folds the source file's country variants together.
var DefaultCountryAliases = AliasTable{
	"Hong Kong":      "China",
	"Macau":          "China",
	"Taiwan":         "China",
	"Mainland China": "China",
	"US":             "United States",
	"UK":             "United Kingdom",
}

// Canonical returns the aliased name, or name itself when no alias exists.
func (a AliasTable) Canonical(name string) string {
	if canonical, ok := a[name]; ok {
		return canonical
	}
	return name
}
