package arxiv

import (
	"regexp"
	"strings"
)

var (
	categoryExpr      = regexp.MustCompile(`^[a-zA-Z-]+\.[a-zA-Z0-9-]+$`)
	versionSuffixExpr = regexp.MustCompile(`v\d+$`)
)

// splitCategories parses an RSS-style category list ("cs.AI+cs.LG",
// comma or space separated also accepted). It returns nil when the
// query is not a pure category list, e.g. a raw API search_query.
func splitCategories(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" || strings.Contains(query, ":") {
		return nil
	}
	parts := strings.FieldsFunc(query, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	if len(parts) == 0 {
		return nil
	}
	for _, p := range parts {
		if !categoryExpr.MatchString(p) {
			return nil
		}
	}
	return parts
}

// apiSearchQuery normalizes a configured query into an arXiv API
// search_query: category lists become "cat:X OR cat:Y", anything else
// is treated as a raw query with URL-encoded '+' turned into spaces.
func apiSearchQuery(query string) string {
	if cats := splitCategories(query); cats != nil {
		terms := make([]string, len(cats))
		for i, c := range cats {
			terms[i] = "cat:" + c
		}
		return strings.Join(terms, " OR ")
	}
	return strings.ReplaceAll(strings.TrimSpace(query), "+", " ")
}

// baseID strips the version suffix from an arXiv identifier
// ("2401.01234v2" -> "2401.01234").
func baseID(id string) string {
	return versionSuffixExpr.ReplaceAllString(id, "")
}

// normalizeText collapses runs of whitespace, undoing the hard line
// wrapping arXiv applies to abstracts.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
