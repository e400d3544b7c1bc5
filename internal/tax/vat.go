package tax

import (
	"regexp"
	"strings"
)

// vatPatterns holds the national VAT-number formats, keyed by country code.
// Patterns cover the part after the two-letter country prefix. Formats follow
// the published EU VAT identifier structures; this is a syntax check only,
// not a VIES registry lookup.
var vatPatterns = map[string]*regexp.Regexp{
	"AT": regexp.MustCompile(`^U\d{8}$`),
	"BE": regexp.MustCompile(`^[01]\d{9}$`),
	"BG": regexp.MustCompile(`^\d{9,10}$`),
	"HR": regexp.MustCompile(`^\d{11}$`),
	"CY": regexp.MustCompile(`^\d{8}[A-Z]$`),
	"CZ": regexp.MustCompile(`^\d{8,10}$`),
	"DK": regexp.MustCompile(`^\d{8}$`),
	"EE": regexp.MustCompile(`^\d{9}$`),
	"FI": regexp.MustCompile(`^\d{8}$`),
	"FR": regexp.MustCompile(`^[A-Z0-9]{2}\d{9}$`),
	"DE": regexp.MustCompile(`^\d{9}$`),
	"GR": regexp.MustCompile(`^\d{9}$`),
	"EL": regexp.MustCompile(`^\d{9}$`), // Greece uses the EL prefix on VAT ids
	"HU": regexp.MustCompile(`^\d{8}$`),
	"IE": regexp.MustCompile(`^\d{7}[A-W][A-I]?$|^\d[A-Z+*]\d{5}[A-W]$`),
	"IT": regexp.MustCompile(`^\d{11}$`),
	"LV": regexp.MustCompile(`^\d{11}$`),
	"LT": regexp.MustCompile(`^(\d{9}|\d{12})$`),
	"LU": regexp.MustCompile(`^\d{8}$`),
	"MT": regexp.MustCompile(`^\d{8}$`),
	"NL": regexp.MustCompile(`^\d{9}B\d{2}$`),
	"PL": regexp.MustCompile(`^\d{10}$`),
	"PT": regexp.MustCompile(`^\d{9}$`),
	"RO": regexp.MustCompile(`^\d{2,10}$`),
	"SK": regexp.MustCompile(`^\d{10}$`),
	"SI": regexp.MustCompile(`^\d{8}$`),
	"ES": regexp.MustCompile(`^[A-Z0-9]\d{7}[A-Z0-9]$`),
	"SE": regexp.MustCompile(`^\d{10}01$`),
}

// ValidVATID reports whether the VAT id matches the national format for the
// given billing country. The id may be supplied with or without the country
// prefix; separators and case are normalized before matching. Greek ids use
// the EL prefix while the billing country code is GR.
func ValidVATID(countryCode, vatID string) bool {
	country := strings.ToUpper(strings.TrimSpace(countryCode))
	id := normalizeVATID(vatID)
	if country == "" || id == "" {
		return false
	}

	prefix := country
	if country == "GR" {
		prefix = "EL"
	}
	id = strings.TrimPrefix(id, prefix)

	re, ok := vatPatterns[prefix]
	if !ok {
		return false
	}
	return re.MatchString(id)
}

func normalizeVATID(vatID string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(vatID) {
		switch r {
		case ' ', '-', '.', ',':
			// strip separators
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
