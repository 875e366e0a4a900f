package gateway

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the English name of a language code, e.g. "fr" -> "French".
// Empty, "unknown" and unparseable codes map to "Unknown".
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, UnknownLanguage) {
		return "Unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "Unknown"
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return "Unknown"
	}
	return name
}

// BaseCode reduces a language tag to its lowercase base language, e.g.
// "en-US" and "EN" both become "en". Empty, undetermined and unparseable
// tags become UnknownLanguage.
func BaseCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, UnknownLanguage) {
		return UnknownLanguage
	}
	// Parse drops unknown subtags and still returns the rest of the tag.
	tag, _ := language.Parse(code)
	if tag == language.Und {
		return UnknownLanguage
	}
	// Tags like "und-US" only let Base guess a language.
	base, conf := tag.Base()
	if conf != language.Exact {
		return UnknownLanguage
	}
	return base.String()
}

// SameLanguage reports whether two codes name the same base language.
// Unknown codes never match anything.
func SameLanguage(a, b string) bool {
	ba := BaseCode(a)
	return ba != UnknownLanguage && ba == BaseCode(b)
}

// NormalizeCode lowercases and trims a language code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
