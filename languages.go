package polyglot

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// TargetLanguages is the fixed set of translation targets, in display order.
var TargetLanguages = []string{"ru", "en", "de", "no", "he", "uk"}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"yi": true, // Yiddish
}

// IsTargetLanguage reports whether code is one of TargetLanguages.
func IsTargetLanguage(code string) bool {
	code = NormalizeLanguage(code)
	for _, t := range TargetLanguages {
		if t == code {
			return true
		}
	}
	return false
}

// NormalizeLanguage lower-cases a code and reduces a locale ("nb_NO", "en-US")
// to its base language. Norwegian Bokmål is folded into "no".
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "_", "-")
	if i := strings.IndexByte(code, '-'); i >= 0 {
		code = code[:i]
	}
	if code == "nb" {
		return "no"
	}
	return code
}

// ResolveTargets validates a requested target set against TargetLanguages.
// The source language is dropped, duplicates are removed and the result is
// returned in TargetLanguages order. An empty result is ErrNoTargets.
func ResolveTargets(source string, requested []string) ([]string, error) {
	source = NormalizeLanguage(source)
	want := make(map[string]bool, len(requested))
	for _, r := range requested {
		code := NormalizeLanguage(r)
		if code == "" {
			continue
		}
		if !IsTargetLanguage(code) {
			return nil, fmt.Errorf("unsupported target language %q (supported: %s)", r, strings.Join(TargetLanguages, ", "))
		}
		want[code] = true
	}

	var targets []string
	for _, t := range TargetLanguages {
		if want[t] && t != source {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}

// LanguageLabel returns the label shown next to a translation ("RU").
func LanguageLabel(code string) string {
	return strings.ToUpper(code)
}

// GetLanguageName returns the English name for a language code.
// Falls back to the code itself if it cannot be parsed.
func GetLanguageName(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	if RTLLanguages[NormalizeLanguage(code)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}
