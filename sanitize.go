package polyglot

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// MaxTextLength is the length above which Sanitize warns. Length is counted
// in UTF-16 code units, the unit the service measures in.
const MaxTextLength = 5000

// Warning texts produced by Sanitize.
const (
	WarnTooLong        = "Text is very long (over 5000 characters). This may cause slower processing."
	WarnLineBreaks     = "Text contains excessive line breaks which have been normalized."
	WarnInvalidUnicode = "Text contains invalid Unicode characters which have been removed."
	WarnOnlyWhitespace = "Text contains only whitespace or invalid characters."
)

var (
	excessiveNewlines = regexp.MustCompile(`\n{20,}`)
	newlineRun        = regexp.MustCompile(`\n{3,}`)
)

// Sanitize cleans user text before submission and reports what it changed.
//
// Control characters other than tab, newline and carriage return are removed.
// U+FFFD, U+FEFF and invalid UTF-8 are removed with a warning. When the text
// holds a run of 20 or more newlines, every run of three or more is collapsed
// to two. Text over MaxTextLength only warns. The result is invalid only when
// nothing but whitespace is left.
//
// Newline runs and U+FFFD/U+FEFF are looked for after control characters
// are stripped, not in the raw input: ten newlines, a NUL and ten more
// newlines count as one run of twenty. Checking the raw input would let a
// second pass find runs the first one missed.
//
// Sanitize is pure: Sanitize(Sanitize(x).SanitizedText).SanitizedText equals
// Sanitize(x).SanitizedText.
func Sanitize(text string) ValidationResult {
	result := ValidationResult{IsValid: true}

	valid := strings.ToValidUTF8(text, "\uFFFD")
	stripped := stripControl(valid)

	if utf16Len(text) > MaxTextLength {
		result.Warnings = append(result.Warnings, WarnTooLong)
	}

	hasInvalid := strings.ContainsAny(stripped, "\uFFFD\uFEFF")
	if hasInvalid {
		stripped = strings.NewReplacer("\uFFFD", "", "\uFEFF", "").Replace(stripped)
	}

	// Runs are detected after stripping so a second pass sees the same runs.
	if excessiveNewlines.MatchString(stripped) {
		result.Warnings = append(result.Warnings, WarnLineBreaks)
		stripped = newlineRun.ReplaceAllString(stripped, "\n\n")
	}

	if hasInvalid {
		result.Warnings = append(result.Warnings, WarnInvalidUnicode)
	}

	result.SanitizedText = stripped

	if strings.TrimSpace(stripped) == "" {
		result.IsValid = false
		result.Warnings = append(result.Warnings, WarnOnlyWhitespace)
	}

	return result
}

// stripControl drops U+0000-U+0008, U+000B, U+000C, U+000E-U+001F and U+007F.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if isStrippedControl(r) {
			return -1
		}
		return r
	}, s)
}

func isStrippedControl(r rune) bool {
	switch {
	case r <= 0x08:
		return true
	case r == 0x0B || r == 0x0C:
		return true
	case r >= 0x0E && r <= 0x1F:
		return true
	case r == 0x7F:
		return true
	}
	return false
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
