package normalize

import "unicode"

// DetectLanguage guesses the dominant language of name text with
// Cyrillic-priority rules: Ukrainian-specific letters win over generic
// Cyrillic, generic Cyrillic is reported as Russian, anything else as
// English. Good enough for routing and diagnostics, not a classifier.
func DetectLanguage(text string) string {
	var cyrillic, latin, ukrainian, russian int
	for _, r := range text {
		switch {
		case isUkrainianOnly(r):
			ukrainian++
			cyrillic++
		case isRussianOnly(r):
			russian++
			cyrillic++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	switch {
	case ukrainian > 0:
		return "uk"
	case russian > 0:
		return "ru"
	case cyrillic > 0:
		// Ambiguous Cyrillic defaults to Ukrainian, matching the
		// watchlist's dominant source script.
		return "uk"
	case latin > 0:
		return "en"
	default:
		return "unknown"
	}
}

func isUkrainianOnly(r rune) bool {
	switch unicode.ToLower(r) {
	case 'і', 'ї', 'є', 'ґ':
		return true
	}
	return false
}

func isRussianOnly(r rune) bool {
	switch unicode.ToLower(r) {
	case 'ё', 'ъ', 'ы', 'э':
		return true
	}
	return false
}
