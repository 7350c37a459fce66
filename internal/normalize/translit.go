package normalize

import "strings"

// cyrillicToLatin follows the Ukrainian national romanization table, with
// additions for Russian-only letters. Input is already case-folded.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g",
	'д': "d", 'е': "e", 'є': "ie", 'ж': "zh", 'з': "z",
	'и': "y", 'і': "i", 'ї': "i", 'й': "i", 'к': "k",
	'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p",
	'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f",
	'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ь': "", 'ю': "iu", 'я': "ia",
	// Russian-only
	'ё': "e", 'ъ': "", 'ы': "y", 'э': "e",
}

// transliterate maps a Cyrillic token to Latin. Runes without a table entry
// (already Latin, digits) pass through unchanged.
func transliterate(tok string) string {
	var b strings.Builder
	b.Grow(len(tok))
	for _, r := range tok {
		if lat, ok := cyrillicToLatin[r]; ok {
			b.WriteString(lat)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
