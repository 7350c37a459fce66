// Package normalize canonicalizes raw name text into a stable token
// sequence usable for both exact and fuzzy comparison.
package normalize

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/namescreen/namescreen/internal/domain"
)

// Normalizer canonicalizes input text: case folding, unicode normalization,
// punctuation/whitespace token splitting, Latin diacritics stripping, and
// optional Cyrillic-to-Latin transliteration.
//
// Normalization is deterministic and idempotent:
// Normalize(Join(Normalize(x))) == Normalize(x).
type Normalizer struct {
	translit bool
	fold     cases.Caser
	strip    transform.Transformer
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithTransliteration maps Cyrillic tokens to Latin, for indexes whose
// canonical script is Latin.
func WithTransliteration() Option {
	return func(n *Normalizer) { n.translit = true }
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		fold: cases.Fold(),
		// NFD, drop combining marks, recompose. Applied per Latin token only:
		// stripping marks from decomposed Cyrillic would mangle letters like й and ї.
		strip: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize canonicalizes text into an ordered token sequence. It is total
// over valid UTF-8: the empty string yields an empty sequence, not an error.
// Invalid UTF-8 fails with domain.ErrEncoding; characters are never silently
// dropped by decoding.
func (n *Normalizer) Normalize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", domain.ErrEncoding)
	}
	if text == "" {
		return []string{}, nil
	}

	folded := norm.NFC.String(n.fold.String(text))

	raw := splitTokens(folded)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = n.normalizeToken(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}

// Join re-serializes a token sequence to its canonical string form.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// normalizeToken strips Latin diacritics or transliterates Cyrillic.
func (n *Normalizer) normalizeToken(tok string) string {
	if hasCyrillic(tok) {
		if n.translit {
			return transliterate(tok)
		}
		return tok
	}
	stripped, _, err := transform.String(n.strip, tok)
	if err != nil {
		// Transform failures on valid UTF-8 do not occur with this chain;
		// keep the folded token rather than dropping characters.
		return tok
	}
	return stripped
}

// splitTokens splits on any rune that is not a letter or digit. Apostrophes
// join name parts (o'brien -> obrien) instead of splitting them.
func splitTokens(s string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’' || r == '`':
			// joiner, skip
		default:
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func hasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
