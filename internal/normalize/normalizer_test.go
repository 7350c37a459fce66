package normalize

import (
	"errors"
	"testing"

	"github.com/namescreen/namescreen/internal/domain"
)

func mustNormalize(t *testing.T, n *Normalizer, text string) []string {
	t.Helper()
	tokens, err := n.Normalize(text)
	if err != nil {
		t.Fatalf("Normalize(%q): %v", text, err)
	}
	return tokens
}

func assertTokens(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalize_CaseAndWhitespace(t *testing.T) {
	n := New()
	assertTokens(t, mustNormalize(t, n, "  Ivan   PETROV  "), []string{"ivan", "petrov"})
}

func TestNormalize_Punctuation(t *testing.T) {
	n := New()
	assertTokens(t, mustNormalize(t, n, "Petrov, Ivan (a.k.a. \"Vanya\")"),
		[]string{"petrov", "ivan", "a", "k", "a", "vanya"})
}

func TestNormalize_ApostropheJoins(t *testing.T) {
	n := New()
	assertTokens(t, mustNormalize(t, n, "O'Brien"), []string{"obrien"})
	assertTokens(t, mustNormalize(t, n, "Д’Артаньян"), []string{"дартаньян"})
}

func TestNormalize_LatinDiacriticsStripped(t *testing.T) {
	n := New()
	assertTokens(t, mustNormalize(t, n, "José Müller Nguyễn"), []string{"jose", "muller", "nguyen"})
}

func TestNormalize_CyrillicPreserved(t *testing.T) {
	n := New()
	// й and ї decompose to a base letter plus a combining mark; stripping
	// must not touch them.
	assertTokens(t, mustNormalize(t, n, "Андрій Їжакевич"), []string{"андрій", "їжакевич"})
}

func TestNormalize_Transliteration(t *testing.T) {
	n := New(WithTransliteration())
	assertTokens(t, mustNormalize(t, n, "Петро Порошенко"), []string{"petro", "poroshenko"})
	assertTokens(t, mustNormalize(t, n, "Щербань"), []string{"shcherban"})
}

func TestNormalize_Empty(t *testing.T) {
	n := New()
	tokens, err := n.Normalize("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func TestNormalize_OnlyPunctuation(t *testing.T) {
	n := New()
	assertTokens(t, mustNormalize(t, n, "!!! --- ..."), []string{})
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	n := New()
	_, err := n.Normalize("iv\xffan")
	if !errors.Is(err, domain.ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New()
	inputs := []string{
		"  Ivan   PETROV  ",
		"José Müller",
		"Петро Порошенко",
		"O'Brien, Seán",
	}
	for _, in := range inputs {
		first := mustNormalize(t, n, in)
		second := mustNormalize(t, n, Join(first))
		assertTokens(t, second, first)
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"ivan", "petrov"}); got != "ivan petrov" {
		t.Errorf("Join = %q", got)
	}
	if got := Join(nil); got != "" {
		t.Errorf("Join(nil) = %q", got)
	}
}
