package puzzle

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText deixa a comparação de respostas determinística: NFKD, remove
// pontuação e símbolos, colapsa espaços, apara e põe em minúsculas.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// AnswersEqual compara duas respostas depois de normalizar.
func AnswersEqual(a, b string) bool {
	return NormalizeText(a) == NormalizeText(b)
}
