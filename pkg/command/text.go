package command

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepara um texto de entrada para casamento determinístico:
// forma NFC, case folding, dígitos devanágari convertidos para ASCII e
// espaços colapsados.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	// Caser guarda estado; um por chamada
	s = cases.Fold().String(s)
	s = ASCIIDigits(s)
	return strings.Join(strings.Fields(s), " ")
}

// Canonical aplica NFC, converte dígitos e colapsa espaços mas preserva a
// caixa do texto; o casador usa padrões (?i) e precisa dos nomes originais.
func Canonical(s string) string {
	s = norm.NFC.String(s)
	s = ASCIIDigits(s)
	return strings.Join(strings.Fields(s), " ")
}

// ASCIIDigits troca os dígitos devanágari (०-९) pelos equivalentes ASCII
func ASCIIDigits(s string) string {
	if !strings.ContainsFunc(s, isDevanagariDigit) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isDevanagariDigit(r) {
			return '0' + (r - '०')
		}
		return r
	}, s)
}

func isDevanagariDigit(r rune) bool {
	return r >= '०' && r <= '९'
}
