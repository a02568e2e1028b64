package router

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Utterance is one chat line prepared for routing.
type Utterance struct {
	// Original is the input as typed (NFC composed). The confirmation
	// gate reads only this field.
	Original string
	// Text has collapsed whitespace and no trailing sentence punctuation.
	Text string
	// Match is Text without a trailing confirmation phrase. Classifiers
	// match against it.
	Match string
}

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	trailingPunctRe   = regexp.MustCompile(`[\s!?.]+$`)
	trailingConfirmRe = regexp.MustCompile(`(?i)\s+(?:jetzt|wirklich|ausführen|ausfuehren|mach\s+das)$`)
)

// Normalize prepares a raw chat line. It is pure: Normalize(u.Text)
// yields the same Text again.
func Normalize(raw string) Utterance {
	original := norm.NFC.String(raw)

	text := whitespaceRe.ReplaceAllString(strings.TrimSpace(original), " ")
	text = strings.TrimSpace(trailingPunctRe.ReplaceAllString(text, ""))

	match := strings.TrimSpace(trailingConfirmRe.ReplaceAllString(text, ""))

	return Utterance{
		Original: original,
		Text:     text,
		Match:    match,
	}
}
