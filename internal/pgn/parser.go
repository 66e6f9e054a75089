// Package pgn reads the small subset of PGN used to author opening lines:
// tag pairs and a single unannotated main variation.
package pgn

import (
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`\[(\w+)\s+"([^"]+)"\]`)

// ParseHeaders extracts PGN tag pairs into a map
func ParseHeaders(pgn string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(pgn, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if len(m) == 3 {
			out[m[1]] = m[2]
		}
	}
	return out
}

var (
	commentRe    = regexp.MustCompile(`\{[^}]*\}|;[^\n]*`)
	moveNumberRe = regexp.MustCompile(`^\d+\.+`)
)

// Movetext returns the SAN tokens of the main variation, dropping tags,
// comments, move numbers, NAGs, annotation glyphs and the result marker.
// Variations in parentheses are skipped.
func Movetext(pgn string) []string {
	var body strings.Builder
	for _, line := range strings.Split(pgn, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	text := commentRe.ReplaceAllString(body.String(), " ")

	var (
		sans  []string
		depth int
	)
	for _, tok := range strings.Fields(strings.NewReplacer("(", " ( ", ")", " ) ").Replace(text)) {
		switch tok {
		case "(":
			depth++
			continue
		case ")":
			if depth > 0 {
				depth--
			}
			continue
		case "1-0", "0-1", "1/2-1/2", "*":
			continue
		}
		if depth > 0 || strings.HasPrefix(tok, "$") {
			continue
		}
		tok = moveNumberRe.ReplaceAllString(tok, "")
		tok = strings.TrimRight(tok, "!?")
		if tok != "" {
			sans = append(sans, tok)
		}
	}
	return sans
}
