package spec

import "strings"

// Split breaks a batch string into trimmed, non-empty specifier segments.
//
// Segments are separated by "+". Clients that did not encode the separator
// send it as a literal "+", which query and form decoding may have turned
// into a space, while encoded separators arrive as "%2B". Split accepts all
// three: "%2B" is decoded first, the string is split on "+", and each part is
// then split on the spaces that stand for a decoded "+" (see splitSpaces).
func Split(raw string) []string {
	s := strings.ReplaceAll(raw, "%2B", "+")
	s = strings.ReplaceAll(s, "%2b", "+")

	var out []string
	for _, seg := range strings.Split(s, "+") {
		out = append(out, splitSpaces(seg)...)
	}
	return out
}

// splitSpaces splits seg on spaces that separate specifiers. A space starts
// a new specifier only when the next token begins like a package name, so
// ranges such as ">=1 <2" or "1 - 2" stay whole. When any resulting piece
// fails to parse, seg is returned unsplit and reports a single error.
func splitSpaces(seg string) []string {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return nil
	}

	var pieces []string
	for _, tok := range strings.Fields(seg) {
		if len(pieces) > 0 && !startsSpecifier(tok) {
			pieces[len(pieces)-1] += " " + tok
			continue
		}
		pieces = append(pieces, tok)
	}
	if len(pieces) == 1 {
		return []string{seg}
	}
	for _, p := range pieces {
		if _, err := Parse(p); err != nil {
			return []string{seg}
		}
	}
	return pieces
}

// startsSpecifier reports whether tok begins like a package name rather
// than a range continuation (operator, digit, x-range or "v1").
func startsSpecifier(tok string) bool {
	if tok == "x" || tok == "X" {
		return false
	}
	c := tok[0]
	switch {
	case c == '@':
		return true
	case c == 'v' && len(tok) > 1 && tok[1] >= '0' && tok[1] <= '9':
		return false
	}
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
