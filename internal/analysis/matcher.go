package analysis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks drops combining accents but keeps the tilde, so ñ stays a letter
// of its own. The remover is stateless and safe to share.
var stripMarks = runes.Remove(runes.Predicate(func(r rune) bool {
	return r != '\u0303' && unicode.Is(unicode.Mn, r)
}))

// foldedText keeps the source runes next to their lowercased, accent-free
// counterparts. Folding is rune-for-rune, so offsets map straight back.
type foldedText struct {
	orig   []rune
	folded []rune
}

func foldText(s string) foldedText {
	orig := []rune(s)
	folded := make([]rune, len(orig))
	for i, r := range orig {
		folded[i] = foldRune(r)
	}
	return foldedText{orig: orig, folded: folded}
}

// foldRune lowercases r and strips its accents. A rune whose folded form is
// not a single rune is returned lowercased only.
func foldRune(r rune) rune {
	r = unicode.ToLower(r)
	if r < utf8.RuneSelf {
		return r
	}
	folded, _, err := transform.String(stripMarks, norm.NFD.String(string(r)))
	if err != nil {
		return r
	}
	folded = norm.NFC.String(folded)
	if f, size := utf8.DecodeRuneInString(folded); size > 0 && size == len(folded) && f != utf8.RuneError {
		return f
	}
	return r
}

func foldString(s string) string {
	return string(foldText(s).folded)
}

type termMatch struct {
	Start int // rune offset, inclusive
	End   int // rune offset, exclusive
	Term  string
	Text  string
}

// termMatcher finds whole-word occurrences of a fixed term list.
type termMatcher struct {
	terms  []string
	folded [][]rune
}

func newTermMatcher(terms []string) *termMatcher {
	m := &termMatcher{}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		m.terms = append(m.terms, term)
		m.folded = append(m.folded, []rune(foldString(term)))
	}
	return m
}

// find returns non-overlapping matches in source order using leftmost-longest
// selection.
func (m *termMatcher) find(t foldedText) []termMatch {
	var candidates []termMatch
	for i, term := range m.folded {
		n := len(term)
		for pos := 0; pos+n <= len(t.folded); pos++ {
			if !hasRunePrefix(t.folded[pos:], term) {
				continue
			}
			end := pos + n
			if !isWordBoundary(t.folded, pos-1) || !isWordBoundary(t.folded, end) {
				continue
			}
			candidates = append(candidates, termMatch{
				Start: pos,
				End:   end,
				Term:  m.terms[i],
				Text:  string(t.orig[pos:end]),
			})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Start != candidates[b].Start {
			return candidates[a].Start < candidates[b].Start
		}
		return candidates[a].End > candidates[b].End
	})

	matches := make([]termMatch, 0, len(candidates))
	lastEnd := 0
	for _, c := range candidates {
		if c.Start < lastEnd {
			continue
		}
		matches = append(matches, c)
		lastEnd = c.End
	}
	return matches
}

func (m *termMatcher) contains(t foldedText) bool {
	return len(m.find(t)) > 0
}

// distinctTerms lists each matched lexicon term once, in first-seen order.
func (m *termMatcher) distinctTerms(t foldedText) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, match := range m.find(t) {
		if !seen[match.Term] {
			seen[match.Term] = true
			terms = append(terms, match.Term)
		}
	}
	return terms
}

func texts(matches []termMatch) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Text
	}
	return out
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}

func isWordBoundary(rs []rune, i int) bool {
	if i < 0 || i >= len(rs) {
		return true
	}
	r := rs[i]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
