package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"dealership-workers/internal/models"
)

var (
	phonePattern  = regexp.MustCompile(`(?:\+?56[\s-]?)?9[\s-]?\d{4}[\s-]?\d{4}`)
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	pricePattern  = regexp.MustCompile(`(?i)\$\s?\d{1,3}(?:\.\d{3})+|\$\s?\d+|\d+(?:[.,]\d+)?\s?(?:millones|millón|millon|mil|uf|clp|pesos|lucas)`)
	numericDate   = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?`)
	personPattern = regexp.MustCompile(`(?:^|[^\p{L}])(?i:me llamo|mi nombre es|soy)\s+(\p{Lu}\p{Ll}+(?:[ \t]+\p{Lu}\p{Ll}+)?)`)
)

// Extractor pulls entities out of free text. It holds only immutable tables.
type Extractor struct {
	brands    *termMatcher
	vehicles  *termMatcher
	locations *termMatcher
	dateWords *termMatcher
	monthDate *regexp.Regexp
}

func NewExtractor(lex *Lexicon) *Extractor {
	months := make([]string, len(lex.Months))
	for i, m := range lex.Months {
		months[i] = regexp.QuoteMeta(m)
	}
	return &Extractor{
		brands:    newTermMatcher(lex.Brands),
		vehicles:  newTermMatcher(lex.Vehicles),
		locations: newTermMatcher(lex.Locations),
		dateWords: newTermMatcher(lex.DateWords),
		monthDate: regexp.MustCompile(`(?i)\d{1,2}\s+de\s+(?:` + strings.Join(months, "|") + `)(?:\s+(?:de|del)\s+\d{4})?`),
	}
}

// Extract scans every category.
func (e *Extractor) Extract(text string) models.ExtractedEntities {
	entities, _ := e.ExtractTypes(text, nil)
	return entities
}

// ExtractTypes scans only the requested categories; nil or empty means all.
// Categories that were not requested come back empty.
func (e *Extractor) ExtractTypes(text string, types []string) (models.ExtractedEntities, error) {
	want, err := categorySet(types)
	if err != nil {
		return models.ExtractedEntities{}, err
	}

	out := models.ExtractedEntities{
		Persons:   []string{},
		Vehicles:  []string{},
		Prices:    []string{},
		Dates:     []string{},
		Contact:   models.ContactInfo{Phones: []string{}, Emails: []string{}},
		Locations: []string{},
		Brands:    []string{},
	}
	if strings.TrimSpace(text) == "" {
		return out, nil
	}

	folded := foldText(text)
	if want[models.EntityPersons] {
		out.Persons = extractPersons(text)
	}
	if want[models.EntityVehicles] {
		out.Vehicles = texts(e.vehicles.find(folded))
	}
	if want[models.EntityPrices] {
		out.Prices = findStandalone(pricePattern, text, isAlnum, isAlnum)
	}
	if want[models.EntityDates] {
		out.Dates = e.extractDates(text, folded)
	}
	if want[models.EntityContact] {
		out.Contact.Phones = findStandalone(phonePattern, text, unicode.IsDigit, unicode.IsDigit)
		out.Contact.Emails = nonNil(emailPattern.FindAllString(text, -1))
	}
	if want[models.EntityLocations] {
		out.Locations = texts(e.locations.find(folded))
	}
	if want[models.EntityBrands] {
		out.Brands = texts(e.brands.find(folded))
	}
	return out, nil
}

// HasPhone reports whether text carries a Chilean mobile number.
func (e *Extractor) HasPhone(text string) bool {
	return len(findStandalone(phonePattern, text, unicode.IsDigit, unicode.IsDigit)) > 0
}

func categorySet(types []string) (map[string]bool, error) {
	set := make(map[string]bool, len(models.EntityCategories))
	if len(types) == 0 {
		for _, c := range models.EntityCategories {
			set[c] = true
		}
		return set, nil
	}
	valid := make(map[string]bool, len(models.EntityCategories))
	for _, c := range models.EntityCategories {
		valid[c] = true
	}
	for _, t := range types {
		if !valid[t] {
			return nil, fmt.Errorf("unknown entity type %q", t)
		}
		set[t] = true
	}
	return set, nil
}

type span struct {
	start, end int // byte offsets
	text       string
}

func (e *Extractor) extractDates(text string, folded foldedText) []string {
	var spans []span
	for _, loc := range numericDate.FindAllStringIndex(text, -1) {
		if standalone(text, loc[0], loc[1], unicode.IsDigit, unicode.IsDigit) {
			spans = append(spans, span{loc[0], loc[1], text[loc[0]:loc[1]]})
		}
	}
	for _, loc := range e.monthDate.FindAllStringIndex(text, -1) {
		if standalone(text, loc[0], loc[1], unicode.IsDigit, unicode.IsLetter) {
			spans = append(spans, span{loc[0], loc[1], text[loc[0]:loc[1]]})
		}
	}
	for _, m := range e.dateWords.find(folded) {
		start := len(string(folded.orig[:m.Start]))
		spans = append(spans, span{start, start + len(m.Text), m.Text})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	dates := []string{}
	lastEnd := 0
	for _, s := range spans {
		if s.start < lastEnd {
			continue
		}
		dates = append(dates, s.text)
		lastEnd = s.end
	}
	return dates
}

func extractPersons(text string) []string {
	persons := []string{}
	for _, m := range personPattern.FindAllStringSubmatchIndex(text, -1) {
		persons = append(persons, text[m[2]:m[3]])
	}
	return persons
}

// findStandalone keeps regex matches whose neighbouring runes are not
// rejected, standing in for lookarounds RE2 does not support.
func findStandalone(re *regexp.Regexp, text string, rejectBefore, rejectAfter func(rune) bool) []string {
	found := []string{}
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if standalone(text, loc[0], loc[1], rejectBefore, rejectAfter) {
			found = append(found, text[loc[0]:loc[1]])
		}
	}
	return found
}

func standalone(text string, start, end int, rejectBefore, rejectAfter func(rune) bool) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if rejectBefore(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if rejectAfter(r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
