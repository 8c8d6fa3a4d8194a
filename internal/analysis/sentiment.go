package analysis

import (
	"math"
	"strings"
	"unicode"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

type emotionMatcher struct {
	name    string
	matcher *termMatcher
}

type SentimentClassifier struct {
	positive *termMatcher
	negative *termMatcher
	emotions []emotionMatcher
}

func NewSentimentClassifier(lex *Lexicon) *SentimentClassifier {
	c := &SentimentClassifier{
		positive: newTermMatcher(lex.Sentiment.Positive),
		negative: newTermMatcher(lex.Sentiment.Negative),
	}
	for _, e := range lex.Sentiment.Emotions {
		c.emotions = append(c.emotions, emotionMatcher{name: e.Name, matcher: newTermMatcher(e.Terms)})
	}
	return c
}

// Classify votes on polarity by keyword occurrences; a tie is neutral.
func (c *SentimentClassifier) Classify(text string) (*models.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("message text is required")
	}
	return c.classify(foldText(text)), nil
}

func (c *SentimentClassifier) classify(t foldedText) *models.SentimentResult {
	pos := len(c.positive.find(t))
	neg := len(c.negative.find(t))

	polarity := models.ToneNeutral
	switch {
	case pos > neg:
		polarity = models.TonePositive
	case neg > pos:
		polarity = models.ToneNegative
	}

	intensity := 0.5
	if strings.ContainsRune(string(t.orig), '!') {
		intensity += 0.2
	}
	if isShouting(t.orig) {
		intensity += 0.3
	}

	emotions := []string{}
	for _, e := range c.emotions {
		if e.matcher.contains(t) {
			emotions = append(emotions, e.name)
		}
	}

	return &models.SentimentResult{
		Polarity:     polarity,
		Intensity:    clampScore(intensity),
		Emotions:     emotions,
		PositiveHits: pos,
		NegativeHits: neg,
	}
}

// isShouting is true when the text has letters and none of them is lowercase.
func isShouting(rs []rune) bool {
	letters := false
	for _, r := range rs {
		if !unicode.IsLetter(r) {
			continue
		}
		letters = true
		if unicode.IsLower(r) {
			return false
		}
	}
	return letters
}

// clampScore bounds a score to [0, 1] and drops float noise past two decimals.
func clampScore(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Max(0, math.Min(1, v))
}
