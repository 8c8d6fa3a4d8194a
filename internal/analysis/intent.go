package analysis

import (
	"strings"
	"unicode/utf8"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

type intentMatcher struct {
	name    string
	matcher *termMatcher
}

// IntentClassifier resolves the primary intent by the first rule, in lexicon
// priority order, that has any keyword hit. Hit counts never reorder rules.
type IntentClassifier struct {
	rules     []intentMatcher
	specific  *termMatcher
	urgency   *termMatcher
	sentiment *SentimentClassifier
}

func NewIntentClassifier(lex *Lexicon, sentiment *SentimentClassifier) *IntentClassifier {
	c := &IntentClassifier{
		specific:  newTermMatcher(lex.SpecificTerms),
		urgency:   newTermMatcher(lex.UrgencyTerms),
		sentiment: sentiment,
	}
	for _, rule := range lex.Intents {
		c.rules = append(c.rules, intentMatcher{name: rule.Name, matcher: newTermMatcher(rule.Keywords)})
	}
	return c
}

func (c *IntentClassifier) Classify(msg models.Message) (*models.ClassificationResult, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, apperrors.NewValidationError("message text is required")
	}
	businessContext := msg.BusinessContext
	if businessContext == "" {
		businessContext = models.DefaultBusinessContext
	}

	t := foldText(msg.Text)
	matched := c.detect(t)

	primary := models.IntentGeneral
	secondary := []string{}
	if len(matched) > 0 {
		primary = matched[0]
		secondary = append(secondary, matched[1:]...)
	}

	confidence := 0.5
	length := utf8.RuneCountInString(msg.Text)
	if length > 50 {
		confidence += 0.2
	}
	if length > 100 {
		confidence += 0.1
	}
	confidence += 0.05 * float64(len(c.specific.distinctTerms(t)))

	urgency := models.UrgencyLow
	if c.isUrgent(t) {
		urgency = models.UrgencyHigh
	}

	return &models.ClassificationResult{
		PrimaryIntent:    primary,
		SecondaryIntents: secondary,
		Confidence:       clampScore(confidence),
		Urgency:          urgency,
		EmotionalTone:    c.sentiment.classify(t).Polarity,
		BusinessContext:  businessContext,
	}, nil
}

// detect lists every intent with at least one hit, in priority order.
func (c *IntentClassifier) detect(t foldedText) []string {
	var intents []string
	for _, rule := range c.rules {
		if rule.matcher.contains(t) {
			intents = append(intents, rule.name)
		}
	}
	return intents
}

func (c *IntentClassifier) isUrgent(t foldedText) bool {
	return c.urgency.contains(t)
}
