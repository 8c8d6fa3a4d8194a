package analysis

import (
	"math"
	"strings"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

const (
	highQualityScore   = 4
	mediumQualityScore = 2
)

var qualityBase = map[string]float64{
	models.QualityHigh:   30,
	models.QualityMedium: 20,
	models.QualityLow:    0,
}

// LeadClassifier scores how likely an inbound message is to turn into a sale.
type LeadClassifier struct {
	signals    *termMatcher
	weights    map[string]int
	phoneBonus int
	buy        *termMatcher
	intents    *IntentClassifier
	extractor  *Extractor
	recs       Recommendations
}

func NewLeadClassifier(lex *Lexicon, intents *IntentClassifier, extractor *Extractor) *LeadClassifier {
	terms := make([]string, 0, len(lex.LeadSignals))
	weights := make(map[string]int, len(lex.LeadSignals))
	for _, s := range lex.LeadSignals {
		terms = append(terms, s.Term)
		weights[strings.TrimSpace(s.Term)] = s.Weight
	}
	return &LeadClassifier{
		signals:    newTermMatcher(terms),
		weights:    weights,
		phoneBonus: lex.PhoneBonus,
		buy:        newTermMatcher(lex.BuyTerms),
		intents:    intents,
		extractor:  extractor,
		recs:       lex.Recommendations,
	}
}

// Classify scores text. lead may be nil; when present its phone counts
// toward the phone bonus.
func (c *LeadClassifier) Classify(text string, lead *models.Lead) (*models.LeadClassification, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("message text is required")
	}
	t := foldText(text)

	score := 0
	for _, term := range c.signals.distinctTerms(t) {
		score += c.weights[term]
	}
	hasPhone := (lead != nil && lead.Phone != "") || c.extractor.HasPhone(text)
	if hasPhone {
		score += c.phoneBonus
	}

	quality := models.QualityLow
	switch {
	case score >= highQualityScore:
		quality = models.QualityHigh
	case score >= mediumQualityScore:
		quality = models.QualityMedium
	}

	conversion := 0.3
	if c.buy.contains(t) {
		conversion += 0.3
	}
	if hasPhone {
		conversion += 0.1
	}
	conversion = clampScore(conversion)

	urgency := models.UrgencyLow
	urgencyBonus := 0.0
	if c.intents.isUrgent(t) {
		urgency = models.UrgencyHigh
		urgencyBonus = 20
	}

	intents := c.intents.detect(t)
	if len(intents) == 0 {
		intents = []string{models.IntentGeneral}
	}

	return &models.LeadClassification{
		Quality:               quality,
		QualityScore:          score,
		ConversionProbability: conversion,
		TotalScore:            int(math.Round(qualityBase[quality] + conversion*40 + urgencyBonus)),
		Urgency:               urgency,
		Intents:               intents,
		Recommendations:       c.recommend(quality, intents),
	}, nil
}

func (c *LeadClassifier) recommend(quality string, intents []string) []string {
	recs := append([]string{}, c.recs.Quality[quality]...)
	for _, intent := range intents {
		if r, ok := c.recs.Intents[intent]; ok {
			recs = append(recs, r)
		}
	}
	return recs
}
