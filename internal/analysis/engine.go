package analysis

// Engine wires the analysis components around one lexicon.
type Engine struct {
	Lexicon   *Lexicon
	Extractor *Extractor
	Sentiment *SentimentClassifier
	Intent    *IntentClassifier
	Lead      *LeadClassifier
	Responder *Responder
}

func NewEngine(lex *Lexicon, dealershipName string) *Engine {
	extractor := NewExtractor(lex)
	sentiment := NewSentimentClassifier(lex)
	intent := NewIntentClassifier(lex, sentiment)
	return &Engine{
		Lexicon:   lex,
		Extractor: extractor,
		Sentiment: sentiment,
		Intent:    intent,
		Lead:      NewLeadClassifier(lex, intent, extractor),
		Responder: NewResponder(lex, intent, dealershipName),
	}
}
