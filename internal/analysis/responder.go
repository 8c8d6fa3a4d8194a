package analysis

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)
	repeatedSpace      = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunct   = regexp.MustCompile(`[ \t]+([.,;:!?])`)
)

// ResponseContext fills template placeholders. Intent skips classification
// when the caller already has one.
type ResponseContext struct {
	CustomerName   string `json:"customerName,omitempty"`
	AdvisorName    string `json:"advisorName,omitempty"`
	DealershipName string `json:"dealershipName,omitempty"`
	Intent         string `json:"intent,omitempty"`
}

// Responder picks a canned reply for the message intent. Alternatives are
// fixed variants, not paraphrases.
type Responder struct {
	templates    map[string]string
	alternatives []string
	escalation   *termMatcher
	intents      *IntentClassifier
	dealership   string
}

func NewResponder(lex *Lexicon, intents *IntentClassifier, dealershipName string) *Responder {
	return &Responder{
		templates:    lex.Responses.Templates,
		alternatives: lex.Responses.Alternatives,
		escalation:   newTermMatcher(lex.EscalationTerms),
		intents:      intents,
		dealership:   dealershipName,
	}
}

func (r *Responder) Generate(msg models.Message, responseType string, rc ResponseContext) (*models.GeneratedResponse, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, apperrors.NewValidationError("message text is required")
	}
	if responseType == "" {
		responseType = models.ResponseFormal
	}
	if responseType != models.ResponseFormal && responseType != models.ResponseCasual {
		return nil, apperrors.NewValidationError(fmt.Sprintf("responseType must be %q or %q", models.ResponseFormal, models.ResponseCasual))
	}

	intent := rc.Intent
	if intent == "" {
		classification, err := r.intents.Classify(msg)
		if err != nil {
			return nil, err
		}
		intent = classification.PrimaryIntent
	}

	template, ok := r.templates[intent]
	if !ok {
		template = r.templates[models.IntentGeneral]
	}

	values := map[string]string{
		"nombre":        strings.TrimSpace(rc.CustomerName),
		"asesor":        strings.TrimSpace(rc.AdvisorName),
		"concesionario": r.dealershipName(rc),
	}
	greeting := salutation(responseType, values["nombre"])

	alternatives := make([]string, 0, len(r.alternatives))
	for _, alt := range r.alternatives {
		alternatives = append(alternatives, render(greeting+" "+alt, values))
	}

	return &models.GeneratedResponse{
		Text:                render(greeting+" "+template, values),
		Intent:              intent,
		ResponseType:        responseType,
		RequiresHumanReview: r.escalation.contains(foldText(msg.Text)),
		Alternatives:        alternatives,
	}, nil
}

func (r *Responder) dealershipName(rc ResponseContext) string {
	if name := strings.TrimSpace(rc.DealershipName); name != "" {
		return name
	}
	return r.dealership
}

func salutation(responseType, name string) string {
	if responseType == models.ResponseCasual {
		if name == "" {
			return "¡Hola!"
		}
		return "¡Hola {{nombre}}!"
	}
	if name == "" {
		return "Estimado/a cliente,"
	}
	return "Estimado/a {{nombre}},"
}

// render substitutes known placeholders and drops unknown or empty ones.
func render(tmpl string, values map[string]string) string {
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(ph string) string {
		key := placeholderPattern.FindStringSubmatch(ph)[1]
		return values[key]
	})
	out = repeatedSpace.ReplaceAllString(out, " ")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out)
}
