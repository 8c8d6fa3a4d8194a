package analysis

import (
	"strings"
	"testing"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultLexicon(), "Automotora Sur")
}

func TestIntentClassifier_Classify(t *testing.T) {
	c := newTestEngine().Intent

	tests := []struct {
		name       string
		text       string
		primary    string
		secondary  []string
		confidence float64
		urgency    string
	}{
		{
			name:       "purchase",
			text:       "quiero comprar un auto",
			primary:    models.IntentPurchase,
			secondary:  []string{},
			confidence: 0.5,
			urgency:    models.UrgencyLow,
		},
		{
			name:       "priority beats hit count",
			text:       "necesito crédito en cuotas con pie para comprar",
			primary:    models.IntentPurchase,
			secondary:  []string{models.IntentFinancing},
			confidence: 0.5,
			urgency:    models.UrgencyLow,
		},
		{
			name:       "long message with secondary intent",
			text:       "¿Cuál es el precio del Corolla? Quiero agendar un test drive",
			primary:    models.IntentInfoRequest,
			secondary:  []string{models.IntentAppointment},
			confidence: 0.7,
			urgency:    models.UrgencyLow,
		},
		{
			name:       "specific terms raise confidence",
			text:       "Busco camioneta 4x4 diesel automática",
			primary:    models.IntentGeneral,
			secondary:  []string{},
			confidence: 0.7,
			urgency:    models.UrgencyLow,
		},
		{
			name:       "urgent after-sales",
			text:       "necesito hora en el taller hoy, es urgente",
			primary:    models.IntentAfterSales,
			secondary:  []string{},
			confidence: 0.5,
			urgency:    models.UrgencyHigh,
		},
		{
			name: "confidence is capped",
			text: "Busco suv 0km automático diesel híbrido 4x4 versión full color blanco modelo año 2024, " +
				"usado o seminuevo, sedán, camioneta o hatchback, mecánico también sirve",
			primary:    models.IntentGeneral,
			secondary:  []string{},
			confidence: 1.0,
			urgency:    models.UrgencyLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(models.Message{Text: tt.text, BusinessContext: "automotive"})
			require.NoError(t, err)
			assert.Equal(t, tt.primary, result.PrimaryIntent)
			assert.Equal(t, tt.secondary, result.SecondaryIntents)
			assert.InDelta(t, tt.confidence, result.Confidence, 1e-9)
			assert.Equal(t, tt.urgency, result.Urgency)
			assert.Equal(t, "automotive", result.BusinessContext)
		})
	}
}

func TestIntentClassifier_ToneAndDefaults(t *testing.T) {
	c := newTestEngine().Intent

	result, err := c.Classify(models.Message{Text: "Pésimo servicio, tengo un reclamo"})
	require.NoError(t, err)
	assert.Equal(t, models.ToneNegative, result.EmotionalTone)
	assert.Equal(t, models.DefaultBusinessContext, result.BusinessContext)

	_, err = c.Classify(models.Message{Text: "  "})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestSentimentClassifier_Classify(t *testing.T) {
	c := newTestEngine().Sentiment

	tests := []struct {
		name      string
		text      string
		polarity  string
		intensity float64
		emotions  []string
	}{
		{name: "shouting praise", text: "EXCELENTE SERVICIO!", polarity: models.TonePositive, intensity: 1.0, emotions: []string{"alegria"}},
		{name: "tie is neutral", text: "el auto es bueno pero la atención fue mala", polarity: models.ToneNeutral, intensity: 0.5, emotions: []string{}},
		{name: "gratitude", text: "Gracias, muy amable!", polarity: models.TonePositive, intensity: 0.7, emotions: []string{"gratitud"}},
		{name: "frustration", text: "Estoy muy molesto, nunca me llamaron", polarity: models.ToneNegative, intensity: 0.5, emotions: []string{"frustracion"}},
		{name: "no letters is not shouting", text: "12345 !!!", polarity: models.ToneNeutral, intensity: 0.7, emotions: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.polarity, result.Polarity)
			assert.InDelta(t, tt.intensity, result.Intensity, 1e-9)
			assert.Equal(t, tt.emotions, result.Emotions)
		})
	}

	_, err := c.Classify("")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestLeadClassifier_Classify(t *testing.T) {
	c := newTestEngine().Lead

	tests := []struct {
		name       string
		text       string
		lead       *models.Lead
		quality    string
		score      int
		conversion float64
		total      int
		urgency    string
		intents    []string
	}{
		{
			name:       "hot buyer",
			text:       "Quiero comprar hoy al contado",
			quality:    models.QualityHigh,
			score:      5,
			conversion: 0.6,
			total:      74,
			urgency:    models.UrgencyHigh,
			intents:    []string{models.IntentPurchase},
		},
		{
			name:       "phone on lead record",
			text:       "Hola, ¿qué modelos tienen?",
			lead:       &models.Lead{Phone: "+56912345678"},
			quality:    models.QualityMedium,
			score:      2,
			conversion: 0.4,
			total:      36,
			urgency:    models.UrgencyLow,
			intents:    []string{models.IntentGeneral},
		},
		{
			name:       "phone in text",
			text:       "Me interesa, mi número es 912345678",
			quality:    models.QualityMedium,
			score:      2,
			conversion: 0.4,
			total:      36,
			urgency:    models.UrgencyLow,
			intents:    []string{models.IntentGeneral},
		},
		{
			name:       "cold",
			text:       "Hola",
			quality:    models.QualityLow,
			score:      0,
			conversion: 0.3,
			total:      12,
			urgency:    models.UrgencyLow,
			intents:    []string{models.IntentGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(tt.text, tt.lead)
			require.NoError(t, err)
			assert.Equal(t, tt.quality, result.Quality)
			assert.Equal(t, tt.score, result.QualityScore)
			assert.InDelta(t, tt.conversion, result.ConversionProbability, 1e-9)
			assert.Equal(t, tt.total, result.TotalScore)
			assert.Equal(t, tt.urgency, result.Urgency)
			assert.Equal(t, tt.intents, result.Intents)
			assert.NotEmpty(t, result.Recommendations)
		})
	}
}

func TestLeadClassifier_Recommendations(t *testing.T) {
	c := newTestEngine().Lead

	result, err := c.Classify("Quiero comprar hoy al contado", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Recommendations, "Preparar cotización formal")
	assert.Contains(t, result.Recommendations, "Contactar al cliente dentro de la próxima hora")

	_, err = c.Classify("", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestResponder_Generate(t *testing.T) {
	r := newTestEngine().Responder

	t.Run("formal purchase with full context", func(t *testing.T) {
		resp, err := r.Generate(models.Message{Text: "quiero comprar un auto"}, models.ResponseFormal, ResponseContext{
			CustomerName:   "Ana",
			AdvisorName:    "Pedro",
			DealershipName: "Automotora Norte",
		})
		require.NoError(t, err)
		assert.Equal(t, models.IntentPurchase, resp.Intent)
		assert.True(t, strings.HasPrefix(resp.Text, "Estimado/a Ana, Gracias por su interés en comprar con Automotora Norte."))
		assert.Contains(t, resp.Text, "Su asesor Pedro lo contactará")
		assert.False(t, resp.RequiresHumanReview)
		require.Len(t, resp.Alternatives, 2)
		for _, alt := range resp.Alternatives {
			assert.Contains(t, alt, "Automotora Norte")
		}
	})

	t.Run("casual without names drops placeholders", func(t *testing.T) {
		resp, err := r.Generate(models.Message{Text: "quiero comprar un auto"}, models.ResponseCasual, ResponseContext{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.Text, "¡Hola! "))
		assert.Contains(t, resp.Text, "Su asesor lo contactará")
		assert.Contains(t, resp.Text, "Automotora Sur")
		assert.NotContains(t, resp.Text, "{{")
		assert.NotContains(t, resp.Text, "  ")
		assert.Equal(t, models.ResponseCasual, resp.ResponseType)
	})

	t.Run("escalation needs human review", func(t *testing.T) {
		resp, err := r.Generate(models.Message{Text: "Tengo un problema con mi auto y quiero poner un reclamo"}, "", ResponseContext{})
		require.NoError(t, err)
		assert.True(t, resp.RequiresHumanReview)
		assert.Equal(t, models.ResponseFormal, resp.ResponseType)
	})

	t.Run("unknown intent falls back to general template", func(t *testing.T) {
		resp, err := r.Generate(models.Message{Text: "hola"}, models.ResponseFormal, ResponseContext{Intent: "desconocido"})
		require.NoError(t, err)
		assert.Contains(t, resp.Text, "revisará su mensaje")
	})

	t.Run("invalid response type", func(t *testing.T) {
		_, err := r.Generate(models.Message{Text: "hola"}, "poetico", ResponseContext{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := r.Generate(models.Message{}, models.ResponseFormal, ResponseContext{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	})
}
