// internal/models/message.go
package models

const DefaultBusinessContext = "automotive"

type Message struct {
	Text            string `json:"text"`
	BusinessContext string `json:"businessContext,omitempty"`
}

// Entity categories, also accepted as the entity-type filter of extract requests.
const (
	EntityPersons   = "personas"
	EntityVehicles  = "vehiculos"
	EntityPrices    = "precios"
	EntityDates     = "fechas"
	EntityContact   = "contacto"
	EntityLocations = "ubicaciones"
	EntityBrands    = "marcas"
)

var EntityCategories = []string{
	EntityPersons, EntityVehicles, EntityPrices, EntityDates, EntityContact, EntityLocations, EntityBrands,
}

type ContactInfo struct {
	Phones []string `json:"telefonos"`
	Emails []string `json:"emails"`
}

// ExtractedEntities keeps every category in first-match order of the source text.
type ExtractedEntities struct {
	Persons   []string    `json:"personas"`
	Vehicles  []string    `json:"vehiculos"`
	Prices    []string    `json:"precios"`
	Dates     []string    `json:"fechas"`
	Contact   ContactInfo `json:"contacto"`
	Locations []string    `json:"ubicaciones"`
	Brands    []string    `json:"marcas"`
}

// Count returns the number of matches across all categories.
func (e ExtractedEntities) Count() int {
	return len(e.Persons) + len(e.Vehicles) + len(e.Prices) + len(e.Dates) +
		len(e.Contact.Phones) + len(e.Contact.Emails) + len(e.Locations) + len(e.Brands)
}

const (
	IntentPurchase    = "intencion_compra"
	IntentInfoRequest = "solicitud_informacion"
	IntentAppointment = "agendamiento"
	IntentAfterSales  = "postventa"
	IntentFinancing   = "financiamiento"
	IntentGeneral     = "consulta_general"
)

const (
	UrgencyHigh = "high"
	UrgencyLow  = "low"
)

const (
	TonePositive = "positive"
	ToneNeutral  = "neutral"
	ToneNegative = "negative"
)

type ClassificationResult struct {
	PrimaryIntent    string             `json:"primaryIntent"`
	SecondaryIntents []string           `json:"secondaryIntents"`
	Confidence       float64            `json:"confidence"`
	Urgency          string             `json:"urgency"`
	EmotionalTone    string             `json:"emotionalTone"`
	BusinessContext  string             `json:"businessContext"`
	Entities         *ExtractedEntities `json:"entities,omitempty"`
}

type SentimentResult struct {
	Polarity     string   `json:"polarity"`
	Intensity    float64  `json:"intensity"`
	Emotions     []string `json:"emotions"`
	PositiveHits int      `json:"positiveHits"`
	NegativeHits int      `json:"negativeHits"`
}

// LeadClassification is the lead-quality verdict for an inbound message.
type LeadClassification struct {
	Quality               string   `json:"classification"`
	QualityScore          int      `json:"qualityScore"`
	ConversionProbability float64  `json:"conversionProbability"`
	TotalScore            int      `json:"totalScore"`
	Urgency               string   `json:"urgency"`
	Intents               []string `json:"intents"`
	Recommendations       []string `json:"recommendations"`
}

const (
	ResponseFormal = "formal"
	ResponseCasual = "cercano"
)

type GeneratedResponse struct {
	Text                string   `json:"text"`
	Intent              string   `json:"intent"`
	ResponseType        string   `json:"responseType"`
	RequiresHumanReview bool     `json:"requiresHumanReview"`
	Alternatives        []string `json:"alternatives"`
}
