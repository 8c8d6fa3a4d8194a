// pkg/registry/schema.go
package registry

// ActivityRegistry is the catalog of task types this service implements,
// kept in configs/activity-registry.json for BPMN modellers.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string   `json:"id"`
	DisplayName          string   `json:"displayName"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	Version              string   `json:"version"`
	TaskType             string   `json:"taskType"`
	ResultVariable       string   `json:"resultVariable"`
	ImplementationStatus string   `json:"implementationStatus"`
	RequiredInputs       []string `json:"requiredInputs"`
	ErrorCodes           []string `json:"errorCodes"`
	Timeout              string   `json:"timeout"`
	Retries              int      `json:"retries"`
	Tags                 []string `json:"tags"`
}

const (
	CategoryMessageAnalysis = "message-analysis"
	CategoryLeads           = "leads"
	CategoryAdvisors        = "advisors"
)

var implementationStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"verified":    true,
}
