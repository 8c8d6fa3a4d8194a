// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Assignment    AssignmentConfig        `mapstructure:"assignment"`
	Lexicon       LexiconConfig           `mapstructure:"lexicon"`
	Responses     ResponseConfig          `mapstructure:"responses"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Archive       ArchiveConfig           `mapstructure:"archive"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- Domain Configuration Sections ---

// AssignmentConfig drives the advisor selector and the rebalancing job.
type AssignmentConfig struct {
	DefaultStrategy    string `mapstructure:"default_strategy"`
	DefaultMaxWorkload int    `mapstructure:"default_max_workload"`

	// "memory" keeps the round-robin pointer in process, "redis" shares it across replicas.
	CursorStore     string `mapstructure:"cursor_store"`
	CursorKeyPrefix string `mapstructure:"cursor_key_prefix"`

	// RefreshInterval (milliseconds) bounds how long cached advisor rows are trusted.
	RefreshInterval int `mapstructure:"refresh_interval"`

	RebalanceSchedule string   `mapstructure:"rebalance_schedule"`
	RebalanceTenants  []string `mapstructure:"rebalance_tenants"`
}

// LexiconConfig points at an override for the embedded keyword lexicon.
type LexiconConfig struct {
	Path string `mapstructure:"path"`
}

// ResponseConfig feeds defaults into generated replies.
type ResponseConfig struct {
	DealershipName string `mapstructure:"dealership_name"`
	DefaultType    string `mapstructure:"default_type"`
}

// NotificationConfig selects the channels reassignment events go out on.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	WhatsApp struct {
		Enabled     bool   `mapstructure:"enabled"`
		SessionPath string `mapstructure:"session_path"`
	} `mapstructure:"whatsapp"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// ArchiveConfig controls indexing of message analyses into Elasticsearch.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	HTTPAddress    string  `mapstructure:"http_address"`
}
