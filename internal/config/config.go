package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	log "github.com/tuannvm/dr-triage/internal/logging"
)

// Agent names used by the binaries in cmd/.
const (
	TriageAgentName = "DrTriageAgent"
	MCPServerName   = "jira-mcp"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort  int
	ServerHost  string
	WebhookPort int

	// Agent configuration
	AgentName    string
	AgentVersion string
	AgentURL     string

	// Jira configuration
	JiraBaseURL    string
	JiraUsername   string
	JiraAPIToken   string
	JiraProjectKey string
	JiraIssueType  string

	// Authentication
	AuthType  string // "jwt", "apikey" or "none"
	JWTSecret string
	APIKey    string

	// LLM configuration
	LLMProvider    string // "openai", "azure", "anthropic"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     int // in seconds
	LLMTemperature float64
	LLMMaxSteps    int

	// MCP tool server
	MCPTransport string // "sse" or "stdio"
	MCPPort      int
	MCPBaseURL   string

	// Triage behaviour
	DefaultStatus      string
	SearchMockFallback bool
	CurlTimeout        time.Duration

	LogLevel string
}

var v = viper.New()

// init loads environment variables from .env file
func init() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Debugf("Loaded configuration from %s file", path)
			break
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.webhook_port", 8081)

	v.SetDefault("agent.name", TriageAgentName)
	v.SetDefault("agent.version", "1.0.0")
	v.SetDefault("agent.url", "http://localhost:8080")

	v.SetDefault("jira.base_url", "")
	v.SetDefault("jira.username", "")
	v.SetDefault("jira.api_token", "")
	v.SetDefault("jira.project_key", "")
	v.SetDefault("jira.issue_type", "Bug")

	v.SetDefault("auth.type", "apikey")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.api_key", "")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.service_url", "")
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_steps", 8)

	v.SetDefault("mcp.transport", "sse")
	v.SetDefault("mcp.port", 3000)
	v.SetDefault("mcp.base_url", "")

	v.SetDefault("triage.default_status", "")
	v.SetDefault("triage.search_mock_fallback", false)
	v.SetDefault("triage.curl_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
}

// GetViper exposes the shared viper instance so binaries can override values
// (flags, agent name) before calling NewConfig.
func GetViper() *viper.Viper {
	return v
}

// NewConfig creates a new configuration from the viper instance
func NewConfig() *Config {
	return FromViper(v)
}

// FromViper builds a Config from an arbitrary viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		ServerPort:  v.GetInt("server.port"),
		ServerHost:  v.GetString("server.host"),
		WebhookPort: v.GetInt("server.webhook_port"),

		AgentName:    v.GetString("agent.name"),
		AgentVersion: v.GetString("agent.version"),
		AgentURL:     v.GetString("agent.url"),

		JiraBaseURL:    NormalizeJiraHost(v.GetString("jira.base_url")),
		JiraUsername:   firstNonEmpty(v.GetString("jira.username"), v.GetString("jira.organization")),
		JiraAPIToken:   firstNonEmpty(v.GetString("jira.api_token"), v.GetString("jira.organization_key")),
		JiraProjectKey: v.GetString("jira.project_key"),
		JiraIssueType:  v.GetString("jira.issue_type"),

		AuthType:  v.GetString("auth.type"),
		JWTSecret: v.GetString("auth.jwt_secret"),
		APIKey:    v.GetString("auth.api_key"),

		LLMProvider:    v.GetString("llm.provider"),
		LLMModel:       v.GetString("llm.model"),
		LLMAPIKey:      v.GetString("llm.api_key"),
		LLMServiceURL:  v.GetString("llm.service_url"),
		LLMMaxTokens:   v.GetInt("llm.max_tokens"),
		LLMTimeout:     v.GetInt("llm.timeout"),
		LLMTemperature: v.GetFloat64("llm.temperature"),
		LLMMaxSteps:    v.GetInt("llm.max_steps"),

		MCPTransport: v.GetString("mcp.transport"),
		MCPPort:      v.GetInt("mcp.port"),
		MCPBaseURL:   v.GetString("mcp.base_url"),

		DefaultStatus:      v.GetString("triage.default_status"),
		SearchMockFallback: v.GetBool("triage.search_mock_fallback"),
		CurlTimeout:        v.GetDuration("triage.curl_timeout"),

		LogLevel: v.GetString("log.level"),
	}
	if cfg.JiraBaseURL == "" {
		// JIRA_HOST is the older name for the site.
		cfg.JiraBaseURL = NormalizeJiraHost(v.GetString("jira.host"))
	}
	return cfg
}

// NormalizeJiraHost trims trailing slashes and defaults the scheme to https.
func NormalizeJiraHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
