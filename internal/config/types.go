package config

// Config is the root configuration for Finsight.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Model   ModelConfig   `yaml:"model,omitempty"`
	Market  MarketConfig  `yaml:"market,omitempty"`
	Email   EmailConfig   `yaml:"email,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// GatewayConfig controls the chat HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`

	// RequestTimeoutSeconds bounds one chat turn, streaming included.
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds,omitempty"`
}

// GatewayAuth configures gateway authentication. An empty token disables auth.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"`
}

// ModelConfig selects the language model used for chat turns.
type ModelConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "gemini"
	APIKey      string   `yaml:"apiKey,omitempty"`
	ID          string   `yaml:"id,omitempty"`
	Fallbacks   []string `yaml:"fallbacks,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// MarketConfig holds credentials for the market data providers.
// CoinGecko, exchangerate-api and alternative.me need no key.
type MarketConfig struct {
	AlphaVantageKey string `yaml:"alphaVantageKey,omitempty"`
}

// EmailConfig configures transactional email delivery.
type EmailConfig struct {
	FromName     string     `yaml:"fromName,omitempty"`
	FromAddress  string     `yaml:"fromAddress,omitempty"`
	AppURL       string     `yaml:"appUrl,omitempty"` // public base URL used in templated links
	ResendAPIKey string     `yaml:"resendApiKey,omitempty"`
	SMTP         SMTPConfig `yaml:"smtp,omitempty"`
}

// SMTPConfig configures the SMTP relay used as the secondary transport.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// SessionConfig defines conversation persistence behavior.
type SessionConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
