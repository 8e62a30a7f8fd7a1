package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port:                  8787,
			Bind:                  "loopback",
			RequestTimeoutSeconds: 60,
		},
		Model: ModelConfig{
			Provider:  "gemini",
			ID:        "gemini-2.5-flash",
			MaxTokens: 8192,
		},
		Market: MarketConfig{
			// Alpha Vantage accepts a literal "demo" key with canned data.
			AlphaVantageKey: "demo",
		},
		Email: EmailConfig{
			FromName:    "Finsight",
			FromAddress: "service@finsight.app",
			AppURL:      "https://finsight.app",
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
		Session: SessionConfig{
			Store: "sqlite",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
