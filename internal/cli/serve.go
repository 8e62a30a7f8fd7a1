package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finsight/finsight/internal/agent"
	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/gateway"
	"github.com/finsight/finsight/internal/llm"
	"github.com/finsight/finsight/internal/logging"
	"github.com/finsight/finsight/internal/mail"
	"github.com/finsight/finsight/internal/market"
	"github.com/finsight/finsight/internal/store"
	"github.com/finsight/finsight/internal/tools"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(os.Stderr, "config: %s: %s\n", issue.Path, issue.Message)
				}
				return fmt.Errorf("invalid configuration (%d issue(s))", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			log = logging.New(nil, logging.Options{Level: level, Style: cfg.Logging.ConsoleStyle})

			var sessions agent.SessionStore
			switch cfg.Session.Store {
			case "memory":
				sessions = agent.NewMemorySessionStore()
			default:
				db, err := store.Open(filepath.Join(paths.Data, "finsight.db"), log)
				if err != nil {
					return fmt.Errorf("open session store: %w", err)
				}
				defer db.Close()
				sessions = store.NewSQLiteSessionStore(db)
			}

			data := market.New(cfg.Market.AlphaVantageKey, log)
			registry, err := llm.NewRegistryFromConfig(cfg.Model, log)
			if err != nil {
				return err
			}
			runner := agent.NewRunner(agent.RunnerConfig{
				Model:       cfg.Model.ID,
				Fallbacks:   cfg.Model.Fallbacks,
				MaxTokens:   cfg.Model.MaxTokens,
				Temperature: cfg.Model.Temperature,
			}, registry, tools.DefaultRegistry(data), log)

			srv := gateway.New(cfg, runner, sessions, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override the configured gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override the configured bind mode (loopback, lan, custom)")

	return cmd
}

// newMailService builds the delivery service from config. The Resend
// transport is omitted when no API key is configured, which makes SMTP
// carry everything.
func newMailService(cfg config.Config, log *logging.Logger) (*mail.Service, error) {
	var primary mail.Transport
	if cfg.Email.ResendAPIKey != "" {
		primary = mail.NewResendTransport(cfg.Email.ResendAPIKey, cfg.Email.FromName, cfg.Email.FromAddress)
	}
	direct, err := mail.NewSMTPTransport(cfg.Email.SMTP, cfg.Email.FromName, cfg.Email.FromAddress)
	if err != nil {
		return nil, fmt.Errorf("smtp transport: %w", err)
	}
	return mail.NewService(primary, direct, cfg.Email.FromName, cfg.Email.AppURL, log), nil
}
