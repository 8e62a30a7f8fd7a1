package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/logging"
	"github.com/finsight/finsight/internal/mail"
)

func newEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Email delivery utilities",
	}

	cmd.AddCommand(newEmailTestCmd())

	return cmd
}

func newEmailTestCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "test <recipient>",
		Short: "Send a test email through the configured transports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(os.Stderr, "config: %s: %s\n", issue.Path, issue.Message)
				}
				return fmt.Errorf("invalid configuration (%d issue(s))", len(issues))
			}

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			log = logging.New(nil, logging.Options{Level: level, Style: cfg.Logging.ConsoleStyle})

			svc, err := newMailService(cfg, log)
			if err != nil {
				return err
			}

			to := args[0]
			var res mail.Result
			switch category {
			case "welcome":
				res = svc.SendWelcome(cmd.Context(), to, "Test User")
			case "expert-application":
				res = svc.SendExpertApplication(cmd.Context(), to, "Test User")
			case "admin":
				res = svc.SendAdminNotification(cmd.Context(), to, "Finsight test notification",
					"This is a test notification sent by `finsight email test`.")
			default:
				return fmt.Errorf("unknown category %q (welcome, expert-application, admin)", category)
			}

			if !res.Delivered() {
				return fmt.Errorf("delivery failed via %s: %w", res.Service, res.Err)
			}
			fmt.Printf("Delivered to %s via %s\n", to, res.Service)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "welcome", "email category to send (welcome, expert-application, admin)")

	return cmd
}
