package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultWorkerYAML = `# DriveQuest worker config
# Priority: CLI flag > DRIVEQUEST_* env > this file > default.

kafka_brokers: "localhost:9092"
topic:         "progress.events"
dlq_topic:     "progress.dlq"
group_id:      "drivequest-worker"
redis_addr:    "localhost:6379"
log_level:     "info"

max_retries:      3
event_timeout:    "30s"    # accepts Go duration strings: 30s, 1m, 2m30s
retry_base_delay: "1s"     # wait = base * attempt²
metrics_addr:     ":9091"

# Reward fulfilment: both handlers are off unless configured.
# reward_webhook_url:   "https://fulfilment.example.com/rewards"
# reward_webhook_token: ""

# --- Local (MailHog) ---
# smtp_host: "localhost"
# smtp_port: 1025
# smtp_from: "noreply@drivequest.app"
# smtp_username: ""
# smtp_password: ""

# otel_endpoint: "localhost:4318"  # uncomment to enable OpenTelemetry tracing
# otel_sample_ratio: 1.0
`

func newInitCmd(serviceName, defaultYAML string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: fmt.Sprintf(`Write default configuration for %s.

If --config is given the file is written to that path.
Otherwise it is written to ~/.go-drive-quest/%s.yaml.
Fails if the file already exists unless --force is passed.`, serviceName, serviceName),
		RunE: func(_ *cobra.Command, _ []string) error {
			dest := cfgFile
			if dest == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("home dir: %w", err)
				}
				dest = filepath.Join(home, ".go-drive-quest", serviceName+".yaml")
			}

			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("stat %s: %w", dest, err)
				}
			}

			if err := os.WriteFile(dest, []byte(defaultYAML), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("config written to %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	return cmd
}
