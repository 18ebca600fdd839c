package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config holds Triago's application-level configuration, alongside the
// common go-core Registerable and Validatable interfaces.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	SlackBotToken         string
	SlackChannelID        string
	IngestSecret          string
	CohereAPIKey          string
	CohereModel           string
	MockMode              bool
	KnowledgeDir          string
	IndexPath             string
	TailFile              string
	TailIntervalMS        int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.SlackBotToken, "slack-bot-token", "", "Slack bot token for posting cards (required)")
	fs.StringVar(&c.SlackChannelID, "slack-channel-id", "", "default Slack channel for webhook and tail alerts")
	fs.StringVar(&c.IngestSecret, "ingest-secret", "", "shared secret for the SIEM webhook (empty = no check)")
	fs.StringVar(&c.CohereAPIKey, "cohere-api-key", "", "API key for the Cohere classification/embedding backend (empty = mock tier)")
	fs.StringVar(&c.CohereModel, "cohere-model", "command-r-plus", "Cohere chat model for the model tier")
	fs.BoolVar(&c.MockMode, "mock-mode", false, "force the deterministic mock tier even when a backend is configured")
	fs.StringVar(&c.KnowledgeDir, "knowledge-dir", "kb", "directory of knowledge documents for the evidence index")
	fs.StringVar(&c.IndexPath, "index-path", ".kb_index.json", "path of the persisted evidence index")
	fs.StringVar(&c.TailFile, "tail-file", "", "log file to tail for realtime triage (empty = disabled)")
	fs.IntVar(&c.TailIntervalMS, "tail-interval-ms", 500, "tail poll interval in milliseconds (50..60000)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Bot token is the one credential we cannot run without
	if c.SlackBotToken == "" {
		errs = append(errs, errors.New("SLACK_BOT_TOKEN is required"))
	}

	// Model name is required whenever the backend is enabled
	if c.CohereAPIKey != "" && c.CohereModel == "" {
		errs = append(errs, errors.New("COHERE_MODEL is required when COHERE_API_KEY is set"))
	}

	if c.IndexPath == "" {
		errs = append(errs, errors.New("INDEX_PATH must not be empty"))
	}

	if c.TailIntervalMS < 50 || c.TailIntervalMS > 60000 {
		errs = append(errs, fmt.Errorf("invalid TAIL_INTERVAL_MS %d (must be 50..60000)", c.TailIntervalMS))
	}

	// Tailing needs somewhere to post
	if c.TailFile != "" && c.SlackChannelID == "" {
		errs = append(errs, errors.New("SLACK_CHANNEL_ID is required when TAIL_FILE is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
