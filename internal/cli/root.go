package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	LogLevelEnvKey  = "LOG_LEVEL"
	LogFormatEnvKey = "LOG_FORMAT"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	EnvFile string
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the naasprov command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "naasprov",
		Short: "Keep a NaaS internet service on the bandwidth tier its egress path calls for",
		Long: `naasprov checks which address this host egresses from, compares it to the reference
address of the NaaS service and, when the service runs at the wrong bandwidth tier, requests a
price quote and places a modify order for the right one.

State (tokens, inventory facts, quote and order ids) is kept in a dotenv file by default.
Set STATE_BACKEND=redis or STATE_BACKEND=ddb to keep it in Redis or DynamoDB instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			bootstrap(opts)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "state file (default $ENV_FILE or .env)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))
	cmd.AddCommand(NewDecideCommand(opts))
	cmd.AddCommand(NewQuoteCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// bootstrap loads the env file into the process environment, so that backend selection can live in the
// same file as the state, and configures logging.
func bootstrap(opts *RootOptions) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = os.Getenv("ENV_FILE")
	}
	if envFile == "" {
		envFile = ".env"
	}
	opts.EnvFile = envFile
	if err := godotenv.Load(envFile); err != nil {
		log.WithField("env_file", envFile).Debug("env file not loaded")
	}
	configureLogging(opts.Verbose)
}

func configureLogging(verbose bool) {
	log.SetOutput(os.Stderr)
	level := log.InfoLevel
	if raw := strings.TrimSpace(os.Getenv(LogLevelEnvKey)); raw != "" {
		if l, err := log.ParseLevel(raw); err == nil {
			level = l
		}
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(os.Getenv(LogFormatEnvKey), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
