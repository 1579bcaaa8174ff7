package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/s0up4200/bindb/bindb"
	"github.com/s0up4200/bindb/config"
)

var (
	cfgFile     string
	cfg         *config.Config
	logger      zerolog.Logger
	logCloser   io.Closer
	bindbClient *bindb.Client

	// Command flags
	tokenFlag  string
	errorMode  bool
	fieldsFlag []string
	outputFlag string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bindb",
	Short: "Look up payment card BINs against bindb.me",
	Long: `bindb looks up bank identification numbers (the first six digits of a card
number) and prints the card scheme, type, level, issuer and country.

Lookups can be written directly or as a BinDBQL statement:

  bindb lookup 437776
  bindb query "SELECT bin, issuer FROM bins WHERE bin = ?" 437776`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// SetVersion stamps build information into the CLI
func SetVersion(version, buildTime string) {
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// Execute runs the root command and returns the process exit status.
// Cancelling ctx aborts an in-flight lookup.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}

	code := exitCode(err)
	if code == 1 {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
	}
	return code
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bindb app token for the private API")
	rootCmd.PersistentFlags().BoolVarP(&errorMode, "error", "e", false, "report lookup failures as errors instead of \"not found\"")
	rootCmd.PersistentFlags().StringSliceVarP(&fieldsFlag, "fields", "f", nil, "only return these fields (comma separated)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format: auto, json or table")
}

// initializeApp initializes the configuration and client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from command line if specified
	flags := cmd.Flags()
	if flags.Changed("token") {
		cfg.BinDB.Token = tokenFlag
	}
	if flags.Changed("error") {
		cfg.BinDB.ErrorMode = errorMode
	}
	if flags.Changed("fields") {
		cfg.BinDB.Fields = fieldsFlag
	}
	if flags.Changed("output") {
		cfg.Output.Format = outputFlag
	}

	// Setup logger
	logger, logCloser = setupLogger(cfg.Logging)

	client, err := bindb.NewClient(cfg.BinDB.Token, logger,
		bindb.WithBaseURL(cfg.BinDB.BaseURL),
		bindb.WithTimeout(cfg.BinDB.Timeout),
		bindb.WithVerifyTLS(cfg.BinDB.VerifyTLS),
	)
	if err != nil {
		return fmt.Errorf("failed to create bindb client: %w", err)
	}

	bindbClient = client.Error(cfg.BinDB.ErrorMode).Fields(cfg.BinDB.Fields...)

	logger.Debug().
		Str("base_url", cfg.BinDB.BaseURL).
		Bool("private", cfg.BinDB.Token != "").
		Bool("error_mode", cfg.BinDB.ErrorMode).
		Strs("fields", cfg.BinDB.Fields).
		Msg("bindb client ready")

	return nil
}

// setupLogger configures the zerolog logger. When a log file is configured,
// output goes to a rotating file instead of stderr.
func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, io.Closer) {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	var (
		out     io.Writer = os.Stderr
		closer  io.Closer
		noColor = !cfg.Color || !isTerminal(os.Stderr)
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}
		out, closer, noColor = lj, lj, true
	}

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(out).With().Timestamp().Logger(), closer
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}

	return zerolog.New(output).With().Timestamp().Logger(), closer
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotFound):
		return 2
	case errors.Is(err, errNoMatch):
		return 3
	default:
		return 1
	}
}
