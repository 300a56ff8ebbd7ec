package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/util"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "mcwatch",
	Short: "Stop an idle Minecraft Bedrock server",
	Long: `mcwatch watches a Bedrock dedicated server running under docker compose.

When nobody has been online for the configured time it stops the compose
project, waits for every container to exit and, if enabled, powers the
host off.

Configuration is read from .mcwatch.yaml or .env and from environment
variables such as SERVER_TIMEOUT and AUTOMATIC_SHUTDOWN.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		if verbose {
			logger.SetDefault(logger.New(logger.Options{Debug: true}))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .mcwatch.yaml or .env, searched upward)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, err)
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			if suggestions := util.SuggestSimilar(name, commandNames(), 3); len(suggestions) > 0 {
				fmt.Fprintf(os.Stderr, "\nDid you mean: %s?\n", strings.Join(suggestions, ", "))
			}
		}
		fmt.Fprintln(os.Stderr, "Run 'mcwatch --help' for usage.")
	}
	return 1
}

// loadConfig resolves and validates the configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		logger.Default().Debug("Loaded config from %s", cfg.Path)
	}
	return cfg, nil
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "mcwatch"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func commandNames() []string {
	var names []string
	for _, c := range rootCmd.Commands() {
		if c.IsAvailableCommand() {
			names = append(names, c.Name())
		}
	}
	return names
}
