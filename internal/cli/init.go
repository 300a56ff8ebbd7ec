package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Dir            string // Directory to write .mcwatch.yaml in (default ".")
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults and environment
}

var initOpts InitOptions

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .mcwatch.yaml configuration",
	Long: `Create a .mcwatch.yaml file in the current directory.

Prompts for the server address, idle timeout, and power-off setting.
Current environment variables (SERVER_IP, SERVER_TIMEOUT, ...) are used
as the defaults. Set CI or --non-interactive to skip the prompts.

Examples:
  mcwatch init
  SERVER_TIMEOUT=30m mcwatch init --non-interactive
  mcwatch init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(initOpts)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initOpts.Overwrite, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "don't prompt, write defaults")
	rootCmd.AddCommand(initCmd)
}

// mergeInitOptions fills in options implied by the environment.
func mergeInitOptions(opts InitOptions) InitOptions {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if os.Getenv("CI") != "" {
		opts.NonInteractive = true
	}
	return opts
}

// initAnswers are the prompted values, kept as text while the form runs.
type initAnswers struct {
	ServerIP          string
	ServerPort        string
	ServerTimeout     string
	AutomaticShutdown bool
	ComposeFile       string
	WorldName         string
	BackupInterval    string
}

func answersFrom(cfg *config.Config) initAnswers {
	return initAnswers{
		ServerIP:          cfg.ServerIP,
		ServerPort:        strconv.Itoa(cfg.ServerPort),
		ServerTimeout:     config.FormatTimeout(cfg.ServerTimeout),
		AutomaticShutdown: cfg.AutomaticShutdown,
		ComposeFile:       cfg.ComposeFile,
		WorldName:         cfg.WorldName,
		BackupInterval:    config.FormatTimeout(cfg.BackupInterval),
	}
}

// apply parses the answers onto cfg.
func (a initAnswers) apply(cfg *config.Config) error {
	port, err := strconv.Atoi(strings.TrimSpace(a.ServerPort))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a port number", a.ServerPort),
			"Bedrock servers listen on 19132 by default.")
	}
	timeout, err := parseFlagDuration("timeout", a.ServerTimeout)
	if err != nil {
		return err
	}
	backupEvery, err := parseFlagDuration("backup-interval", a.BackupInterval)
	if err != nil {
		return err
	}

	cfg.ServerIP = strings.TrimSpace(a.ServerIP)
	cfg.ServerPort = port
	cfg.ServerTimeout = timeout
	cfg.AutomaticShutdown = a.AutomaticShutdown
	cfg.ComposeFile = strings.TrimSpace(a.ComposeFile)
	cfg.WorldName = strings.TrimSpace(a.WorldName)
	cfg.BackupInterval = backupEvery
	return nil
}

// Init creates a new .mcwatch.yaml configuration file.
func Init(opts InitOptions) error {
	opts = mergeInitOptions(opts)
	configPath := filepath.Join(opts.Dir, config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// Environment variables seed the defaults.
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	if !opts.NonInteractive {
		answers := answersFrom(cfg)
		if err := promptInit(&answers); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive")
		}
		if err := answers.apply(cfg); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolComplete, configPath)
	fmt.Println("Next steps:")
	fmt.Println("  mcwatch monitor   - Watch the server")
	fmt.Println("  mcwatch backup    - Archive the world now")

	return nil
}

func promptInit(a *initAnswers) error {
	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}
	duration := func(s string) error {
		_, err := config.ParseDuration(s)
		return err
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server address").
				Description("Where the Bedrock server answers status pings").
				Value(&a.ServerIP).
				Validate(required("server address")),
			huh.NewInput().
				Title("Server port").
				Value(&a.ServerPort).
				Validate(func(s string) error {
					p, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || p < 1 || p > 65535 {
						return fmt.Errorf("port must be between 1 and 65535")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Idle timeout").
				Description("Stop the server after nobody has been online this long (e.g. 10m, 1h, off)").
				Value(&a.ServerTimeout).
				Validate(duration),
			huh.NewConfirm().
				Title("Power off the host after the server stops?").
				Value(&a.AutomaticShutdown),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Compose file (optional)").
				Description("Leave empty to use docker compose's default lookup").
				Value(&a.ComposeFile),
			huh.NewInput().
				Title("World name").
				Description("The level-name from server.properties").
				Value(&a.WorldName),
			huh.NewInput().
				Title("Backup interval").
				Description("How often to archive the world while monitoring (e.g. 6h, off)").
				Value(&a.BackupInterval).
				Validate(duration),
		),
	)
	return form.Run()
}
