package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/doctor"
	"github.com/rileyhilliard/mcwatch/internal/lock"
	"github.com/rileyhilliard/mcwatch/internal/ui"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that everything a monitor run needs is in place",
	Long: `Run diagnostic checks on the config, docker, the Bedrock server, and
power-off support, and print what needs fixing.

Examples:
  mcwatch doctor
  mcwatch doctor --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			// The config checks report the load error.
			cfg = config.DefaultConfig()
		}
		return runDoctor(cmd.Context(), cfgFile, cfg, newComponents(cfg), "", cmd.OutOrStdout(), doctorJSON)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// collectChecks gathers the diagnostic checks for cfg.
func collectChecks(cfgPath string, cfg *config.Config, deps components, lockDir string) []doctor.Check {
	return []doctor.Check{
		&doctor.ConfigFileCheck{ConfigPath: cfgPath},
		&doctor.ConfigValidCheck{ConfigPath: cfgPath},
		&doctor.WorldCheck{Config: cfg},
		&doctor.DockerCheck{Runtime: deps.Runtime, Project: cfg.ComposeProject},
		&doctor.PowerCheck{GOOS: runtime.GOOS, Enabled: cfg.AutomaticShutdown},
		&doctor.ServerCheck{Prober: deps.Prober, Address: cfg.Address()},
		&doctor.MonitorLockCheck{Dir: lockDir, LockName: lock.Name(cfg.Address(), cfg.ComposeProject)},
	}
}

// groupResults buckets results by category in report order.
func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}

	out := make([]CategoryOutput, 0, len(grouped))
	for _, cat := range doctor.Categories {
		if rs, ok := grouped[cat]; ok {
			out = append(out, CategoryOutput{Name: cat, Results: rs})
		}
	}
	return out
}

// outputDoctorJSON outputs results in JSON format.
func outputDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Categories: groupResults(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// outputDoctorText outputs results in human-readable format.
func outputDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("mcwatch Diagnostic Report"))
	fmt.Fprintln(w)

	for _, category := range groupResults(checks, results) {
		fmt.Fprintln(w, headerStyle.Render(category.Name))
		for _, result := range category.Results {
			symbol, style := ui.SymbolComplete, successStyle
			switch result.Status {
			case doctor.StatusWarn:
				style = warnStyle
			case doctor.StatusFail:
				symbol, style = ui.SymbolFail, errorStyle
			}

			fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)
			if result.Suggestion != "" && result.Status != doctor.StatusPass {
				for _, line := range strings.Split(result.Suggestion, "\n") {
					fmt.Fprintf(w, "    %s\n", mutedStyle.Render(line))
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	symbol, style := ui.SymbolComplete, successStyle
	if doctor.HasIssues(results) {
		symbol, style = ui.SymbolFail, errorStyle
	}
	fmt.Fprintf(w, "%s %s\n\n", style.Render(symbol), doctor.Summary(results))
}

// runDoctor is the doctor command body with injectable collaborators.
func runDoctor(ctx context.Context, cfgPath string, cfg *config.Config, deps components, lockDir string, w io.Writer, asJSON bool) error {
	checks := collectChecks(cfgPath, cfg, deps, lockDir)
	results := doctor.RunAllParallel(ctx, checks)
	if asJSON {
		return outputDoctorJSON(w, checks, results)
	}
	outputDoctorText(w, checks, results)
	return nil
}
