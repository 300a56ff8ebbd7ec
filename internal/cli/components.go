package cli

import (
	"github.com/rileyhilliard/mcwatch/internal/compose"
	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/logtail"
	"github.com/rileyhilliard/mcwatch/internal/power"
	"github.com/rileyhilliard/mcwatch/internal/probe"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
)

// components are the collaborators a command drives. Tests swap them for
// fakes.
type components struct {
	Prober  probe.Prober
	Runtime shutdown.ContainerRuntime
	Logs    logtail.Source // nil disables the log panel
	Power   shutdown.PowerController
}

// newComponents builds the real collaborators for cfg.
func newComponents(cfg *config.Config) components {
	project := compose.NewProject(
		compose.WithFile(cfg.ComposeFile),
		compose.WithProjectName(cfg.ComposeProject),
		compose.WithService(cfg.ComposeService),
	)

	return components{
		Prober:  probe.NewBedrockProber(cfg.ServerIP, cfg.ServerPort, probe.WithTimeout(cfg.ProbeTimeout)),
		Runtime: project,
		Logs:    project,
		Power:   power.NewController(),
	}
}
