// Package cli implements the cobra command surface for difyrun.
//
// Commands call into the driving ports only; the concrete services are
// injected once from main via SetServices before Execute runs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/7and1/difyrun/internal/core/ports/driving"
	"github.com/7and1/difyrun/internal/logger"
)

// version is set by Execute from the build's version string.
var version = "dev"

// Injected driving ports. Nil until SetServices runs; every command
// guards against that so tests can execute commands unwired.
var (
	catalogSyncer    driving.CatalogSyncer
	sourceManager    driving.SourceManager
	catalogScheduler driving.Scheduler

	// watchSources, when set, watches the sources file for edits and
	// blocks until the context ends. The watch command runs it
	// alongside the scheduler.
	watchSources func(ctx context.Context)
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "difyrun",
	Short: "Sync Dify workflow templates from GitHub into a local catalog",
	Long: `difyrun walks configured GitHub repositories for Dify DSL files,
parses and classifies each workflow, and reconciles the results into a
local catalog. Unchanged files are skipped, new ones are added, and
modified ones are updated in place.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")
}

// Services holds the driving ports the commands depend on.
type Services struct {
	Syncer    driving.CatalogSyncer
	Sources   driving.SourceManager
	Scheduler driving.Scheduler

	// WatchSources watches the sources file and blocks until the
	// context is cancelled. Optional; only the watch command uses it.
	WatchSources func(ctx context.Context)
}

// SetServices wires the commands to their backing services.
func SetServices(s Services) {
	catalogSyncer = s.Syncer
	sourceManager = s.Sources
	catalogScheduler = s.Scheduler
	watchSources = s.WatchSources
}

// Execute runs the root command with the given build version.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	return rootCmd.Execute()
}
