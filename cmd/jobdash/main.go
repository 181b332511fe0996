// Command jobdash serves the job analytics dashboard over HTTP and exports
// its charts headlessly.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iafilius/JobAnalytics/src/bootstrap"
	"github.com/iafilius/JobAnalytics/src/charts"
	"github.com/iafilius/JobAnalytics/src/config"
	"github.com/iafilius/JobAnalytics/src/logging"
	"github.com/iafilius/JobAnalytics/src/refresh"
	"github.com/iafilius/JobAnalytics/src/types"
)

var logger = logging.For("jobdash")

type rootFlags struct {
	configPath string
	endpoint   string
	logLevel   string
	page       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:          "jobdash",
		Short:        "Job analytics dashboard",
		Long:         "jobdash renders the job analytics charts from the analytics service, refreshes them on filter changes and exports them as one image.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&rf.configPath, "config", "", "YAML config file (default $"+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&rf.endpoint, "endpoint", "", "Base URL of the analytics service")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&rf.page, "page", "", "Host HTML page carrying the initial datasets")

	root.AddCommand(newServeCmd(rf), newExportCmd(rf))
	return root
}

// loadConfig layers the persistent flags over the koanf config.
func loadConfig(cmd *cobra.Command, rf *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), rf.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = rf.endpoint
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rf.logLevel
	}
	if flags.Changed("page") {
		cfg.Page = rf.page
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

// dashboard is the wiring shared by both sub-commands.
type dashboard struct {
	cfg      *config.Config
	registry *charts.Registry
	ctrl     *refresh.Controller
	options  bootstrap.FilterOptions
	seed     *types.Payload
}

func newDashboard(cfg *config.Config, opts ...refresh.Option) (*dashboard, error) {
	client, err := refresh.NewClient(cfg.Endpoint, cfg.RequestTimeout(), refresh.WithDataPath(cfg.DataPath))
	if err != nil {
		return nil, err
	}
	d := &dashboard{
		cfg:      cfg,
		registry: charts.NewRegistry(charts.WithSize(cfg.ChartWidth, cfg.ChartHeight)),
	}
	if cfg.Page != "" {
		page, err := bootstrap.FromFile(cfg.Page)
		if err != nil {
			return nil, fmt.Errorf("read host page: %w", err)
		}
		d.seed = &page.Payload
		d.options = page.Options
	}
	opts = append([]refresh.Option{refresh.WithTimeout(cfg.RequestTimeout())}, opts...)
	d.ctrl = refresh.NewController(client, d.registry, opts...)
	return d, nil
}

func (d *dashboard) start(ctx context.Context) error {
	defer logger.TimeTrack(time.Now(), "bootstrap")
	return d.ctrl.Initialize(ctx, d.seed)
}
