package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/iafilius/JobAnalytics/src/export"
	"github.com/iafilius/JobAnalytics/src/refresh"
	"github.com/iafilius/JobAnalytics/src/types"
)

// terminalSpinner shows a pterm spinner while a request is in flight.
type terminalSpinner struct {
	mu sync.Mutex
	sp *pterm.SpinnerPrinter
}

func (t *terminalSpinner) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sp != nil {
		return
	}
	sp, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Loading analytics")
	if err == nil {
		t.sp = sp
	}
}

func (t *terminalSpinner) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sp == nil {
		return
	}
	_ = t.sp.Stop()
	t.sp = nil
}

type terminalNotifier struct{}

func (terminalNotifier) Warn(msg string) { pterm.Warning.Println(msg) }
func (terminalNotifier) Fail(msg string) { pterm.Error.Println(msg) }

func newExportCmd(rf *rootFlags) *cobra.Command {
	var (
		filters  types.FilterState
		outDir   string
		workbook bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the charts once and write job-analytics.png",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, rf)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.OutDir = outDir
			}
			d, err := newDashboard(cfg,
				refresh.WithSpinner(&terminalSpinner{}),
				refresh.WithNotifier(terminalNotifier{}),
			)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := d.start(ctx); err != nil {
				return err
			}
			if !filters.IsZero() {
				if _, err := d.ctrl.Refresh(ctx, filters); err != nil {
					return err
				}
			}

			path, err := export.WriteFile(cfg.OutDir, d.registry)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %s", path)

			if workbook {
				p, _ := d.ctrl.Last()
				xlsx := filepath.Join(cfg.OutDir, export.WorkbookFilename)
				if err := writeWorkbookFile(xlsx, p); err != nil {
					return err
				}
				pterm.Success.Printfln("Wrote %s", xlsx)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filters.City, "city", "", "City filter")
	cmd.Flags().StringVar(&filters.Type, "type", "", "Job type filter")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&workbook, "xlsx", false, "Also write the datasets as an Excel workbook")
	return cmd
}

func writeWorkbookFile(path string, p types.Payload) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteWorkbook(f, p); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
