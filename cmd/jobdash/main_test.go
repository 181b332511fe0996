package main

import (
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iafilius/JobAnalytics/src/config"
	"github.com/iafilius/JobAnalytics/src/export"
)

const analyticsBody = `{"top_skills":{"Python":10,"SQL":7},"jobs_by_city":{"Austin":4},"jobs_by_week":{"2024-W01":4},"sentiment_by_city":{"Austin":0.3}}`

func analyticsServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		uris []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uris = append(uris, r.URL.RequestURI())
		mu.Unlock()
		_, _ = w.Write([]byte(analyticsBody))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), uris...)
	}
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv(config.EnvConfigFile, "")
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestExportCommand(t *testing.T) {
	srv, requested := analyticsServer(t)
	out := t.TempDir()

	err := runCLI(t, "export", "--endpoint", srv.URL, "--city", "Austin", "--out", out, "--xlsx", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, []string{"/analytics/data?city=&type=", "/analytics/data?city=Austin&type="}, requested())

	f, err := os.Open(filepath.Join(out, export.Filename))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, export.CanvasWidth, cfg.Width)
	assert.Equal(t, export.CanvasHeight, cfg.Height)

	wb, err := excelize.OpenFile(filepath.Join(out, export.WorkbookFilename))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("Top Skills", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Python", v)
}

func TestExportCommand_PageSkipsInitialFetch(t *testing.T) {
	srv, requested := analyticsServer(t)
	out := t.TempDir()
	page := filepath.Join(t.TempDir(), "analytics.html")
	html := `<script id="analytics-bootstrap" type="application/json">` + analyticsBody + `</script>`
	require.NoError(t, os.WriteFile(page, []byte(html), 0o644))

	require.NoError(t, runCLI(t, "export", "--endpoint", srv.URL, "--page", page, "--out", out))
	assert.Empty(t, requested())
	assert.FileExists(t, filepath.Join(out, export.Filename))
	assert.NoFileExists(t, filepath.Join(out, export.WorkbookFilename))
}

func TestExportCommand_Errors(t *testing.T) {
	t.Run("invalid endpoint", func(t *testing.T) {
		err := runCLI(t, "export", "--endpoint", "not a url", "--out", t.TempDir())
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("upstream down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}))
		defer srv.Close()
		out := t.TempDir()
		err := runCLI(t, "export", "--endpoint", srv.URL, "--out", out)
		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join(out, export.Filename))
	})
}
