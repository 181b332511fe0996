// Package config defines the dashboard configuration and its layered loader.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Endpoint is the base URL of the analytics service, e.g. "http://localhost:5051".
	Endpoint string `koanf:"endpoint"`

	// DataPath is the path of the filtered analytics route on Endpoint.
	DataPath string `koanf:"data_path"`

	// RequestTimeoutMS bounds one analytics request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Addr configures the HTTP listen address of the dashboard, e.g. ":8090".
	Addr string `koanf:"addr"`

	// ChartWidth and ChartHeight size every rendered chart surface.
	ChartWidth  int `koanf:"chart_width"`
	ChartHeight int `koanf:"chart_height"`

	// OutDir receives exported images and workbooks.
	OutDir string `koanf:"out_dir"`

	// Page optionally points at a host HTML page carrying the initial datasets.
	Page string `koanf:"page"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Endpoint:         "http://localhost:5051",
		DataPath:         "/analytics/data",
		RequestTimeoutMS: 10_000,
		Addr:             ":8090",
		ChartWidth:       600,
		ChartHeight:      400,
		OutDir:           ".",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
