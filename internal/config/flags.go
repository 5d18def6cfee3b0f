package config

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds command-line overrides. Zero values leave the config untouched.
type Flags struct {
	Config  string
	Debug   bool
	Grid    float64
	Axes    string
	UV      int
	Workers int
	Out     string
	Format  string
	Gizmo   bool
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.Float64Var(&f.Grid, "grid", 0, "Grid cell size")
	fs.StringVar(&f.Axes, "axes", "", "Axes to split along, e.g. xz")
	fs.IntVar(&f.UV, "uv", -1, "Number of UV channels consumers interpret (0-8)")
	fs.IntVar(&f.Workers, "workers", 0, "Build workers (0 = one per CPU)")
	fs.StringVar(&f.Out, "out", "", "Output directory")
	fs.StringVar(&f.Format, "format", "", "Output format: obj or msb")
	fs.BoolVar(&f.Gizmo, "gizmo", false, "Also write grid.obj wireframes")
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Grid > 0 {
		cfg.Split.GridSize = float32(f.Grid)
	}
	if f.Axes != "" {
		axes, err := parseAxes(f.Axes)
		if err != nil {
			return err
		}
		cfg.Split.SplitAxes = axes
	}
	if f.UV >= 0 {
		cfg.Split.UVChannels = f.UV
	}
	if f.Workers > 0 {
		cfg.Build.Workers = f.Workers
	}
	if f.Out != "" {
		cfg.Output.Dir = f.Out
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.Gizmo {
		cfg.Output.Gizmo = true
	}
	return nil
}

// parseAxes turns a string such as "xz" into an axis selection.
func parseAxes(s string) (AxesConfig, error) {
	var a AxesConfig
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'x':
			a.X = true
		case 'y':
			a.Y = true
		case 'z':
			a.Z = true
		default:
			return AxesConfig{}, fmt.Errorf("invalid axis %q in %q", r, s)
		}
	}
	return a, nil
}
