// Package config handles meshsplit configuration loading and management.
package config

import (
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

// Config holds all meshsplit settings.
type Config struct {
	Split   SplitConfig   `yaml:"split"`
	Build   BuildConfig   `yaml:"build"`
	Scene   SceneConfig   `yaml:"scene"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// AxesConfig selects the axes the grid splits along.
type AxesConfig struct {
	X bool `yaml:"x"`
	Y bool `yaml:"y"`
	Z bool `yaml:"z"`
}

// SplitConfig holds grid and vertex channel settings.
type SplitConfig struct {
	GridSize         float32    `yaml:"grid_size"`
	SplitAxes        AxesConfig `yaml:"split_axes"`
	UVChannels       int        `yaml:"uv_channels"` // 0-8
	UseVertexNormals bool       `yaml:"use_vertex_normals"`
	UseVertexColors  bool       `yaml:"use_vertex_colors"`
}

// BuildConfig holds parallel build tuning.
type BuildConfig struct {
	Workers   int `yaml:"workers"`    // 0 = one per CPU
	ChunkSize int `yaml:"chunk_size"` // 0 = automatic
}

// SceneConfig holds settings applied when output meshes become scene entities.
type SceneConfig struct {
	UseParentLayer            bool   `yaml:"use_parent_layer"`
	UseParentStaticFlag       bool   `yaml:"use_parent_static_flag"`
	UseParentRendererSettings bool   `yaml:"use_parent_renderer_settings"`
	GenerateColliders         bool   `yaml:"generate_colliders"`
	ColliderShape             string `yaml:"collider_shape"` // mesh or box
	ConvexColliders           bool   `yaml:"convex_colliders"`
}

// OutputConfig holds where and how split meshes are written.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Format   string `yaml:"format"`   // obj or msb
	Compress bool   `yaml:"compress"` // zstd payloads, msb only
	Gizmo    bool   `yaml:"gizmo"`    // also write grid.obj with cell and bounds wireframes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	p := meshsplit.DefaultParameters()
	return &Config{
		Split: SplitConfig{
			GridSize:         p.GridSize,
			SplitAxes:        AxesConfig{X: p.SplitAxes.X, Y: p.SplitAxes.Y, Z: p.SplitAxes.Z},
			UVChannels:       p.UVChannels,
			UseVertexNormals: p.UseVertexNormals,
			UseVertexColors:  p.UseVertexColors,
		},
		Build: BuildConfig{
			Workers:   0,
			ChunkSize: 0,
		},
		Scene: SceneConfig{
			UseParentLayer:            p.UseParentLayer,
			UseParentStaticFlag:       p.UseParentStaticFlag,
			UseParentRendererSettings: p.UseParentRendererSettings,
			GenerateColliders:         p.GenerateColliders,
			ColliderShape:             string(p.ColliderShape),
			ConvexColliders:           p.UseConvexColliders,
		},
		Output: OutputConfig{
			Dir:      "split",
			Format:   "obj",
			Compress: false,
			Gizmo:    false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// SplitParameters converts the config to splitter parameters.
func (c *Config) SplitParameters() meshsplit.Parameters {
	return meshsplit.Parameters{
		GridSize:                  c.Split.GridSize,
		SplitAxes:                 meshsplit.Axes{X: c.Split.SplitAxes.X, Y: c.Split.SplitAxes.Y, Z: c.Split.SplitAxes.Z},
		UVChannels:                c.Split.UVChannels,
		UseVertexNormals:          c.Split.UseVertexNormals,
		UseVertexColors:           c.Split.UseVertexColors,
		UseParentLayer:            c.Scene.UseParentLayer,
		UseParentStaticFlag:       c.Scene.UseParentStaticFlag,
		UseParentRendererSettings: c.Scene.UseParentRendererSettings,
		GenerateColliders:         c.Scene.GenerateColliders,
		ColliderShape:             meshsplit.ColliderShape(c.Scene.ColliderShape),
		UseConvexColliders:        c.Scene.ConvexColliders,
	}
}

// SplitOptions converts the build section to splitter options.
func (c *Config) SplitOptions() []meshsplit.Option {
	return []meshsplit.Option{
		meshsplit.WithWorkers(c.Build.Workers),
		meshsplit.WithChunkSize(c.Build.ChunkSize),
	}
}
