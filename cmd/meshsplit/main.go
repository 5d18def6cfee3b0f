// meshsplit is a CLI for cutting meshes into grid-cell pieces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/meshsplit/internal/config"
	"github.com/Faultbox/meshsplit/internal/instrument"
	"github.com/Faultbox/meshsplit/internal/logger"
	"github.com/Faultbox/meshsplit/internal/scene"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "split":
		cmdSplit(args)
	case "info":
		cmdInfo(args)
	case "grid":
		cmdGrid(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshsplit - split a mesh into one mesh per grid cell

Usage:
  meshsplit <command> [options]

Commands:
  split [options] <mesh.obj|mesh.msb>  Split a mesh and write one file per cell
  info <mesh.obj|mesh.msb>             Show mesh layout and statistics
  grid [options] <mesh.obj|mesh.msb>   Show which cells a split would produce
  config [options] [-save]             Print the effective config; -save stores it
  help                                 Show this help

Options (split, grid, config):
  -config <file>   Config file (default ./meshsplit.yaml)
  -grid <size>     Grid cell size (>= 0.1)
  -axes <xyz>      Axes to split along, e.g. xz
  -uv <n>          UV channels written to OBJ output (0-8)
  -workers <n>     Build workers (0 = one per CPU)
  -out <dir>       Output directory
  -format <fmt>    obj or msb
  -gizmo           Also write grid.obj with cell and bounds wireframes
  -debug           Enable debug logging

Examples:
  meshsplit split -grid 32 -axes xz terrain.obj
  meshsplit split -format msb -out tiles terrain.obj
  meshsplit info tiles/cell_0_0_32.msb
  meshsplit config -grid 32 -format msb -save`)
}

// setup parses flags, loads config and starts logging.
func setup(name string, args []string) (*config.Config, *flag.FlagSet) {
	var flags config.Flags
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags.Register(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: meshsplit %s [options] <mesh.obj|mesh.msb>\n", name)
		os.Exit(1)
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	return cfg, fs
}

func cmdSplit(args []string) {
	cfg, fs := setup("split", args)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	input := fs.Arg(0)
	in, err := loadInput(input)
	if err != nil {
		logger.Error("failed to load mesh", zap.String("path", input), zap.Error(err))
		os.Exit(1)
	}
	for _, w := range in.Warnings {
		logger.Warn("obj", zap.String("warning", w))
	}

	params := cfg.SplitParameters()
	tracer := instrument.NewSpanTracer(logger.Named("trace"))
	opts := append(cfg.SplitOptions(),
		meshsplit.WithTracer(tracer),
		meshsplit.WithLogger(logger.Named("split")),
	)

	start := time.Now()
	meshes, err := meshsplit.Split(ctx, in.Mesh, params, opts...)
	if err != nil {
		logger.Error("split failed", zap.String("path", input), zap.Error(err))
		os.Exit(1)
	}
	elapsed := time.Since(start)

	entities, err := scene.Build(scene.Parent{Name: in.Name}, meshes, params)
	if err != nil {
		logger.Error("scene build failed", zap.Error(err))
		os.Exit(1)
	}
	colliders := 0
	for _, e := range entities {
		if e.Collider != nil {
			colliders++
		}
		logger.Debug("entity",
			zap.String("name", e.Name),
			zap.Int("triangles", e.Mesh.TriangleCount()),
			zap.Int("channels", len(e.Channels)))
	}

	written, err := writeOutputs(cfg, meshes, params)
	if err != nil {
		logger.Error("failed to write output", zap.String("dir", cfg.Output.Dir), zap.Error(err))
		os.Exit(1)
	}
	if cfg.Output.Gizmo {
		path := filepath.Join(cfg.Output.Dir, "grid.obj")
		n, err := writeGizmo(path, in.Mesh, meshes, params)
		if err != nil {
			logger.Error("failed to write gizmo", zap.String("path", path), zap.Error(err))
			os.Exit(1)
		}
		written += n
	}

	fmt.Printf("Input:     %s (%s triangles)\n", input, humanize.Comma(int64(in.Mesh.TriangleCount())))
	fmt.Printf("Cells:     %d\n", len(meshes))
	fmt.Printf("Entities:  %d (%d colliders)\n", len(entities), colliders)
	fmt.Printf("Bucketize: %v\n", tracer.Total(meshsplit.SpanBucketize))
	fmt.Printf("Build:     %v\n", tracer.Total(meshsplit.SpanBuild))
	fmt.Printf("Total:     %v\n", elapsed)
	fmt.Printf("Written:   %s to %s\n", humanize.Bytes(uint64(written)), cfg.Output.Dir)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshsplit info <mesh.obj|mesh.msb>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	in, err := loadInput(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m := in.Mesh

	var size int64
	if st, err := os.Stat(path); err == nil {
		size = st.Size()
	}
	bounds := positionBounds(m)

	fmt.Printf("File:      %s (%s)\n", path, humanize.Bytes(uint64(size)))
	if in.Name != "" {
		fmt.Printf("Name:      %s\n", in.Name)
	}
	fmt.Printf("Vertices:  %s\n", humanize.Comma(int64(m.VertexCount)))
	fmt.Printf("Triangles: %s\n", humanize.Comma(int64(m.TriangleCount())))
	fmt.Printf("Stride:    %d bytes (%s vertex data)\n", m.Stride(), humanize.Bytes(uint64(len(m.VertexBuffer))))
	fmt.Printf("Bounds:    %v - %v\n", bounds.Min, bounds.Max)
	fmt.Println()
	fmt.Println("Attributes:")
	for _, a := range m.Layout.Attributes {
		fmt.Printf("  %s\n", a)
	}
}

func cmdGrid(args []string) {
	cfg, fs := setup("grid", args)
	defer logger.Sync()

	input := fs.Arg(0)
	in, err := loadInput(input)
	if err != nil {
		logger.Error("failed to load mesh", zap.String("path", input), zap.Error(err))
		os.Exit(1)
	}
	if err := in.Mesh.Validate(); err != nil {
		logger.Error("invalid mesh", zap.Error(err))
		os.Exit(1)
	}

	params := cfg.SplitParameters()
	buckets, err := meshsplit.Bucketize(in.Mesh.Indices, in.Mesh.Positions, params.GridSize, params.SplitAxes)
	if err != nil {
		logger.Error("bucketize failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Grid size: %g, axes: %s\n", params.GridSize, axesString(params.SplitAxes))
	fmt.Printf("Cells:     %d\n\n", len(buckets))
	for _, b := range buckets {
		fmt.Printf("  %-24s %s triangles\n", b.Key, humanize.Comma(int64(b.TriangleCount())))
	}
}

func cmdConfig(args []string) {
	var flags config.Flags
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags.Register(fs)
	save := fs.Bool("save", false, "Write the effective config to the user config file")
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)

	if *save {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", config.UserConfigPath())
	}
}

func axesString(a meshsplit.Axes) string {
	s := ""
	if a.X {
		s += "x"
	}
	if a.Y {
		s += "y"
	}
	if a.Z {
		s += "z"
	}
	return s
}
