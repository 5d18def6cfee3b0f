package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/meshsplit/internal/config"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

const quadsOBJ = `v 0 0 0
v 1 0 0
v 1 0 1
v 40 0 0
v 41 0 0
v 41 0 1
f 1 2 3
f 4 5 6
`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quads.obj")
	if err := os.WriteFile(path, []byte(quadsOBJ), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func TestLoadInputOBJ(t *testing.T) {
	in, err := loadInput(writeInput(t))
	if err != nil {
		t.Fatalf("loadInput: %v", err)
	}
	if in.Name != "quads" {
		t.Errorf("expected name from file base 'quads', got %q", in.Name)
	}
	if in.Mesh.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", in.Mesh.TriangleCount())
	}
}

func TestLoadInputUnsupported(t *testing.T) {
	if _, err := loadInput("mesh.fbx"); err == nil {
		t.Error("expected error for .fbx input")
	}
}

func TestCellFileName(t *testing.T) {
	got := cellFileName(meshsplit.GridKey{X: -16, Y: 0, Z: 32}, "msb")
	if got != "cell_-16_0_32.msb" {
		t.Errorf("unexpected file name %q", got)
	}
}

func TestWriteOutputs(t *testing.T) {
	in, err := loadInput(writeInput(t))
	if err != nil {
		t.Fatalf("loadInput: %v", err)
	}
	params := meshsplit.DefaultParameters()
	meshes, err := meshsplit.Split(context.Background(), in.Mesh, params)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	for _, format := range []string{"obj", "msb"} {
		t.Run(format, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
			cfg.Output.Format = format
			cfg.Output.Compress = true

			n, err := writeOutputs(cfg, meshes, params)
			if err != nil {
				t.Fatalf("writeOutputs: %v", err)
			}
			if n == 0 {
				t.Error("expected bytes written")
			}

			entries, _ := os.ReadDir(cfg.Output.Dir)
			if len(entries) != len(meshes) {
				t.Fatalf("expected %d files, got %d", len(meshes), len(entries))
			}

			// Every written cell loads back as input
			for _, e := range entries {
				back, err := loadInput(filepath.Join(cfg.Output.Dir, e.Name()))
				if err != nil {
					t.Fatalf("reloading %s: %v", e.Name(), err)
				}
				if back.Mesh.TriangleCount() != 1 {
					t.Errorf("%s: expected 1 triangle, got %d", e.Name(), back.Mesh.TriangleCount())
				}
			}
		})
	}
}

func TestWriteGizmo(t *testing.T) {
	in, err := loadInput(writeInput(t))
	if err != nil {
		t.Fatalf("loadInput: %v", err)
	}
	params := meshsplit.DefaultParameters()
	meshes, err := meshsplit.Split(context.Background(), in.Mesh, params)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	path := filepath.Join(t.TempDir(), "grid.obj")
	n, err := writeGizmo(path, in.Mesh, meshes, params)
	if err != nil {
		t.Fatalf("writeGizmo: %v", err)
	}

	data, _ := os.ReadFile(path)
	if int64(len(data)) != n {
		t.Errorf("reported %d bytes, file has %d", n, len(data))
	}
	if !strings.Contains(string(data), "o grid\n") {
		t.Error("expected grid object")
	}
	if strings.Count(string(data), "o bounds_SubMesh") != len(meshes) {
		t.Errorf("expected %d bounds objects", len(meshes))
	}
}
