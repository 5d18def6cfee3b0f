package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshsplit/internal/config"
	"github.com/Faultbox/meshsplit/internal/debug"
	"github.com/Faultbox/meshsplit/pkg/formats"
	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

// input is a mesh loaded from disk.
type input struct {
	Name     string
	Mesh     *meshsplit.SourceMesh
	Warnings []string
}

// loadInput reads an OBJ or MSB file, chosen by extension.
func loadInput(path string) (*input, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		obj, err := formats.ReadOBJFile(path)
		if err != nil {
			return nil, err
		}
		name := obj.Name
		if name == "" {
			name = base
		}
		return &input{Name: name, Mesh: obj.Mesh, Warnings: obj.Warnings}, nil
	case ".msb":
		m, err := formats.ReadMSBFile(path)
		if err != nil {
			return nil, err
		}
		src, err := formats.SourceFromMSB(m)
		if err != nil {
			return nil, err
		}
		name := m.Name
		if name == "" {
			name = base
		}
		return &input{Name: name, Mesh: src}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .obj or .msb)", filepath.Ext(path))
	}
}

// cellFileName names the output file of the cell at key.
func cellFileName(key meshsplit.GridKey, format string) string {
	return fmt.Sprintf("cell_%d_%d_%d.%s", key.X, key.Y, key.Z, format)
}

// writeOutputs writes one file per mesh and returns the bytes written.
func writeOutputs(cfg *config.Config, meshes []meshsplit.SubMesh, params meshsplit.Parameters) (int64, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return 0, err
	}

	var total int64
	for i := range meshes {
		path := filepath.Join(cfg.Output.Dir, cellFileName(meshes[i].Key, cfg.Output.Format))
		var err error
		switch cfg.Output.Format {
		case "msb":
			err = formats.WriteMSBFile(path, &meshes[i], cfg.Output.Compress)
		default:
			err = writeOBJFile(path, meshes[i:i+1], params)
		}
		if err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}
		if st, err := os.Stat(path); err == nil {
			total += st.Size()
		}
	}
	return total, nil
}

func writeOBJFile(path string, meshes []meshsplit.SubMesh, params meshsplit.Parameters) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := formats.WriteOBJ(f, meshes, params); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeGizmo writes the grid cells over the source bounds and the bounds of
// every output as OBJ lines.
func writeGizmo(path string, src *meshsplit.SourceMesh, meshes []meshsplit.SubMesh, params meshsplit.Parameters) (int64, error) {
	grid := debug.GridWireframe(positionBounds(src), params.GridSize, params.SplitAxes)
	sets := []formats.LineSet{{Name: grid.Name, Vertices: grid.Vertices}}
	for _, w := range debug.MeshBounds(meshes) {
		sets = append(sets, formats.LineSet{Name: "bounds " + w.Name, Vertices: w.Vertices})
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if err := formats.WriteOBJLines(f, sets...); err != nil {
		f.Close()
		return 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	return st.Size(), f.Close()
}

// positionBounds returns the box around every source position.
func positionBounds(m *meshsplit.SourceMesh) math.AABB {
	b := math.EmptyAABB()
	for _, p := range m.Positions {
		b.Extend(p)
	}
	return b
}
