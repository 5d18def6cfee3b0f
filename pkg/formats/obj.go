package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

// OBJ format errors.
var (
	ErrInvalidOBJFace  = errors.New("invalid OBJ face")
	ErrInvalidOBJIndex = errors.New("OBJ index out of range")
	ErrEmptyOBJ        = errors.New("OBJ has no vertices")
)

// OBJ is a parsed Wavefront OBJ file flattened into one interleaved mesh.
type OBJ struct {
	Name     string // first object or group name
	Mesh     *meshsplit.SourceMesh
	Warnings []string // unsupported statements, with line numbers
}

// objCorner is one face corner: 0-based position, uv and normal indices.
// Missing uv or normal indices are -1.
type objCorner [3]int

type objDecoder struct {
	name      string
	positions []math.Vec3
	colors    [][4]float32 // parallel to positions
	hasColor  bool
	normals   []math.Vec3
	uvs       [][2]float32
	corners   []objCorner // triangulated, 3 per triangle
	warnings  []string
	line      int
}

// ReadOBJ parses an OBJ stream. Polygons are fan-triangulated and every
// distinct position/uv/normal combination becomes one vertex record.
// Vertex colors written as "v x y z r g b" become an RGBA Color channel;
// positions without a color read as opaque white.
func ReadOBJ(r io.Reader) (*OBJ, error) {
	dec := &objDecoder{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		dec.line++
		if err := dec.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", dec.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dec.build()
}

// ReadOBJFile reads and parses an OBJ file from disk.
func ReadOBJFile(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ReadOBJ(f)
}

func (dec *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "v":
		n := 3
		if len(fields) >= 7 {
			n = 6
		}
		v, err := parseFloats(fields[1:], n)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		dec.positions = append(dec.positions, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
		c := [4]float32{1, 1, 1, 1}
		if n == 6 {
			c = [4]float32{v[3], v[4], v[5], 1}
			dec.hasColor = true
		}
		dec.colors = append(dec.colors, c)
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		dec.normals = append(dec.normals, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return fmt.Errorf("texcoord: %w", err)
		}
		dec.uvs = append(dec.uvs, [2]float32{v[0], v[1]})
	case "f":
		return dec.parseFace(fields[1:])
	case "o", "g":
		if dec.name == "" && len(fields) > 1 {
			dec.name = fields[1]
		}
	case "s", "usemtl", "mtllib", "l":
		// Accepted but not carried into the mesh
	default:
		dec.warnings = append(dec.warnings, fmt.Sprintf("line %d: unsupported statement %q", dec.line, fields[0]))
	}
	return nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i, f := range fields[:n] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseFace parses f v1[/vt1][/vn1] v2[/vt2][/vn2] v3[/vt3][/vn3] ...
func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%w: %d corners", ErrInvalidOBJFace, len(fields))
	}
	corners := make([]objCorner, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		if len(parts) > 3 {
			return fmt.Errorf("%w: corner %q", ErrInvalidOBJFace, f)
		}
		c := objCorner{-1, -1, -1}
		counts := [3]int{len(dec.positions), len(dec.uvs), len(dec.normals)}
		for k, p := range parts {
			if p == "" {
				if k == 0 {
					return fmt.Errorf("%w: corner %q has no position", ErrInvalidOBJFace, f)
				}
				continue
			}
			idx, err := resolveIndex(p, counts[k])
			if err != nil {
				return err
			}
			c[k] = idx
		}
		corners[i] = c
	}
	for i := 1; i+1 < len(corners); i++ {
		dec.corners = append(dec.corners, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// resolveIndex converts a 1-based or negative relative OBJ index to 0-based.
func resolveIndex(s string, count int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOBJFace, s)
	}
	idx := v - 1
	if v < 0 {
		idx = count + v
	}
	if v == 0 || idx < 0 || idx >= count {
		return 0, fmt.Errorf("%w: %d with %d defined", ErrInvalidOBJIndex, v, count)
	}
	return idx, nil
}

// build interleaves the parsed data into a SourceMesh.
func (dec *objDecoder) build() (*OBJ, error) {
	if len(dec.positions) == 0 {
		return nil, ErrEmptyOBJ
	}
	attrs := []meshsplit.AttributeDescriptor{
		{Attribute: meshsplit.AttrPosition, Format: meshsplit.FormatFloat32, Dimension: 3},
	}
	if len(dec.normals) > 0 {
		attrs = append(attrs, meshsplit.AttributeDescriptor{Attribute: meshsplit.AttrNormal, Format: meshsplit.FormatFloat32, Dimension: 3})
	}
	if dec.hasColor {
		attrs = append(attrs, meshsplit.AttributeDescriptor{Attribute: meshsplit.AttrColor, Format: meshsplit.FormatFloat32, Dimension: 4})
	}
	if len(dec.uvs) > 0 {
		attrs = append(attrs, meshsplit.AttributeDescriptor{Attribute: meshsplit.AttrTexCoord0, Format: meshsplit.FormatFloat32, Dimension: 2})
	}
	layout := meshsplit.NewLayout(attrs...)

	vertexOf := make(map[objCorner]uint32)
	var unique []objCorner
	indices := make([]uint32, len(dec.corners))
	for i, c := range dec.corners {
		v, ok := vertexOf[c]
		if !ok {
			v = uint32(len(unique))
			vertexOf[c] = v
			unique = append(unique, c)
		}
		indices[i] = v
	}

	buf := make([]byte, len(unique)*layout.Stride)
	for v, c := range unique {
		p := dec.positions[c[0]]
		layout.Encode(buf, v, meshsplit.AttrPosition, [4]float32{p.X, p.Y, p.Z})
		if dec.hasColor {
			layout.Encode(buf, v, meshsplit.AttrColor, dec.colors[c[0]])
		}
		if c[1] >= 0 {
			uv := dec.uvs[c[1]]
			layout.Encode(buf, v, meshsplit.AttrTexCoord0, [4]float32{uv[0], uv[1]})
		}
		if c[2] >= 0 {
			n := dec.normals[c[2]]
			layout.Encode(buf, v, meshsplit.AttrNormal, [4]float32{n.X, n.Y, n.Z})
		}
	}

	mesh, err := meshsplit.NewSourceMesh(buf, layout, indices)
	if err != nil {
		return nil, err
	}
	return &OBJ{Name: dec.name, Mesh: mesh, Warnings: dec.warnings}, nil
}

// LineSet is a named list of line segments, consumed in vertex pairs.
type LineSet struct {
	Name     string
	Vertices []math.Vec3
}

// WriteOBJ writes each mesh as its own object. Only the channels active
// under params are emitted: normals as vn, TexCoord0 as vt and colors as
// the common "v x y z r g b" extension.
func WriteOBJ(w io.Writer, meshes []meshsplit.SubMesh, params meshsplit.Parameters) error {
	bw := bufio.NewWriter(w)
	base := 1
	for i := range meshes {
		m := &meshes[i]
		if err := writeOBJMesh(bw, m, params, base); err != nil {
			return fmt.Errorf("writing %s: %w", m.Name, err)
		}
		base += m.VertexCount
	}
	return bw.Flush()
}

func writeOBJMesh(w *bufio.Writer, m *meshsplit.SubMesh, params meshsplit.Parameters, base int) error {
	var hasNormal, hasUV, hasColor bool
	for _, d := range params.ActiveAttributes(m.Layout) {
		switch d.Attribute {
		case meshsplit.AttrNormal:
			hasNormal = true
		case meshsplit.AttrTexCoord0:
			hasUV = true
		case meshsplit.AttrColor:
			hasColor = true
		}
	}

	fmt.Fprintf(w, "o %s\n", objName(m.Name))
	for v := 0; v < m.VertexCount; v++ {
		p := m.Position(v)
		if hasColor {
			c, _ := m.Layout.Decode(m.VertexBuffer, v, meshsplit.AttrColor)
			fmt.Fprintf(w, "v %s %s %s %s %s %s\n", ff(p.X), ff(p.Y), ff(p.Z), ff(c[0]), ff(c[1]), ff(c[2]))
		} else {
			fmt.Fprintf(w, "v %s %s %s\n", ff(p.X), ff(p.Y), ff(p.Z))
		}
	}
	if hasUV {
		for v := 0; v < m.VertexCount; v++ {
			uv, _ := m.Layout.Decode(m.VertexBuffer, v, meshsplit.AttrTexCoord0)
			fmt.Fprintf(w, "vt %s %s\n", ff(uv[0]), ff(uv[1]))
		}
	}
	if hasNormal {
		for v := 0; v < m.VertexCount; v++ {
			n, _ := m.Layout.Decode(m.VertexBuffer, v, meshsplit.AttrNormal)
			fmt.Fprintf(w, "vn %s %s %s\n", ff(n[0]), ff(n[1]), ff(n[2]))
		}
	}

	indices := m.Indices()
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrInvalidOBJFace, len(indices))
	}
	for t := 0; t < len(indices); t += 3 {
		w.WriteString("f")
		for _, idx := range indices[t : t+3] {
			if int(idx) >= m.VertexCount {
				return fmt.Errorf("%w: %d of %d vertices", ErrInvalidOBJIndex, idx, m.VertexCount)
			}
			i := base + int(idx)
			switch {
			case hasUV && hasNormal:
				fmt.Fprintf(w, " %d/%d/%d", i, i, i)
			case hasUV:
				fmt.Fprintf(w, " %d/%d", i, i)
			case hasNormal:
				fmt.Fprintf(w, " %d//%d", i, i)
			default:
				fmt.Fprintf(w, " %d", i)
			}
		}
		w.WriteString("\n")
	}
	return nil
}

// WriteOBJLines writes line sets as OBJ objects made of "l" elements.
func WriteOBJLines(w io.Writer, sets ...LineSet) error {
	bw := bufio.NewWriter(w)
	base := 1
	for _, s := range sets {
		if len(s.Vertices)%2 != 0 {
			return fmt.Errorf("line set %s: odd vertex count %d", s.Name, len(s.Vertices))
		}
		fmt.Fprintf(bw, "o %s\n", objName(s.Name))
		for _, p := range s.Vertices {
			fmt.Fprintf(bw, "v %s %s %s\n", ff(p.X), ff(p.Y), ff(p.Z))
		}
		for i := 0; i < len(s.Vertices); i += 2 {
			fmt.Fprintf(bw, "l %d %d\n", base+i, base+i+1)
		}
		base += len(s.Vertices)
	}
	return bw.Flush()
}

// objName makes a name safe for an "o" statement.
func objName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return strings.Join(strings.Fields(name), "_")
}

func ff(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
