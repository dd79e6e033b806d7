package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// ErrNoFaces is returned for OBJ input without a single face.
var ErrNoFaces = errors.New("obj: no faces")

// ParseError reports a malformed OBJ line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("obj line %d: %s", e.Line, e.Msg)
}

// Geometry is parsed, not yet uploaded, mesh data.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

type objCorner struct {
	position, uv, normal int // zero-based, -1 when absent
}

// ParseOBJ reads Wavefront OBJ text authored in a right-handed space and
// converts it to the engine's left-handed convention: Z of positions and
// normals is negated, V is flipped and triangle winding is reversed.
// Polygons with more than three corners are split into a triangle fan, so
// quads yield two triangles. Corners without UV or normal indices get zero
// values. Identical corners share one vertex.
func ParseOBJ(r io.Reader) (*Geometry, error) {
	var (
		positions []mgl32.Vec3
		normals   []mgl32.Vec3
		uvs       []mgl32.Vec2
		geo       Geometry
		seen      = make(map[objCorner]uint32)
	)

	vertexFor := func(c objCorner) uint32 {
		if idx, ok := seen[c]; ok {
			return idx
		}
		var v Vertex
		p := positions[c.position]
		v.Position = mgl32.Vec3{p[0], p[1], -p[2]}
		if c.normal >= 0 {
			n := normals[c.normal]
			v.Normal = mgl32.Vec3{n[0], n[1], -n[2]}
		}
		if c.uv >= 0 {
			t := uvs[c.uv]
			v.UV = mgl32.Vec2{t[0], 1 - t[1]}
		}
		idx := uint32(len(geo.Vertices))
		geo.Vertices = append(geo.Vertices, v)
		seen[c] = idx
		return idx
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: "position: " + err.Error()}
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: "normal: " + err.Error()}
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: "uv: " + err.Error()}
			}
			uvs = append(uvs, mgl32.Vec2{v[0], v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("face has %d corners", len(fields)-1)}
			}
			corners := make([]objCorner, 0, len(fields)-1)
			for _, f := range fields[1:] {
				c, err := parseCorner(f, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, &ParseError{Line: line, Msg: err.Error()}
				}
				corners = append(corners, c)
			}

			first := vertexFor(corners[0])
			for i := 1; i+1 < len(corners); i++ {
				b := vertexFor(corners[i])
				c := vertexFor(corners[i+1])
				// Reversed winding for the left-handed space.
				geo.Indices = append(geo.Indices, first, c, b)
			}
		default:
			// Groups, objects, materials and smoothing are ignored.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading obj: %w", err)
	}
	if len(geo.Indices) == 0 {
		return nil, ErrNoFaces
	}
	return &geo, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseCorner parses "p", "p/t", "p//n" or "p/t/n" with 1-based or negative indices.
func parseCorner(s string, numPositions, numUVs, numNormals int) (objCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("bad face corner %q", s)
	}

	c := objCorner{position: -1, uv: -1, normal: -1}
	var err error
	if c.position, err = resolveIndex(parts[0], numPositions, "position"); err != nil {
		return objCorner{}, err
	}
	if c.position < 0 {
		return objCorner{}, fmt.Errorf("face corner %q has no position", s)
	}
	if len(parts) > 1 {
		if c.uv, err = resolveIndex(parts[1], numUVs, "uv"); err != nil {
			return objCorner{}, err
		}
	}
	if len(parts) > 2 {
		if c.normal, err = resolveIndex(parts[2], numNormals, "normal"); err != nil {
			return objCorner{}, err
		}
	}
	return c, nil
}

func resolveIndex(s string, count int, what string) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s index %q", what, s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, fmt.Errorf("%s index %d out of range (%d defined)", what, i, count)
	}
}

// LoadOBJ parses an OBJ file and uploads it as a mesh named after the path.
func LoadOBJ(dev gpu.Device, path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening obj: %w", err)
	}
	defer f.Close()

	geo, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return New(dev, path, geo.Vertices, geo.Indices)
}
