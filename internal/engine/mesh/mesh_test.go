package mesh

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

const epsilon = 1e-4

func assertTangentFrame(t *testing.T, vertices []Vertex) {
	t.Helper()
	for i, v := range vertices {
		assert.InDelta(t, 0, v.Tangent.Dot(v.Normal), epsilon, "vertex %d tangent not orthogonal to normal", i)
		assert.InDelta(t, 1, v.Tangent.Len(), epsilon, "vertex %d tangent not unit length", i)
	}
}

func TestComputeTangentsOrthonormal(t *testing.T) {
	for name, g := range map[string]Geometry{
		"cube":   Cube(),
		"sphere": Sphere(16, 8),
		"grid":   Grid(4),
	} {
		t.Run(name, func(t *testing.T) {
			ComputeTangents(g.Vertices, g.Indices)
			assertTangentFrame(t, g.Vertices)
		})
	}
}

func TestComputeTangentsFollowsU(t *testing.T) {
	g := Grid(1)
	ComputeTangents(g.Vertices, g.Indices)
	for _, v := range g.Vertices {
		assert.InDelta(t, 1, v.Tangent[0], epsilon)
	}
}

func TestComputeTangentsDegenerateUV(t *testing.T) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, -1}},
		{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, -1}},
		{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 0, -1}},
	}
	ComputeTangents(vertices, []uint32{0, 1, 2})

	for _, v := range vertices {
		assert.False(t, isNaN(v.Tangent), "collapsed UVs must not produce NaN")
	}
	assertTangentFrame(t, vertices)
}

func TestComputeTangentsNonUnitNormal(t *testing.T) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 2}, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{1, 0, 1}, Normal: mgl32.Vec3{0, 0, 2}, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 2}, UV: mgl32.Vec2{0, 1}},
	}
	ComputeTangents(vertices, []uint32{0, 1, 2})

	assertTangentFrame(t, vertices)
	for _, v := range vertices {
		assert.InDelta(t, 1, v.Tangent[0], epsilon)
	}
}

func TestComputeTangentsZeroNormal(t *testing.T) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0, 1, 0}, UV: mgl32.Vec2{0, 1}},
	}
	ComputeTangents(vertices, []uint32{0, 1, 2})

	for _, v := range vertices {
		assert.False(t, isNaN(v.Tangent))
		assert.InDelta(t, 1, v.Tangent.Len(), epsilon)
	}
}

func isNaN(v mgl32.Vec3) bool {
	return v[0] != v[0] || v[1] != v[1] || v[2] != v[2]
}

// assertOutwardWinding checks that every triangle's winding normal agrees with the stored normals.
func assertOutwardWinding(t *testing.T, g *Geometry) {
	t.Helper()
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a := g.Vertices[g.Indices[i]]
		b := g.Vertices[g.Indices[i+1]]
		c := g.Vertices[g.Indices[i+2]]
		face := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		if face.Len() < 1e-6 {
			continue
		}
		assert.Greater(t, face.Normalize().Dot(a.Normal), float32(0), "triangle %d winds inward", i/3)
	}
}

func TestPrimitivesWindOutward(t *testing.T) {
	for name, g := range map[string]Geometry{
		"cube":   Cube(),
		"sphere": Sphere(12, 6),
		"grid":   Grid(3),
	} {
		t.Run(name, func(t *testing.T) {
			assertOutwardWinding(t, &g)
		})
	}
}

func TestPrimitiveCounts(t *testing.T) {
	cube := Cube()
	assert.Len(t, cube.Vertices, 24)
	assert.Len(t, cube.Indices, 36)

	grid := Grid(4)
	assert.Len(t, grid.Vertices, 25)
	assert.Len(t, grid.Indices, 4*4*6)

	sphere := Sphere(8, 4)
	assert.Len(t, sphere.Vertices, 9*5)
	// Pole rows emit one triangle per slice, the rest two.
	assert.Len(t, sphere.Indices, (8*2+8*2*2)*3)
}

func TestNewUploadsBuffers(t *testing.T) {
	dev := gputest.NewDevice(1, 1)
	g := Cube()

	m, err := New(dev, "cube", g.Vertices, g.Indices)
	require.NoError(t, err)

	vb := m.VertexBuffer().(*gputest.Buffer)
	ib := m.IndexBuffer().(*gputest.Buffer)
	assert.Equal(t, 24*VertexSize, vb.Size())
	assert.Equal(t, gpu.VertexBuffer, vb.Descriptor().Kind)
	assert.Equal(t, gpu.UsageImmutable, vb.Descriptor().Usage)
	assert.Equal(t, 36*4, ib.Size())
	assert.Equal(t, gpu.Bytes(m.Vertices()), vb.Data)

	assertTangentFrame(t, m.Vertices())
	assert.Equal(t, mgl32.Vec3{}, g.Vertices[0].Tangent, "caller's slice is not modified")

	dev.Reset()
	m.Draw(dev)
	assert.Equal(t, []string{"SetVertexBuffer", "SetIndexBuffer", "DrawIndexed"}, dev.Ops())
	assert.Equal(t, 36, dev.Filter("DrawIndexed")[0].Count)
}

func TestNewRejectsBadGeometry(t *testing.T) {
	dev := gputest.NewDevice(1, 1)

	_, err := New(dev, "empty", nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = New(dev, "oob", []Vertex{{}, {}, {}}, []uint32{0, 1, 3})
	assert.ErrorContains(t, err, "out of range")

	dev.FailCreate = true
	g := Cube()
	_, err = New(dev, "cube", g.Vertices, g.Indices)
	assert.ErrorIs(t, err, gputest.ErrInjected)
}

// A unit cube authored right-handed with counter-clockwise front faces.
const rightHandedCube = `
# cube
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
vn 0 0 1
vn 0 0 -1
vn 1 0 0
vn -1 0 0
vn 0 1 0
vn 0 -1 0
f 1//1 2//1 3//1 4//1
f 6//2 5//2 8//2 7//2
f 2//3 6//3 7//3 3//3
f 5//4 1//4 4//4 8//4
f 4//5 3//5 7//5 8//5
f 5//6 6//6 2//6 1//6
`

func TestParseOBJConvertsToLeftHanded(t *testing.T) {
	geo, err := ParseOBJ(strings.NewReader(rightHandedCube))
	require.NoError(t, err)

	assert.Len(t, geo.Indices, 6*2*3, "quads become two triangles")
	assert.Len(t, geo.Vertices, 24)
	assertOutwardWinding(t, geo)

	// The +Z face of the source is now the -Z face.
	first := geo.Vertices[geo.Indices[0]]
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, first.Normal)
	assert.Equal(t, float32(-1), first.Position[2])
}

func TestParseOBJFlipsV(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0.25
vt 1 0.25
vt 0 1
f 1/1 2/2 3/3
`
	geo, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, geo.Vertices, 3)

	assert.Equal(t, mgl32.Vec2{0, 0.75}, geo.Vertices[0].UV)
	assert.Equal(t, mgl32.Vec3{}, geo.Vertices[0].Normal, "missing normal index yields zero")
	assert.Equal(t, []uint32{0, 2, 1}, geo.Indices)
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	geo, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 1}, geo.Indices)
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		want string
	}{
		{"bad number", "v 0 x 0\n", 1, "bad number"},
		{"short position", "v 0 0\n", 1, "want 3 values"},
		{"position out of range", "v 0 0 0\nf 1 2 3\n", 2, "position index 2 out of range"},
		{"normal out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", 4, "normal index 1 out of range"},
		{"too few corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", 3, "face has 2 corners"},
		{"corner without position", "vt 0 0\nf /1 /1 /1\n", 2, "has no position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, perr.Msg, tt.want)
		})
	}
}

func TestParseOBJNoFaces(t *testing.T) {
	_, err := ParseOBJ(strings.NewReader("v 0 0 0\n# nothing else\n"))
	assert.ErrorIs(t, err, ErrNoFaces)
}

func TestLoadOBJMissingFile(t *testing.T) {
	_, err := LoadOBJ(gputest.NewDevice(1, 1), t.TempDir()+"/missing.obj")
	assert.ErrorContains(t, err, "opening obj")
}

func TestCreateHair(t *testing.T) {
	dev := gputest.NewDevice(1, 1)
	g := Sphere(8, 4)
	m, err := New(dev, "sphere", g.Vertices, g.Indices)
	require.NoError(t, err)

	cs := gputest.NewShader(dev, gpu.StageCompute, "CreateHair")
	cs.Groups = [3]int{64, 1, 1}

	dev.Reset()
	require.NoError(t, m.CreateHair(dev, cs, DefaultHairParams))
	require.True(t, m.HasHair())

	n := m.VertexCount()
	dispatch := dev.Filter("Dispatch")
	require.Len(t, dispatch, 1)
	assert.Equal(t, [3]int{(n + 63) / 64, 1, 1}, dispatch[0].Groups)

	assert.Equal(t, int32(n), cs.Values["vertexCount"])
	assert.Equal(t, float32(0.5), cs.Values["hairLength"])
	assert.Equal(t, float32(0.01), cs.Values["hairWidth"])

	// Output is copied into the read-only strand buffer after the dispatch.
	dispatchAt := dev.Index(0, func(c gputest.Call) bool { return c.Op == "Dispatch" })
	copyAt := dev.Index(dispatchAt, func(c gputest.Call) bool { return c.Op == "CopyBuffer" })
	require.Greater(t, copyAt, dispatchAt)
	assert.Equal(t, "sphere hair output", dev.Calls[copyAt].Value)

	strands := m.HairStrands().(*gputest.Buffer)
	assert.Equal(t, n*HairStrandSize, strands.Size())
	assert.Equal(t, gpu.StructuredBuffer, strands.Descriptor().Kind)

	vs := gputest.NewShader(dev, gpu.StageVertex, "HairVS")
	dev.Reset()
	m.DrawHair(dev, vs)
	assert.Equal(t, "sphere hair strands", vs.Values["HairData"])
	draws := dev.Filter("DrawIndexed")
	require.Len(t, draws, 1)
	assert.Equal(t, n*3, draws[0].Count)
	assert.Equal(t, "", dev.Filter("SetVertexBuffer")[0].Name)
}

func TestCreateHairReplacesStrands(t *testing.T) {
	dev := gputest.NewDevice(1, 1)
	g := Cube()
	m, err := New(dev, "cube", g.Vertices, g.Indices)
	require.NoError(t, err)
	cs := gputest.NewShader(dev, gpu.StageCompute, "CreateHair")

	require.NoError(t, m.CreateHair(dev, cs, DefaultHairParams))
	old := m.HairStrands().(*gputest.Buffer)
	require.NoError(t, m.CreateHair(dev, cs, DefaultHairParams))

	assert.True(t, old.Released)
	assert.NotSame(t, old, m.HairStrands())
}

func TestCreateHairInvalidShader(t *testing.T) {
	dev := gputest.NewDevice(1, 1)
	g := Cube()
	m, err := New(dev, "cube", g.Vertices, g.Indices)
	require.NoError(t, err)

	cs := gputest.NewShader(dev, gpu.StageCompute, "CreateHair")
	cs.Invalid = true
	assert.Error(t, m.CreateHair(dev, cs, DefaultHairParams))
	assert.Error(t, m.CreateHair(dev, nil, DefaultHairParams))
	assert.False(t, m.HasHair())
}

func TestVertexStrides(t *testing.T) {
	assert.Equal(t, VertexSize, gpu.SizeOf[Vertex]())
	assert.Equal(t, HairStrandSize, gpu.SizeOf[HairStrand]())
	assert.Equal(t, 48, gpu.SizeOf[shaderVertex]())
}
