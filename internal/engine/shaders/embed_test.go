package shaders

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

func TestProgramsCoverRenderer(t *testing.T) {
	programs, err := Programs()
	require.NoError(t, err)

	byName := make(map[string]Program, len(programs))
	for _, p := range programs {
		byName[p.Name] = p
	}

	want := map[string]gpu.Stage{
		"VertexShader":             gpu.StageVertex,
		"PixelShaderPBR":           gpu.StagePixel,
		"SolidColorPS":             gpu.StagePixel,
		"FullscreenVS":             gpu.StageVertex,
		"MotionBlurNeighborhoodPS": gpu.StagePixel,
		"MotionBlurPS":             gpu.StagePixel,
		"RefractionPS":             gpu.StagePixel,
		"HairVS":                   gpu.StageVertex,
		"HairPS":                   gpu.StagePixel,
		"ParticleVS":               gpu.StageVertex,
		"ParticlePS":               gpu.StagePixel,
		"SkyVS":                    gpu.StageVertex,
		"SkyPS":                    gpu.StagePixel,
		"IBLIrradianceMapPS":       gpu.StagePixel,
		"IBLSpecularConvolutionPS": gpu.StagePixel,
		"IBLBrdfLookUpTablePS":     gpu.StagePixel,
		"HeightMap":                gpu.StageVertex,
		"TerrainGeneration":        gpu.StageCompute,
		"CreateHair":               gpu.StageCompute,
	}
	for name, stage := range want {
		p, ok := byName[name]
		if assert.True(t, ok, name) {
			assert.Equal(t, stage, p.Stage, name)
			assert.True(t, strings.HasPrefix(p.Source, "#version 430 core"), name)
			assert.NotContains(t, p.Source, "#include", name)
		}
	}
	assert.NotContains(t, byName, "common", "fragments are not programs")
}

func TestExpandIncludesOnce(t *testing.T) {
	fsys := fstest.MapFS{
		"main.frag": {Data: []byte("#version 430 core\n#include \"a.glsl\"\n#include \"b.glsl\"\nvoid main() {}\n")},
		"a.glsl":    {Data: []byte("#include \"b.glsl\"\nfloat a;\n")},
		"b.glsl":    {Data: []byte("float b;\n")},
	}

	src, err := Expand(fsys, "main.frag")
	require.NoError(t, err)
	assert.Equal(t, "#version 430 core\nfloat b;\nfloat a;\nvoid main() {}\n", src)
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "missing include",
			fsys: fstest.MapFS{"main.vert": {Data: []byte("#include \"gone.glsl\"\n")}},
			want: "reading gone.glsl",
		},
		{
			name: "malformed include",
			fsys: fstest.MapFS{"main.vert": {Data: []byte("#include <common.glsl>\n")}},
			want: "malformed include",
		},
		{
			name: "cycle",
			fsys: fstest.MapFS{
				"main.vert": {Data: []byte("#include \"a.glsl\"\n")},
				"a.glsl":    {Data: []byte("#include \"main.vert\"\n")},
			},
			want: "include cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.fsys, "main.vert")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStageOf(t *testing.T) {
	stage, ok := StageOf("shaders/SkyPS.frag")
	assert.True(t, ok)
	assert.Equal(t, gpu.StagePixel, stage)

	_, ok = StageOf("common.glsl")
	assert.False(t, ok)

	assert.Equal(t, "TerrainGeneration", Name("glsl/TerrainGeneration.comp"))
}
