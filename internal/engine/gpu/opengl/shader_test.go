package opengl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSamplerPragmas(t *testing.T) {
	src := `#version 430 core
#pragma sampler Albedo BasicSampler
  #pragma   sampler   SpecularIBLMap   ClampSampler
#pragma optimize(on)
#pragma sampler Broken
uniform sampler2D Albedo;
`
	got := parseSamplerPragmas(src)
	assert.Equal(t, map[string]string{
		"Albedo":         "BasicSampler",
		"SpecularIBLMap": "ClampSampler",
	}, got)
}

func TestParseSamplerPragmasNone(t *testing.T) {
	assert.Empty(t, parseSamplerPragmas("#version 430 core\nvoid main() {}\n"))
}
