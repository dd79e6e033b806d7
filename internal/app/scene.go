// Package app assembles a renderable world from configuration and a scene
// description, and drives it one frame at a time for a window host.
package app

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_scene.yaml
var defaultScene []byte

// Scene is the on-disk description of what to draw. Zero vectors and empty
// names take the defaults noted on each field.
type Scene struct {
	Camera    CameraDesc     `yaml:"camera"`
	Materials []MaterialDesc `yaml:"materials"`
	Entities  []EntityDesc   `yaml:"entities"`
	Lights    LightsDesc     `yaml:"lights"`
	Emitters  []EmitterDesc  `yaml:"emitters"`
}

// CameraDesc places the fly camera.
type CameraDesc struct {
	Position  [3]float32 `yaml:"position"`
	MoveSpeed float32    `yaml:"move_speed"` // 0 keeps the camera default
	LookSpeed float32    `yaml:"look_speed"` // 0 keeps the camera default
}

// MaterialDesc describes a material. Textures map shader slot names
// (Albedo, NormalMap, RoughnessMap, MetalMap) to texture asset names.
type MaterialDesc struct {
	Name            string            `yaml:"name"`
	VertexShader    string            `yaml:"vertex_shader"` // default VertexShader
	PixelShader     string            `yaml:"pixel_shader"`  // default PixelShaderPBR, RefractionPS when refractive
	Tint            [4]float32        `yaml:"tint"`          // default white
	UVScale         [2]float32        `yaml:"uv_scale"`      // default 1,1
	Refractive      bool              `yaml:"refractive"`
	RefractionIndex float32           `yaml:"refraction_index"`
	Textures        map[string]string `yaml:"textures"`
}

// EntityDesc places a mesh with a material.
type EntityDesc struct {
	Name     string     `yaml:"name"`
	Mesh     string     `yaml:"mesh"` // default Sphere
	Material string     `yaml:"material"`
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"` // pitch, yaw, roll in radians
	Scale    [3]float32 `yaml:"scale"`    // default 1,1,1
	// Hair grows strands from a private copy of the mesh.
	Hair bool `yaml:"hair"`
	// Spin is yaw speed in radians per second.
	Spin float32 `yaml:"spin"`
	// Sweep moves the entity along X at this speed, turning around at
	// ±SweepLimit (default 5).
	Sweep      float32 `yaml:"sweep"`
	SweepLimit float32 `yaml:"sweep_limit"`
}

// LightsDesc holds the fixed lights and how many random point lights to add.
type LightsDesc struct {
	Fixed        []LightDesc `yaml:"fixed"`
	RandomPoints int         `yaml:"random_points"`
}

// LightDesc is a directional or point light.
type LightDesc struct {
	Type      string     `yaml:"type"` // directional or point
	Direction [3]float32 `yaml:"direction"`
	Position  [3]float32 `yaml:"position"`
	Color     [3]float32 `yaml:"color"`
	Range     float32    `yaml:"range"`
	Intensity float32    `yaml:"intensity"`
}

// EmitterDesc configures a particle emitter. Zero colors and scales keep
// the emitter defaults.
type EmitterDesc struct {
	Name          string     `yaml:"name"`
	Texture       string     `yaml:"texture"`
	Capacity      int        `yaml:"capacity"`
	Rate          float32    `yaml:"rate"`
	Lifetime      float32    `yaml:"lifetime"`
	Position      [3]float32 `yaml:"position"`
	StartColor    [4]float32 `yaml:"start_color"`
	EndColor      [4]float32 `yaml:"end_color"`
	StartScale    float32    `yaml:"start_scale"`
	EndScale      float32    `yaml:"end_scale"`
	Velocity      [3]float32 `yaml:"velocity"`
	VelocityRange [3]float32 `yaml:"velocity_range"`
	Acceleration  [3]float32 `yaml:"acceleration"`
}

// DefaultScene returns the built-in demo scene.
func DefaultScene() (*Scene, error) {
	return ParseScene(defaultScene)
}

// LoadScene reads a YAML scene description from path.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return sc, nil
}

// ParseScene decodes a YAML scene description, fills defaults and validates it.
func ParseScene(data []byte) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scene) applyDefaults() {
	for i := range s.Materials {
		m := &s.Materials[i]
		if m.VertexShader == "" {
			m.VertexShader = "VertexShader"
		}
		if m.PixelShader == "" {
			m.PixelShader = "PixelShaderPBR"
			if m.Refractive {
				m.PixelShader = "RefractionPS"
			}
		}
		if m.Tint == ([4]float32{}) {
			m.Tint = [4]float32{1, 1, 1, 1}
		}
		if m.UVScale == ([2]float32{}) {
			m.UVScale = [2]float32{1, 1}
		}
	}
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.Mesh == "" {
			e.Mesh = "Sphere"
		}
		if e.Scale == ([3]float32{}) {
			e.Scale = [3]float32{1, 1, 1}
		}
		if e.SweepLimit == 0 {
			e.SweepLimit = 5
		}
	}
}

// Validate checks names and references.
func (s *Scene) Validate() error {
	materials := make(map[string]bool, len(s.Materials))
	for i, m := range s.Materials {
		if m.Name == "" {
			return fmt.Errorf("material %d: missing name", i)
		}
		if materials[m.Name] {
			return fmt.Errorf("material %q defined twice", m.Name)
		}
		materials[m.Name] = true
	}
	for i, e := range s.Entities {
		if !materials[e.Material] {
			return fmt.Errorf("entity %d (%s): unknown material %q", i, e.Name, e.Material)
		}
	}
	for i, l := range s.Lights.Fixed {
		if l.Type != "directional" && l.Type != "point" {
			return fmt.Errorf("light %d: unknown type %q", i, l.Type)
		}
	}
	if s.Lights.RandomPoints < 0 {
		return fmt.Errorf("random_points must not be negative, got %d", s.Lights.RandomPoints)
	}
	for i, e := range s.Emitters {
		if e.Capacity <= 0 || e.Rate <= 0 || e.Lifetime <= 0 {
			return fmt.Errorf("emitter %d (%s): capacity, rate and lifetime must be positive", i, e.Name)
		}
	}
	return nil
}
