// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" toml:"graphics"`
	Renderer RendererConfig `yaml:"renderer" toml:"renderer"`
	Sky      SkyConfig      `yaml:"sky" toml:"sky"`
	Terrain  TerrainConfig  `yaml:"terrain" toml:"terrain"`
	Assets   AssetsConfig   `yaml:"assets" toml:"assets"`
	Scene    SceneConfig    `yaml:"scene" toml:"scene"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width" toml:"width"`
	Height     int  `yaml:"height" toml:"height"`
	Fullscreen bool `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool `yaml:"vsync" toml:"vsync"`
	DebugUI    bool `yaml:"debug_ui" toml:"debug_ui"` // panels in the studio host
}

// RendererConfig holds frame pipeline settings.
type RendererConfig struct {
	MotionBlurSamples int        `yaml:"motion_blur_samples" toml:"motion_blur_samples"`
	MotionBlurMax     int        `yaml:"motion_blur_max" toml:"motion_blur_max"`
	ClearColor        [4]float32 `yaml:"clear_color" toml:"clear_color"`
	FieldOfView       float32    `yaml:"field_of_view" toml:"field_of_view"` // degrees
}

// SkyConfig holds environment map and IBL precompute settings.
// Either Faces (+X, -X, +Y, -Y, +Z, -Z) or Packed must be set.
type SkyConfig struct {
	Faces       []string `yaml:"faces" toml:"faces"`
	Packed      string   `yaml:"packed" toml:"packed"`
	IBLCubeSize int      `yaml:"ibl_cube_size" toml:"ibl_cube_size"`
	BRDFLUTSize int      `yaml:"brdf_lut_size" toml:"brdf_lut_size"`
	SkippedMips int      `yaml:"skipped_mips" toml:"skipped_mips"`
}

// TerrainConfig holds procedural terrain settings.
type TerrainConfig struct {
	Enabled        bool    `yaml:"enabled" toml:"enabled"`
	Dimension      int     `yaml:"dimension" toml:"dimension"`
	Frequency      float32 `yaml:"frequency" toml:"frequency"`
	GridResolution int     `yaml:"grid_resolution" toml:"grid_resolution"`
	Material       string  `yaml:"material" toml:"material"`
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Root          string `yaml:"root" toml:"root"`
	ScreenshotDir string `yaml:"screenshot_dir" toml:"screenshot_dir"`
}

// SceneConfig points at the scene description. Empty means the built-in demo scene.
type SceneConfig struct {
	Path string `yaml:"path" toml:"path"`
	Seed int64  `yaml:"seed" toml:"seed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// TerrainDimensions lists the heightmap sizes the terrain generator accepts.
var TerrainDimensions = []int{64, 128, 256, 512, 1024}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			DebugUI:    true,
		},
		Renderer: RendererConfig{
			MotionBlurSamples: 16,
			MotionBlurMax:     16,
			ClearColor:        [4]float32{0, 0, 0, 1},
			FieldOfView:       45,
		},
		Sky: SkyConfig{
			Faces: []string{
				"textures/sky/right.png",
				"textures/sky/left.png",
				"textures/sky/up.png",
				"textures/sky/down.png",
				"textures/sky/front.png",
				"textures/sky/back.png",
			},
			IBLCubeSize: 256,
			BRDFLUTSize: 256,
			SkippedMips: 3,
		},
		Terrain: TerrainConfig{
			Enabled:        true,
			Dimension:      256,
			Frequency:      3,
			GridResolution: 128,
			Material:       "terrain",
		},
		Assets: AssetsConfig{
			Root:          "assets",
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate clamps values that the engine cannot use as given.
func (c *Config) Validate() {
	c.Renderer.MotionBlurSamples = clamp(c.Renderer.MotionBlurSamples, 0, 64)
	c.Renderer.MotionBlurMax = clamp(c.Renderer.MotionBlurMax, 0, 64)
	c.Terrain.Dimension = NearestTerrainDimension(c.Terrain.Dimension)
	if c.Terrain.GridResolution < 2 {
		c.Terrain.GridResolution = 2
	}
	if c.Sky.IBLCubeSize < 1 {
		c.Sky.IBLCubeSize = 256
	}
	if c.Sky.BRDFLUTSize < 1 {
		c.Sky.BRDFLUTSize = 256
	}
	if c.Sky.SkippedMips < 0 {
		c.Sky.SkippedMips = 0
	}
	if c.Graphics.Width < 1 {
		c.Graphics.Width = 1280
	}
	if c.Graphics.Height < 1 {
		c.Graphics.Height = 720
	}
}

// NearestTerrainDimension snaps d to the closest supported heightmap size.
func NearestTerrainDimension(d int) int {
	best := TerrainDimensions[0]
	for _, dim := range TerrainDimensions {
		if abs(dim-d) < abs(best-d) {
			best = dim
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
