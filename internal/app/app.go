package app

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"path/filepath"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/assets"
	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/debug"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/input"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/sky"
	"github.com/Faultbox/prism/internal/engine/terrain"
	"github.com/Faultbox/prism/internal/logger"
)

// Colors of the gradient sky used when no environment images load.
var (
	gradientZenith  = mgl32.Vec3{0.25, 0.45, 0.85}
	gradientHorizon = mgl32.Vec3{0.85, 0.85, 0.9}
	gradientNadir   = mgl32.Vec3{0.2, 0.18, 0.15}
)

const gradientSize = 64

// ImportDistance is how far in front of the camera imported meshes are placed.
const ImportDistance = 5

// App owns the world, the renderer and the camera for one window.
type App struct {
	cfg *config.Config
	dev gpu.Device
	log *zap.Logger

	assets      *assets.Manager
	world       *World
	environment gpu.Texture
	sky         *sky.Sky
	terrain     *terrain.Terrain
	terrainGrid *mesh.Mesh // owned when the configured resolution differs from the built-in grid
	renderer    *renderer.Renderer
	camera      *camera.Camera
	controls    input.Controls
	screenshots *debug.ScreenshotCapture
	rng         *rand.Rand
}

// New loads assets and the scene and prepares the first frame on dev.
// The back buffer of dev decides the initial render size.
func New(cfg *config.Config, dev gpu.Device) (*App, error) {
	a := &App{
		cfg:         cfg,
		dev:         dev,
		log:         logger.Named("app"),
		controls:    input.DefaultControls,
		screenshots: debug.NewScreenshotCapture(cfg.Assets.ScreenshotDir, "prism"),
		rng:         newRand(cfg.Scene.Seed),
	}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func (a *App) init() error {
	a.assets = assets.NewManager(a.dev)
	if err := a.assets.LoadDirectory(a.cfg.Assets.Root); err != nil {
		return fmt.Errorf("loading assets: %w", err)
	}

	sc, err := a.loadScene()
	if err != nil {
		return err
	}
	a.world, err = Build(a.dev, a.assets, sc, a.rng)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	a.environment, err = a.loadEnvironment()
	if err != nil {
		return fmt.Errorf("sky environment: %w", err)
	}
	a.sky, err = sky.New(a.dev, a.assets, a.assets.Mesh("Cube"), a.environment, sky.Options{
		CubeSize:   a.cfg.Sky.IBLCubeSize,
		LookUpSize: a.cfg.Sky.BRDFLUTSize,
		SkipMips:   a.cfg.Sky.SkippedMips,
	})
	if err != nil {
		return fmt.Errorf("sky: %w", err)
	}

	entities := slices.Clone(a.world.Entities)
	if a.cfg.Terrain.Enabled {
		if err := a.createTerrain(); err != nil {
			a.log.Warn("terrain disabled", zap.Error(err))
		} else {
			entities = append(entities, a.terrain)
		}
	}

	back := a.dev.BackBuffer()
	if back == nil {
		return errors.New("device has no back buffer")
	}
	a.renderer, err = renderer.New(a.dev, a.assets, renderer.Options{
		Width:             back.Width(),
		Height:            back.Height(),
		Sky:               a.sky,
		Entities:          entities,
		Emitters:          a.world.Emitters,
		Lights:            a.world.Lights,
		MotionBlurSamples: a.cfg.Renderer.MotionBlurSamples,
		MotionBlurMax:     a.cfg.Renderer.MotionBlurMax,
	})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	a.renderer.SetClearColor(a.cfg.Renderer.ClearColor)

	a.camera = camera.New(mgl32.Vec3(sc.Camera.Position), float32(back.Width())/float32(back.Height()))
	a.camera.SetFieldOfView(a.cfg.Renderer.FieldOfView)
	if sc.Camera.MoveSpeed > 0 {
		a.camera.MoveSpeed = sc.Camera.MoveSpeed
	}
	if sc.Camera.LookSpeed > 0 {
		a.camera.LookSpeed = sc.Camera.LookSpeed
	}
	return nil
}

func (a *App) loadScene() (*Scene, error) {
	if a.cfg.Scene.Path == "" {
		return DefaultScene()
	}
	return LoadScene(a.cfg.Scene.Path)
}

// assetPath resolves relative paths against the asset root.
func (a *App) assetPath(path string) string {
	if filepath.IsAbs(path) || a.cfg.Assets.Root == "" {
		return path
	}
	return filepath.Join(a.cfg.Assets.Root, path)
}

// loadEnvironment builds the sky cubemap from the packed strip or the six
// faces, falling back to a gradient when the images cannot be read.
func (a *App) loadEnvironment() (gpu.Texture, error) {
	switch {
	case a.cfg.Sky.Packed != "":
		img, err := a.assets.LoadImage(a.assetPath(a.cfg.Sky.Packed))
		if err == nil {
			return sky.NewCubemapFromStrip(a.dev, img)
		}
		a.log.Warn("sky strip unavailable, using gradient", zap.Error(err))
	case len(a.cfg.Sky.Faces) == 6:
		faces, err := a.loadFaces()
		if err == nil {
			return sky.NewCubemapFromImages(a.dev, faces)
		}
		a.log.Warn("sky faces unavailable, using gradient", zap.Error(err))
	default:
		a.log.Warn("no sky configured, using gradient", zap.Int("faces", len(a.cfg.Sky.Faces)))
	}
	return sky.NewGradientCubemap(a.dev, gradientSize, gradientZenith, gradientHorizon, gradientNadir)
}

func (a *App) loadFaces() ([6]image.Image, error) {
	var faces [6]image.Image
	for i, path := range a.cfg.Sky.Faces {
		img, err := a.assets.LoadImage(a.assetPath(path))
		if err != nil {
			return faces, err
		}
		faces[i] = img
	}
	return faces, nil
}

func (a *App) createTerrain() error {
	cfg := a.cfg.Terrain

	grid := a.assets.Mesh("Grid")
	if grid == nil || cfg.GridResolution != 128 {
		g := mesh.Grid(cfg.GridResolution)
		m, err := mesh.New(a.dev, "Terrain grid", g.Vertices, g.Indices)
		if err != nil {
			return err
		}
		a.terrainGrid = m
		grid = m
	}

	mat := a.world.Material(cfg.Material)
	if mat == nil {
		var err error
		mat, err = a.terrainMaterial(cfg.Material)
		if err != nil {
			return err
		}
		a.world.Materials = append(a.world.Materials, mat)
	}

	t, err := terrain.New(a.dev, a.assets, grid, mat, cfg.Dimension, cfg.Frequency)
	if err != nil {
		return err
	}
	a.terrain = t
	return nil
}

func (a *App) terrainMaterial(name string) (*material.Material, error) {
	mat, _, err := buildMaterial(a.assets, MaterialDesc{
		Name:         name,
		VertexShader: "HeightMap",
		PixelShader:  "PixelShaderPBR",
		Tint:         [4]float32{1, 1, 1, 1},
		UVScale:      [2]float32{8, 8},
	})
	return mat, err
}

// Update applies the held controls to the camera and advances the animations and emitters.
func (a *App) Update(dt float32, src input.Source) {
	if src != nil {
		a.controls.Apply(src, a.camera, dt)
	}
	a.world.Update(dt)
}

// Render draws one frame and presents it.
func (a *App) Render(dt float32) error {
	return a.renderer.Render(a.camera, a.world.Materials, dt)
}

// Frame is Update followed by Render.
func (a *App) Frame(dt float32, src input.Source) error {
	a.Update(dt, src)
	return a.Render(dt)
}

// Resize resizes the back buffer and render targets. Unchanged or empty sizes are ignored.
func (a *App) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if w, h := a.renderer.Size(); w == width && h == height {
		return nil
	}
	return a.renderer.Resize(width, height, a.camera)
}

// RegenerateLights scatters a new set of random point lights.
func (a *App) RegenerateLights() {
	a.world.RegenerateLights(a.rng)
	a.renderer.SetLights(a.world.Lights)
	a.log.Debug("lights regenerated", zap.Int("count", len(a.world.Lights)))
}

// Screenshot saves the last presented frame.
func (a *App) Screenshot() (string, error) {
	return a.screenshots.Capture(a.dev, a.dev.BackBuffer(), "")
}

// SaveTarget saves one intermediate render target.
func (a *App) SaveTarget(t renderer.Target) (string, error) {
	return a.screenshots.Capture(a.dev, a.renderer.TargetTexture(t), t.String())
}

// ImportOBJ loads a Wavefront OBJ file and places it in front of the camera
// with the first material of the scene. Imported meshes are keyed by their
// absolute path, so a file is loaded once and never shadows a built-in mesh.
func (a *App) ImportOBJ(path string) (scene.Renderable, error) {
	if len(a.world.Materials) == 0 {
		return nil, errors.New("import: scene has no materials")
	}

	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	m := a.assets.Mesh(key)
	if m == nil {
		m, err = mesh.LoadOBJ(a.dev, path)
		if err != nil {
			return nil, err
		}
		a.assets.AddMesh(key, m)
	}

	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]

	e := scene.NewEntity(name, m, a.world.Materials[0])
	e.Transform().SetPosition(a.camera.Position().Add(a.camera.Forward().Mul(ImportDistance)))
	e.Transform().StorePrevWorld()
	a.world.Entities = append(a.world.Entities, e)
	a.renderer.AddEntity(e)
	a.log.Info("mesh imported", zap.String("path", path), zap.Int("vertices", m.VertexCount()))
	return e, nil
}

func (a *App) Config() *config.Config                { return a.cfg }
func (a *App) Device() gpu.Device                    { return a.dev }
func (a *App) Assets() *assets.Manager               { return a.assets }
func (a *App) World() *World                         { return a.world }
func (a *App) Renderer() *renderer.Renderer          { return a.renderer }
func (a *App) Camera() *camera.Camera                { return a.camera }
func (a *App) Sky() *sky.Sky                         { return a.sky }
func (a *App) Screenshots() *debug.ScreenshotCapture { return a.screenshots }

// Terrain returns the terrain, or nil when it is disabled.
func (a *App) Terrain() *terrain.Terrain { return a.terrain }

// Close releases everything New created. It is safe on a partially built App.
func (a *App) Close() {
	if a.renderer != nil {
		a.renderer.Close()
		a.renderer = nil
	}
	if a.terrain != nil {
		a.terrain.Release()
		a.terrain = nil
	}
	if a.terrainGrid != nil {
		a.terrainGrid.Release()
		a.terrainGrid = nil
	}
	if a.sky != nil {
		a.sky.Release()
		a.sky = nil
	}
	if a.environment != nil {
		a.environment.Release()
		a.environment = nil
	}
	if a.world != nil {
		a.world.Release()
		a.world = nil
	}
	if a.assets != nil {
		a.assets.Close()
		a.assets = nil
	}
}
