package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/shaders"
)

// Subdirectories LoadDirectory scans.
const (
	MeshDir    = "meshes"
	TextureDir = "textures"
	ShaderDir  = "shaders"
)

var textureExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tif": true, ".tiff": true, ".webp": true, ".tga": true,
}

// LoadDirectory loads the built-in assets and then everything under root.
// Files under root override built-ins of the same name. A missing root only
// loads the built-ins. Shaders that fail to compile are logged and skipped.
func (m *Manager) LoadDirectory(root string) error {
	if err := m.LoadBuiltins(); err != nil {
		return err
	}
	if root == "" {
		return nil
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		m.log.Warn("asset directory not found, using built-in assets", zap.String("root", root))
		return nil
	}

	if err := m.loadShaderDir(filepath.Join(root, ShaderDir)); err != nil {
		return err
	}
	if err := m.loadMeshDir(filepath.Join(root, MeshDir)); err != nil {
		return err
	}
	return m.loadTextureDir(filepath.Join(root, TextureDir))
}

// LoadBuiltins compiles the embedded shaders and registers the primitive
// meshes, default samplers and solid color textures.
func (m *Manager) LoadBuiltins() error {
	programs, err := shaders.Programs()
	if err != nil {
		return fmt.Errorf("embedded shaders: %w", err)
	}
	for _, p := range programs {
		m.compile(p.Stage, p.Name, p.Source)
	}

	primitives := map[string]mesh.Geometry{
		"Cube":   mesh.Cube(),
		"Sphere": mesh.Sphere(32, 16),
		"Grid":   mesh.Grid(128),
	}
	for _, name := range []string{"Cube", "Sphere", "Grid"} {
		g := primitives[name]
		mm, err := mesh.New(m.dev, name, g.Vertices, g.Indices)
		if err != nil {
			return fmt.Errorf("primitive %s: %w", name, err)
		}
		m.AddMesh(name, mm)
	}

	if err := m.createSamplers(); err != nil {
		return err
	}
	return m.createSolidTextures()
}

// compile creates a shader and registers it. Failures leave the name absent.
func (m *Manager) compile(stage gpu.Stage, name, source string) {
	s, err := m.dev.CreateShader(stage, name, source)
	if err != nil {
		m.log.Error("shader compile failed", zap.String("name", name), zap.Stringer("stage", stage), zap.Error(err))
		return
	}
	if !s.IsValid() {
		m.log.Error("shader invalid", zap.String("name", name), zap.Stringer("stage", stage))
		return
	}
	m.AddShader(s)
}

func (m *Manager) createSamplers() error {
	descs := []gpu.SamplerDescriptor{
		{Label: "BasicSampler", Filter: gpu.FilterAnisotropic, Address: gpu.AddressWrap, MaxAnisotropy: 16},
		{Label: "ClampSampler", Filter: gpu.FilterLinear, Address: gpu.AddressClamp},
	}
	for _, d := range descs {
		s, err := m.dev.CreateSampler(d)
		if err != nil {
			return fmt.Errorf("sampler %s: %w", d.Label, err)
		}
		m.AddSampler(d.Label, s)
	}
	return nil
}

// Solid color textures used when a material has no map of its own.
var solidTextures = map[string][4]byte{
	"White":      {255, 255, 255, 255},
	"Black":      {0, 0, 0, 255},
	"FlatNormal": {128, 128, 255, 255},
}

func (m *Manager) createSolidTextures() error {
	names := make([]string, 0, len(solidTextures))
	for name := range solidTextures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := solidTextures[name]
		t, err := m.dev.CreateTexture(gpu.TextureDescriptor{
			Label:  name,
			Format: gpu.FormatRGBA8,
			Width:  1,
			Height: 1,
			Usage:  gpu.UsageSampled,
		}, c[:])
		if err != nil {
			return fmt.Errorf("texture %s: %w", name, err)
		}
		m.AddTexture(name, t)
	}
	return nil
}

// readFile reads path through the cache.
func (m *Manager) readFile(path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m.cache.Set(path, data)
	return data, nil
}

// listDir returns the regular files of dir, sorted, or nothing when dir does not exist.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// loadShaderDir compiles .vert/.frag/.comp files, resolving includes
// against the directory first and the embedded sources second.
func (m *Manager) loadShaderDir(dir string) error {
	files, err := listDir(dir)
	if err != nil {
		return fmt.Errorf("listing shaders: %w", err)
	}
	fsys := overlayFS{primary: os.DirFS(dir), fallback: shaders.FS()}
	for _, path := range files {
		stage, ok := shaders.StageOf(path)
		if !ok {
			continue
		}
		source, err := shaders.Expand(fsys, filepath.Base(path))
		if err != nil {
			m.log.Error("shader source", zap.String("path", path), zap.Error(err))
			continue
		}
		m.compile(stage, shaders.Name(path), source)
		m.log.Debug("shader override loaded", zap.String("path", path))
	}
	return nil
}

func (m *Manager) loadMeshDir(dir string) error {
	files, err := listDir(dir)
	if err != nil {
		return fmt.Errorf("listing meshes: %w", err)
	}
	for _, path := range files {
		if !strings.EqualFold(filepath.Ext(path), ".obj") {
			continue
		}
		data, err := m.readFile(path)
		if err != nil {
			return fmt.Errorf("mesh %s: %w", path, err)
		}
		g, err := mesh.ParseOBJ(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("mesh %s: %w", path, err)
		}
		name := baseName(path)
		mm, err := mesh.New(m.dev, name, g.Vertices, g.Indices)
		if err != nil {
			return fmt.Errorf("mesh %s: %w", path, err)
		}
		m.AddMesh(name, mm)
		m.log.Debug("mesh loaded", zap.String("name", name), zap.Int("vertices", mm.VertexCount()))
	}
	return nil
}

func (m *Manager) loadTextureDir(dir string) error {
	files, err := listDir(dir)
	if err != nil {
		return fmt.Errorf("listing textures: %w", err)
	}
	for _, path := range files {
		if !textureExts[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		if _, err := m.LoadTexture(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadTexture decodes an image file into an RGBA8 texture named after the file.
func (m *Manager) LoadTexture(path string) (gpu.Texture, error) {
	img, err := m.LoadImage(path)
	if err != nil {
		return nil, err
	}
	name := baseName(path)
	t, err := m.dev.CreateTexture(gpu.TextureDescriptor{
		Label:  name,
		Format: gpu.FormatRGBA8,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Usage:  gpu.UsageSampled,
	}, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}
	m.AddTexture(name, t)
	return t, nil
}

// LoadImage decodes an image file to tightly packed RGBA, top row first.
func (m *Manager) LoadImage(path string) (*image.RGBA, error) {
	data, err := m.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err := decodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts img to an RGBA image whose origin is (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// overlayFS reads from primary and falls back to fallback for missing files.
type overlayFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return f, err
}
