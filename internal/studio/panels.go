package studio

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/terrain"
	"github.com/Faultbox/prism/internal/engine/ui"
)

const (
	panelWidth      = 420
	panelHeight     = 640
	previewSize     = 128
	materialsPerRow = 4
	maxBlurSetting  = 64
)

func header(label string) bool {
	return imgui.CollapsingHeaderTreeNodeFlagsV(label, imgui.TreeNodeFlagsNone)
}

// sameRow reports whether item i continues the current row of a grid that
// holds perRow items per row.
func sameRow(i, perRow int) bool {
	return perRow > 0 && i%perRow != 0
}

func (s *Studio) drawInfo(frame renderer.FrameInfo, pos imgui.Vec2) {
	imgui.SetNextWindowPosV(imgui.NewVec2(pos.X+10, pos.Y+10), imgui.CondFirstUseEver, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(panelWidth, panelHeight), imgui.CondFirstUseEver)
	if imgui.BeginV("Program Info", nil, imgui.WindowFlagsNoCollapse) {
		s.drawSummary(frame)
		s.drawLights()
		s.drawEntities(frame.Materials)
		s.drawMaterials(frame.Materials)
		s.drawTargets()
		s.drawMotionBlur()
		s.drawTerrain()
		s.drawEmitters()
		drawCamera(frame.Camera)
	}
	imgui.End()
}

func (s *Studio) drawSummary(frame renderer.FrameInfo) {
	r := s.app.Renderer()
	imgui.Text(fmt.Sprintf("Framerate: %.0f fps", s.fps.FPS()))
	imgui.Text(fmt.Sprintf("Window: %dx%d  aspect %.3f", frame.Width, frame.Height, frame.Camera.Aspect()))
	imgui.Text(fmt.Sprintf("Entities: %d  Lights: %d  Emitters: %d",
		len(r.Entities()), len(r.Lights()), len(r.Emitters())))
	imgui.TextDisabled("WASD move, Space/E up, X/Q down, Shift fast, Ctrl slow, drag to look")
	imgui.Separator()
}

func (s *Studio) drawLights() {
	if !header("Lights") {
		return
	}
	if imgui.ButtonV("Regenerate point lights (Tab)", imgui.NewVec2(-1, 0)) {
		s.app.RegenerateLights()
	}

	lights := s.app.Renderer().Lights()
	for i := range lights {
		l := &lights[i]
		imgui.PushIDInt(int32(i))
		if imgui.TreeNodeExStrV(fmt.Sprintf("%d: %s", i, l.Kind), imgui.TreeNodeFlagsNone) {
			editLight(l)
			imgui.TreePop()
		}
		imgui.PopID()
	}
}

func editLight(l *lighting.Light) {
	imgui.ColorEdit3("Color", (*[3]float32)(&l.Color))

	switch l.Kind {
	case lighting.Directional:
		lon, lat := lighting.Angles(l.Direction)
		lonChanged := imgui.SliderFloatV("Longitude", &lon, -180, 180, "%.0f deg", imgui.SliderFlagsNone)
		latChanged := imgui.SliderFloatV("Latitude", &lat, -89, 89, "%.0f deg", imgui.SliderFlagsNone)
		if lonChanged || latChanged {
			l.Direction = lighting.DirectionFromAngles(lon, lat)
		}
	case lighting.Point:
		imgui.DragFloat3V("Position", (*[3]float32)(&l.Position), 0.05, 0, 0, "%.2f", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Range", &l.Range, 0.1, 20, "%.1f", imgui.SliderFlagsNone)
	}

	imgui.SliderFloatV("Intensity", &l.Intensity, 0, 5, "%.2f", imgui.SliderFlagsNone)
}

type materialSetter interface {
	SetMaterial(m *material.Material)
}

func (s *Studio) drawEntities(materials []*material.Material) {
	if !header("Entities") {
		return
	}
	for i, e := range s.app.Renderer().Entities() {
		imgui.PushIDInt(int32(i))
		if imgui.TreeNodeExStrV(e.Name(), imgui.TreeNodeFlagsNone) {
			editTransform(e.Transform())
			if setter, ok := e.(materialSetter); ok {
				imgui.Text("Material")
				pickMaterial(setter, e.Material(), materials)
			}
			imgui.TreePop()
		}
		imgui.PopID()
	}
}

func editTransform(t *scene.Transform) {
	pos := [3]float32(t.Position())
	if imgui.DragFloat3V("Position", &pos, 0.05, 0, 0, "%.2f", imgui.SliderFlagsNone) {
		t.SetPosition(pos)
	}
	rot := [3]float32(t.Rotation())
	if imgui.DragFloat3V("Rotation", &rot, 0.01, 0, 0, "%.2f", imgui.SliderFlagsNone) {
		t.SetRotation(rot)
	}
	scale := [3]float32(t.Scale())
	if imgui.DragFloat3V("Scale", &scale, 0.01, 0.01, 100, "%.2f", imgui.SliderFlagsNone) {
		t.SetScale(scale)
	}
}

func pickMaterial(e materialSetter, current *material.Material, materials []*material.Material) {
	for i, m := range materials {
		if sameRow(i, materialsPerRow) {
			imgui.SameLine()
		}
		if imgui.RadioButtonBool(m.Name(), m == current) {
			e.SetMaterial(m)
		}
	}
}

func (s *Studio) drawMaterials(materials []*material.Material) {
	if !header("Materials") {
		return
	}
	for i, m := range materials {
		imgui.PushIDInt(int32(i))
		if imgui.TreeNodeExStrV(m.Name(), imgui.TreeNodeFlagsNone) {
			editMaterial(m)
			imgui.TreePop()
		}
		imgui.PopID()
	}
}

func editMaterial(m *material.Material) {
	imgui.TextDisabled(fmt.Sprintf("%s / %s", m.VertexShader().Name(), m.PixelShader().Name()))

	tint := [4]float32(m.Tint())
	if imgui.ColorEdit4("Tint", &tint) {
		m.SetTint(tint)
	}
	uv := [2]float32(m.UVScale())
	if imgui.DragFloat2V("UV scale", &uv, 0.05, 0.05, 32, "%.2f", imgui.SliderFlagsNone) {
		m.SetUVScale(uv)
	}
	if m.Refractive() {
		idx := m.RefractionIndex()
		if imgui.SliderFloatV("Refraction index", &idx, 0, 3, "%.2f", imgui.SliderFlagsNone) {
			m.SetRefraction(true, idx)
		}
	}

	for _, name := range m.TextureNames() {
		preview(name, m.Texture(name), false)
	}
}

// preview draws t scaled to previewSize points wide, keeping its aspect.
func preview(label string, t gpu.Texture, flipV bool) {
	if t == nil {
		return
	}
	id, ok := ui.TextureID(t)
	if !ok {
		return
	}
	imgui.Text(fmt.Sprintf("%s (%dx%d %s)", label, t.Width(), t.Height(), t.Descriptor().Format))
	h := float32(previewSize)
	if t.Width() > 0 {
		h = previewSize * float32(t.Height()) / float32(t.Width())
	}
	ui.Image(id, previewSize, h, flipV)
}

func (s *Studio) drawTargets() {
	if !header("Render Targets") {
		return
	}
	r := s.app.Renderer()
	for i, t := range r.Targets() {
		target := renderer.Target(i)
		imgui.PushIDInt(int32(i))
		preview(target.String(), t, true)
		if imgui.Button("Save") {
			s.saveTarget(target)
		}
		imgui.PopID()
	}
	if sk := s.app.Sky(); sk != nil {
		preview("BRDF look-up", sk.BRDFLookUp(), true)
		imgui.Text(fmt.Sprintf("Specular mips: %d", sk.SpecularMipLevels()))
	}
}

func (s *Studio) saveTarget(t renderer.Target) {
	path, err := s.app.SaveTarget(t)
	if err != nil {
		s.log.Error("save target failed", zap.Stringer("target", t), zap.Error(err))
		s.notify("Save failed: " + err.Error())
		return
	}
	s.notify("Saved " + path)
}

func (s *Studio) drawMotionBlur() {
	if !header("Motion Blur") {
		return
	}
	samples := imgui.SliderIntV("Samples", &s.blurSamples, 0, maxBlurSetting, "%d", imgui.SliderFlagsNone)
	maxBlur := imgui.SliderIntV("Max length (px)", &s.blurMax, 0, maxBlurSetting, "%d", imgui.SliderFlagsNone)
	if samples || maxBlur {
		s.app.Renderer().SetMotionBlur(int(s.blurSamples), int(s.blurMax))
	}
	if s.blurSamples == 0 || s.blurMax == 0 {
		imgui.TextDisabled("Motion blur is off")
	}
}

func (s *Studio) drawTerrain() {
	t := s.app.Terrain()
	if t == nil || !header("Terrain") {
		return
	}

	imgui.Text("Dimension")
	for i, d := range terrain.Dimensions {
		if sameRow(i, len(terrain.Dimensions)) {
			imgui.SameLine()
		}
		if imgui.RadioButtonBool(fmt.Sprint(d), d == t.Dimension()) && d != t.Dimension() {
			s.regenerateTerrain(t, d, t.Frequency())
		}
	}

	imgui.Text("Frequency")
	for i, f := range terrain.Frequencies {
		if sameRow(i, len(terrain.Frequencies)) {
			imgui.SameLine()
		}
		if imgui.RadioButtonBool(fmt.Sprintf("%gx", f), f == t.Frequency()) && f != t.Frequency() {
			s.regenerateTerrain(t, t.Dimension(), f)
		}
	}

	preview("Height", t.HeightView(), false)
}

func (s *Studio) regenerateTerrain(t *terrain.Terrain, dimension int, frequency float32) {
	t.SetFrequency(frequency)
	if err := t.CreateTerrain(dimension, s.app.Device()); err != nil {
		s.log.Error("terrain regeneration failed", zap.Error(err))
		s.notify("Terrain failed: " + err.Error())
	}
}

func (s *Studio) drawEmitters() {
	if !header("Emitters") {
		return
	}
	for i, e := range s.app.Renderer().Emitters() {
		imgui.PushIDInt(int32(i))
		if imgui.TreeNodeExStrV(fmt.Sprintf("%s (%d/%d)", e.Name(), e.LiveCount(), e.Capacity()), imgui.TreeNodeFlagsNone) {
			start, end := e.Colors()
			startRGBA, endRGBA := [4]float32(start), [4]float32(end)
			startChanged := imgui.ColorEdit4("Start color", &startRGBA)
			endChanged := imgui.ColorEdit4("End color", &endRGBA)
			if startChanged || endChanged {
				e.SetColor(startRGBA, endRGBA)
			}

			accel := [3]float32(e.Acceleration())
			if imgui.DragFloat3V("Acceleration", &accel, 0.05, 0, 0, "%.2f", imgui.SliderFlagsNone) {
				e.SetAcceleration(accel)
			}
			editTransform(e.Transform())
			imgui.TreePop()
		}
		imgui.PopID()
	}
}

func drawCamera(cam *camera.Camera) {
	if !header("Camera") {
		return
	}
	p := cam.Position()
	imgui.Text(fmt.Sprintf("Position: %.2f, %.2f, %.2f", p.X(), p.Y(), p.Z()))
	imgui.Text(fmt.Sprintf("Yaw %.2f  Pitch %.2f", cam.Yaw(), cam.Pitch()))
	imgui.SliderFloatV("Move speed", &cam.MoveSpeed, 0.5, 20, "%.1f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Look speed", &cam.LookSpeed, 0.1, 5, "%.2f", imgui.SliderFlagsNone)
}
