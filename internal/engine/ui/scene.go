package ui

import "github.com/AllenDang/cimgui-go/imgui"

// DrawSceneTexture draws a GL texture as a borderless background window
// that takes no input. V is flipped because GL textures start at the bottom row.
func DrawSceneTexture(x, y, w, h float32, textureID uint32) {
	if textureID == 0 {
		return
	}

	imgui.SetNextWindowPos(imgui.NewVec2(x, y))
	imgui.SetNextWindowSize(imgui.NewVec2(w, h))

	flags := imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoResize |
		imgui.WindowFlagsNoMove | imgui.WindowFlagsNoScrollbar |
		imgui.WindowFlagsNoScrollWithMouse | imgui.WindowFlagsNoBringToFrontOnFocus |
		imgui.WindowFlagsNoInputs | imgui.WindowFlagsNoSavedSettings

	imgui.PushStyleVarVec2(imgui.StyleVarWindowPadding, imgui.NewVec2(0, 0))
	if imgui.BeginV("##Scene", nil, flags) {
		Image(textureID, w, h, true)
	}
	imgui.End()
	imgui.PopStyleVar()
}

// Image draws a GL texture inline at w x h points. Render targets need
// flipV; uploaded images and compute outputs start at the top row.
func Image(textureID uint32, w, h float32, flipV bool) {
	uv0, uv1 := imgui.NewVec2(0, 0), imgui.NewVec2(1, 1)
	if flipV {
		uv0, uv1 = imgui.NewVec2(0, 1), imgui.NewVec2(1, 0)
	}
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(textureID))
	imgui.ImageV(*texRef, imgui.NewVec2(w, h), uv0, uv1)
}

// TextureID returns the GL name of t when the device exposes one.
func TextureID(t any) (uint32, bool) {
	named, ok := t.(interface{ ID() uint32 })
	if !ok {
		return 0, false
	}
	id := named.ID()
	return id, id != 0
}
