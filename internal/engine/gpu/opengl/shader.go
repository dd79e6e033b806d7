package opengl

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

type uniformBlock struct {
	binding uint32
	ubo     uint32
	data    []byte
	dirty   bool
}

// Shader is a separable program for one stage.
type Shader struct {
	dev     *Device
	stage   gpu.Stage
	name    string
	program uint32

	locations map[string]int32
	units     map[string]uint32 // sampler uniform -> texture unit
	images    map[string]uint32 // image uniform -> image unit
	blocks    map[string]*uniformBlock
	storage   map[string]uint32 // storage block -> binding

	// Sampler routing from "#pragma sampler <texture> <sampler>" lines.
	pragmas        map[string]string
	samplers       map[string]*Sampler
	defaultSampler *Sampler
	bound          map[string]uint32 // texture uniform -> unit, for rebinding samplers

	groupSize [3]int
}

var _ gpu.Shader = (*Shader)(nil)

func glStage(stage gpu.Stage) (shaderType, stageBit uint32) {
	switch stage {
	case gpu.StageVertex:
		return gl.VERTEX_SHADER, gl.VERTEX_SHADER_BIT
	case gpu.StagePixel:
		return gl.FRAGMENT_SHADER, gl.FRAGMENT_SHADER_BIT
	default:
		return gl.COMPUTE_SHADER, gl.COMPUTE_SHADER_BIT
	}
}

// CreateShader compiles source into a separable program and reflects its parameters.
func (d *Device) CreateShader(stage gpu.Stage, name, source string) (gpu.Shader, error) {
	shaderType, _ := glStage(stage)
	sh, err := compileShader(source, shaderType, name)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(sh)

	program := gl.CreateProgram()
	gl.ProgramParameteri(program, gl.PROGRAM_SEPARABLE, gl.TRUE)
	gl.AttachShader(program, sh)
	gl.LinkProgram(program)
	gl.DetachShader(program, sh)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, max(logLen, 1))
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("link %s: %s", name, strings.TrimRight(string(log), "\x00"))
	}
	objectLabel(gl.PROGRAM, program, name)

	s := &Shader{
		dev:       d,
		stage:     stage,
		name:      name,
		program:   program,
		locations: make(map[string]int32),
		units:     make(map[string]uint32),
		images:    make(map[string]uint32),
		blocks:    make(map[string]*uniformBlock),
		storage:   make(map[string]uint32),
		pragmas:   parseSamplerPragmas(source),
		samplers:  make(map[string]*Sampler),
		bound:     make(map[string]uint32),
	}
	s.reflect()

	d.log.Debug("shader created",
		zap.String("name", name),
		zap.Stringer("stage", stage),
		zap.Int("uniforms", len(s.locations)),
		zap.Int("blocks", len(s.blocks)),
	)
	return s, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, max(logLen, 1))
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile %s: %s", name, strings.TrimRight(string(log), "\x00"))
	}

	return shader, nil
}

// parseSamplerPragmas maps texture names to sampler names.
func parseSamplerPragmas(source string) map[string]string {
	pragmas := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(source))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 4 && fields[0] == "#pragma" && fields[1] == "sampler" {
			pragmas[fields[2]] = fields[3]
		}
	}
	return pragmas
}

func (s *Shader) bases() (texture, block, storage uint32) {
	switch s.stage {
	case gpu.StageVertex:
		return vertexTextureBase, vertexBlockBase, vertexStorageBase
	case gpu.StagePixel:
		return pixelTextureBase, pixelBlockBase, pixelStorageBase
	default:
		return vertexTextureBase, computeBlockBase, computeStorageBase
	}
}

func (s *Shader) reflect() {
	textureUnit, blockBinding, storageBinding := s.bases()
	var imageUnit uint32
	name := make([]uint8, 256)

	var count int32
	gl.GetProgramiv(s.program, gl.ACTIVE_UNIFORMS, &count)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(s.program, i, int32(len(name)), &length, &size, &xtype, &name[0])

		var block int32
		gl.GetActiveUniformsiv(s.program, 1, &i, gl.UNIFORM_BLOCK_INDEX, &block)
		if block != -1 {
			continue
		}

		uniform := strings.TrimSuffix(string(name[:length]), "[0]")
		loc := gl.GetUniformLocation(s.program, gl.Str(uniform+"\x00"))
		if loc < 0 {
			continue
		}
		s.locations[uniform] = loc

		switch xtype {
		case gl.SAMPLER_2D, gl.SAMPLER_CUBE:
			gl.ProgramUniform1i(s.program, loc, int32(textureUnit))
			s.units[uniform] = textureUnit
			textureUnit++
		case gl.IMAGE_2D:
			gl.ProgramUniform1i(s.program, loc, int32(imageUnit))
			s.images[uniform] = imageUnit
			imageUnit++
		}
	}

	gl.GetProgramiv(s.program, gl.ACTIVE_UNIFORM_BLOCKS, &count)
	for i := uint32(0); i < uint32(count); i++ {
		var length, dataSize int32
		gl.GetActiveUniformBlockName(s.program, i, int32(len(name)), &length, &name[0])
		gl.GetActiveUniformBlockiv(s.program, i, gl.UNIFORM_BLOCK_DATA_SIZE, &dataSize)

		b := &uniformBlock{binding: blockBinding, data: make([]byte, dataSize)}
		gl.UniformBlockBinding(s.program, i, b.binding)
		gl.GenBuffers(1, &b.ubo)
		gl.BindBuffer(gl.UNIFORM_BUFFER, b.ubo)
		gl.BufferData(gl.UNIFORM_BUFFER, int(dataSize), nil, gl.DYNAMIC_DRAW)
		gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

		s.blocks[string(name[:length])] = b
		blockBinding++
	}

	gl.GetProgramInterfaceiv(s.program, gl.SHADER_STORAGE_BLOCK, gl.ACTIVE_RESOURCES, &count)
	for i := uint32(0); i < uint32(count); i++ {
		var length int32
		gl.GetProgramResourceName(s.program, gl.SHADER_STORAGE_BLOCK, i, int32(len(name)), &length, &name[0])
		gl.ShaderStorageBlockBinding(s.program, i, storageBinding)
		s.storage[string(name[:length])] = storageBinding
		storageBinding++
	}

	if s.stage == gpu.StageCompute {
		var sizes [3]int32
		gl.GetProgramiv(s.program, gl.COMPUTE_WORK_GROUP_SIZE, &sizes[0])
		s.groupSize = [3]int{int(sizes[0]), int(sizes[1]), int(sizes[2])}
	}
}

func (s *Shader) Stage() gpu.Stage { return s.stage }
func (s *Shader) Name() string     { return s.name }
func (s *Shader) IsValid() bool    { return s.program != 0 }

func (s *Shader) ThreadGroupSize() [3]int { return s.groupSize }

// Bind attaches the program to the pipeline, or makes a compute program current.
func (s *Shader) Bind() {
	if s.stage == gpu.StageCompute {
		gl.UseProgram(s.program)
		s.dev.compute = s
	} else {
		_, bit := glStage(s.stage)
		gl.UseProgram(0)
		gl.BindProgramPipeline(s.dev.pipeline)
		gl.UseProgramStages(s.dev.pipeline, bit, s.program)
	}
	for _, b := range s.blocks {
		gl.BindBufferBase(gl.UNIFORM_BUFFER, b.binding, b.ubo)
	}
}

func (s *Shader) SetInt(name string, v int32) {
	if loc, ok := s.locations[name]; ok {
		gl.ProgramUniform1i(s.program, loc, v)
	}
}

func (s *Shader) SetFloat(name string, v float32) {
	if loc, ok := s.locations[name]; ok {
		gl.ProgramUniform1f(s.program, loc, v)
	}
}

func (s *Shader) SetFloat2(name string, v mgl32.Vec2) {
	if loc, ok := s.locations[name]; ok {
		gl.ProgramUniform2f(s.program, loc, v[0], v[1])
	}
}

func (s *Shader) SetFloat3(name string, v mgl32.Vec3) {
	if loc, ok := s.locations[name]; ok {
		gl.ProgramUniform3f(s.program, loc, v[0], v[1], v[2])
	}
}

func (s *Shader) SetFloat4(name string, v mgl32.Vec4) {
	if loc, ok := s.locations[name]; ok {
		gl.ProgramUniform4f(s.program, loc, v[0], v[1], v[2], v[3])
	}
}

func (s *Shader) SetMatrix4x4(name string, m mgl32.Mat4) {
	if loc, ok := s.locations[name]; ok {
		gl.ProgramUniformMatrix4fv(s.program, loc, 1, false, &m[0])
	}
}

func (s *Shader) SetData(name string, data []byte) {
	b, ok := s.blocks[name]
	if !ok {
		return
	}
	n := copy(b.data, data)
	clear(b.data[n:])
	b.dirty = true
}

func (s *Shader) CopyAllBufferData() {
	for _, b := range s.blocks {
		if !b.dirty {
			continue
		}
		gl.BindBuffer(gl.UNIFORM_BUFFER, b.ubo)
		gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(b.data), gl.Ptr(b.data))
		gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
		gl.BindBufferBase(gl.UNIFORM_BUFFER, b.binding, b.ubo)
		b.dirty = false
	}
}

// samplerFor resolves the sampler a texture samples through.
func (s *Shader) samplerFor(texture string) *Sampler {
	if name, ok := s.pragmas[texture]; ok {
		return s.samplers[name]
	}
	return s.defaultSampler
}

func (s *Shader) SetTexture(name string, t gpu.Texture) {
	unit, ok := s.units[name]
	if !ok {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	if t == nil {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
		delete(s.bound, name)
	} else {
		tex := t.(*Texture)
		gl.BindTexture(tex.target, tex.id)
		s.bound[name] = unit
	}
	gl.ActiveTexture(gl.TEXTURE0)

	var id uint32
	if smp := s.samplerFor(name); smp != nil {
		id = smp.id
	}
	gl.BindSampler(unit, id)
}

func (s *Shader) SetStorageTexture(name string, t gpu.Texture) {
	unit, ok := s.images[name]
	if !ok {
		return
	}
	if t == nil {
		gl.BindImageTexture(unit, 0, 0, false, 0, gl.READ_WRITE, gl.R32F)
		return
	}
	tex := t.(*Texture)
	info, err := glFormat(tex.desc.Format)
	if err != nil {
		s.dev.log.Warn("storage texture format", zap.String("shader", s.name), zap.Error(err))
		return
	}
	gl.BindImageTexture(unit, tex.id, 0, false, 0, gl.READ_WRITE, info.internal)
}

// SetSampler sets a named sampler. A sampler no pragma names becomes the
// default for every unrouted texture.
func (s *Shader) SetSampler(name string, smp gpu.Sampler) {
	var sampler *Sampler
	if smp != nil {
		sampler = smp.(*Sampler)
	}
	s.samplers[name] = sampler

	routed := false
	for _, target := range s.pragmas {
		if target == name {
			routed = true
			break
		}
	}
	if !routed {
		s.defaultSampler = sampler
	}

	for texture, unit := range s.bound {
		var id uint32
		if smp := s.samplerFor(texture); smp != nil {
			id = smp.id
		}
		gl.BindSampler(unit, id)
	}
}

func (s *Shader) SetBuffer(name string, b gpu.Buffer) {
	s.bindStorage(name, b)
}

func (s *Shader) SetStorageBuffer(name string, b gpu.Buffer) {
	s.bindStorage(name, b)
}

func (s *Shader) bindStorage(name string, b gpu.Buffer) {
	binding, ok := s.storage[name]
	if !ok {
		return
	}
	var id uint32
	if b != nil {
		id = b.(*Buffer).id
	}
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, binding, id)
}

// Release deletes the program and its uniform buffers.
func (s *Shader) Release() {
	for _, b := range s.blocks {
		gl.DeleteBuffers(1, &b.ubo)
	}
	s.blocks = nil
	if s.program != 0 {
		gl.DeleteProgram(s.program)
		s.program = 0
	}
}
