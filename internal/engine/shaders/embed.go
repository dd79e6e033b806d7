// Package shaders provides the embedded GLSL sources of the engine.
//
// Program files are named after the shader they define (VertexShader.vert,
// PixelShaderPBR.frag, TerrainGeneration.comp, ...). Files ending in .glsl are
// fragments pulled in by an `#include "file.glsl"` line.
package shaders

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

//go:embed glsl
var files embed.FS

// Extensions that define a program, mapped to their stage.
var stageByExt = map[string]gpu.Stage{
	".vert": gpu.StageVertex,
	".frag": gpu.StagePixel,
	".comp": gpu.StageCompute,
}

// StageOf returns the stage a shader file compiles to.
func StageOf(file string) (gpu.Stage, bool) {
	stage, ok := stageByExt[path.Ext(file)]
	return stage, ok
}

// Name strips the extension from a shader file name.
func Name(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Program is an embedded shader ready to compile.
type Program struct {
	Name   string
	Stage  gpu.Stage
	Source string
}

// FS returns the embedded sources rooted at the glsl directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "glsl")
	if err != nil {
		panic(err)
	}
	return sub
}

// Programs returns every embedded program with includes expanded, sorted by name.
func Programs() ([]Program, error) {
	src := FS()
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, err
	}

	var programs []Program
	for _, e := range entries {
		stage, ok := StageOf(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		source, err := Expand(src, e.Name())
		if err != nil {
			return nil, err
		}
		programs = append(programs, Program{Name: Name(e.Name()), Stage: stage, Source: source})
	}
	sort.Slice(programs, func(i, j int) bool { return programs[i].Name < programs[j].Name })
	return programs, nil
}

// Expand reads file from fsys and replaces each #include line with the
// included file. A file is included at most once.
func Expand(fsys fs.FS, file string) (string, error) {
	var b strings.Builder
	if err := expand(fsys, file, &b, map[string]bool{}, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

func expand(fsys fs.FS, file string, b *strings.Builder, seen map[string]bool, stack []string) error {
	for _, s := range stack {
		if s == file {
			return fmt.Errorf("include cycle: %s -> %s", strings.Join(stack, " -> "), file)
		}
	}
	if seen[file] {
		return nil
	}
	seen[file] = true

	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, "#include") {
			b.WriteString(text)
			b.WriteByte('\n')
			continue
		}

		name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#include"))
		if len(name) < 2 || name[0] != '"' || name[len(name)-1] != '"' {
			return fmt.Errorf("%s:%d: malformed include %q", file, line, trimmed)
		}
		included := path.Join(path.Dir(file), name[1:len(name)-1])
		if err := expand(fsys, included, b, seen, append(stack, file)); err != nil {
			return err
		}
	}
	return sc.Err()
}
