// Package shader compiles GLSL programs and caches their uniform locations.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Build errors. The wrapped message carries the driver's info log.
var (
	ErrCompile = errors.New("shader compile failed")
	ErrLink    = errors.New("shader link failed")
)

// Program is a linked vertex+fragment program. It must be used from the
// goroutine that owns the GL context.
type Program struct {
	id       uint32
	uniforms map[string]int32
}

// NewProgram compiles both stages and links them.
func NewProgram(vertexSrc, fragmentSrc string) (*Program, error) {
	vs, err := compile(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return nil, fmt.Errorf("vertex stage: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compile(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("fragment stage: %w", err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		var n int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &n)
		msg := infoLog(n, func(buf *uint8) { gl.GetProgramInfoLog(id, n, nil, buf) })
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("%w: %s", ErrLink, msg)
	}
	return &Program{id: id, uniforms: make(map[string]int32)}, nil
}

func compile(kind uint32, src string) (uint32, error) {
	id := gl.CreateShader(kind)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(id, 1, csrc, nil)
	free()
	gl.CompileShader(id)

	var ok int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		var n int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &n)
		msg := infoLog(n, func(buf *uint8) { gl.GetShaderInfoLog(id, n, nil, buf) })
		gl.DeleteShader(id)
		return 0, fmt.Errorf("%w: %s", ErrCompile, msg)
	}
	return id, nil
}

func infoLog(n int32, read func(*uint8)) string {
	buf := make([]byte, n+1)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n ")
}

// Use makes p the current program.
func (p *Program) Use() { gl.UseProgram(p.id) }

// Uniform returns the location of name, or -1 when the linker dropped it.
// Lookups are cached.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// SetMat4 uploads a column-major matrix. p must be in use.
func (p *Program) SetMat4(name string, m [16]float32) {
	gl.UniformMatrix4fv(p.Uniform(name), 1, false, &m[0])
}

// SetVec3 uploads a vector. p must be in use.
func (p *Program) SetVec3(name string, v [3]float32) {
	gl.Uniform3fv(p.Uniform(name), 1, &v[0])
}

// SetInt uploads an integer, typically a sampler unit. p must be in use.
func (p *Program) SetInt(name string, v int32) {
	gl.Uniform1i(p.Uniform(name), v)
}

// Delete releases the program. It is safe to call more than once.
func (p *Program) Delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}
