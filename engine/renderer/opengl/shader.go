package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type OpenGLShader struct {
	Program  uint32
	name     string
	uniforms map[string]int32
}

func glStage(stage metadata.ShaderStage) (uint32, error) {
	switch stage {
	case metadata.ShaderStageVertex:
		return gl.VERTEX_SHADER, nil
	case metadata.ShaderStageGeometry:
		return gl.GEOMETRY_SHADER, nil
	case metadata.ShaderStageFragment:
		return gl.FRAGMENT_SHADER, nil
	default:
		return 0, fmt.Errorf("unsupported shader stage %s", stage)
	}
}

func (r *OpenGLRenderer) ShaderCreate(config *metadata.ShaderConfig) (renderer.Shader, error) {
	shaders := make([]uint32, 0, len(config.Stages))
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()

	for _, stage := range config.Stages {
		glType, err := glStage(stage.Stage)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrShaderCompile, config.Name, err)
		}
		s, err := compileShader(stage.Source, glType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s stage: %w", core.ErrShaderCompile, config.Name, stage.Stage, err)
		}
		shaders = append(shaders, s)
	}

	program, err := newProgram(shaders, config.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrShaderLink, config.Name, err)
	}

	core.LogDebug("shader %s linked (program %d)", config.Name, program)
	return &OpenGLShader{
		Program:  program,
		name:     config.Name,
		uniforms: make(map[string]int32),
	}, nil
}

func newProgram(shaders []uint32, attributes []metadata.ShaderAttributeBinding) (uint32, error) {
	program := gl.CreateProgram()

	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	for _, a := range attributes {
		gl.BindAttribLocation(program, a.Location, gl.Str(a.Name+"\x00"))
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}

	for _, s := range shaders {
		gl.DetachShader(program, s)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile: %v", strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}

func (s *OpenGLShader) Name() string {
	return s.name
}

func (s *OpenGLShader) Use() {
	gl.UseProgram(s.Program)
}

// location resolves and caches a uniform location. Arrays may only be
// reported under their first element.
func (s *OpenGLShader) location(name string) (int32, error) {
	if loc, ok := s.uniforms[name]; ok {
		return loc, nil
	}
	loc := gl.GetUniformLocation(s.Program, gl.Str(name+"\x00"))
	if loc < 0 {
		loc = gl.GetUniformLocation(s.Program, gl.Str(name+"[0]\x00"))
	}
	if loc < 0 {
		return -1, fmt.Errorf("%w: %q in %s", core.ErrUniformNotFound, name, s.name)
	}
	s.uniforms[name] = loc
	return loc, nil
}

func (s *OpenGLShader) SetUniform(name string, value interface{}) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	switch v := value.(type) {
	case int32:
		gl.Uniform1i(loc, v)
	case uint32:
		gl.Uniform1ui(loc, v)
	case float32:
		gl.Uniform1f(loc, v)
	case math.Vec2:
		gl.Uniform2f(loc, v.X, v.Y)
	case math.Vec3:
		gl.Uniform3f(loc, v.X, v.Y, v.Z)
	case math.Vec4:
		gl.Uniform4f(loc, v.X, v.Y, v.Z, v.W)
	case math.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v.Data[0])
	default:
		return fmt.Errorf("unsupported uniform type %T for %q", value, name)
	}
	checkError("set uniform " + name)
	return nil
}

func (s *OpenGLShader) SetUniformArray(name string, values interface{}) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	switch v := values.(type) {
	case []int32:
		if len(v) > 0 {
			gl.Uniform1iv(loc, int32(len(v)), &v[0])
		}
	case []float32:
		if len(v) > 0 {
			gl.Uniform1fv(loc, int32(len(v)), &v[0])
		}
	default:
		return fmt.Errorf("unsupported uniform array type %T for %q", values, name)
	}
	checkError("set uniform array " + name)
	return nil
}

func (s *OpenGLShader) Destroy() {
	if s.Program == 0 {
		return
	}
	gl.DeleteProgram(s.Program)
	s.Program = 0
}
