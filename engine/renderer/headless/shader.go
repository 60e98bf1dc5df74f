package headless

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)(\[(\d+)\])?\s*;`)

type shader struct {
	backend  *Backend
	name     string
	uniforms map[string]int
	values   map[string]interface{}
}

// ShaderCreate checks the stages the way a driver would reject them: both a
// vertex and a fragment stage, a #version line, and every bound attribute
// declared as an input of the vertex stage.
func (b *Backend) ShaderCreate(config *metadata.ShaderConfig) (renderer.Shader, error) {
	if b.options.ShaderError != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrShaderCompile, config.Name, b.options.ShaderError)
	}

	var vertex, fragment string
	for _, s := range config.Stages {
		if !strings.HasPrefix(strings.TrimSpace(s.Source), "#version") {
			return nil, fmt.Errorf("%w: %s %s stage: missing #version", core.ErrShaderCompile, config.Name, s.Stage)
		}
		switch s.Stage {
		case metadata.ShaderStageVertex:
			vertex = s.Source
		case metadata.ShaderStageFragment:
			fragment = s.Source
		}
	}
	if vertex == "" || fragment == "" {
		return nil, fmt.Errorf("%w: %s: needs a vertex and a fragment stage", core.ErrShaderLink, config.Name)
	}
	for _, a := range config.Attributes {
		if !regexp.MustCompile(`\bin\s+\w+\s+` + regexp.QuoteMeta(a.Name) + `\s*;`).MatchString(vertex) {
			return nil, fmt.Errorf("%w: %s: attribute %q not declared", core.ErrShaderLink, config.Name, a.Name)
		}
	}

	s := &shader{
		backend:  b,
		name:     config.Name,
		uniforms: make(map[string]int),
		values:   make(map[string]interface{}),
	}
	for _, src := range []string{vertex, fragment} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			size := 1
			if m[3] != "" {
				fmt.Sscanf(m[3], "%d", &size)
			}
			s.uniforms[m[1]] = size
		}
	}
	return s, nil
}

func (s *shader) Name() string {
	return s.name
}

func (s *shader) Use() {
	s.backend.current = s
}

func (s *shader) SetUniform(name string, value interface{}) error {
	if err := s.checkBound(name); err != nil {
		return err
	}
	switch v := value.(type) {
	case int32, uint32, float32, math.Vec2, math.Vec3, math.Vec4, math.Mat4:
		s.values[name] = v
	default:
		return fmt.Errorf("unsupported uniform type %T for %q", value, name)
	}
	return nil
}

func (s *shader) SetUniformArray(name string, values interface{}) error {
	if err := s.checkBound(name); err != nil {
		return err
	}
	var n int
	switch v := values.(type) {
	case []int32:
		n = len(v)
		values = append([]int32(nil), v...)
	case []float32:
		n = len(v)
		values = append([]float32(nil), v...)
	default:
		return fmt.Errorf("unsupported uniform array type %T for %q", values, name)
	}
	if n > s.uniforms[name] {
		return fmt.Errorf("%w: %d values for %q[%d]", core.ErrContractViolation, n, name, s.uniforms[name])
	}
	s.values[name] = values
	return nil
}

func (s *shader) checkBound(name string) error {
	if s.backend.current != s {
		return fmt.Errorf("%w: setting %q on unbound shader %s", core.ErrContractViolation, name, s.name)
	}
	if _, ok := s.uniforms[name]; !ok {
		return fmt.Errorf("%w: %q in %s", core.ErrUniformNotFound, name, s.name)
	}
	return nil
}

// Uniform returns the last value set for name.
func (s *shader) Uniform(name string) (interface{}, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s *shader) Destroy() {
	if s.backend.current == s {
		s.backend.current = nil
	}
}
