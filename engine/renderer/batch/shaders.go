package batch

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// ShaderMode selects how the fragment stage combines vertex colour and texel.
type ShaderMode int

const (
	// ShaderModeTinted multiplies the texel by the vertex colour. Fully
	// transparent texels skip the modulation and draw the vertex colour.
	ShaderModeTinted ShaderMode = iota
	// ShaderModeTextured outputs the texel as sampled.
	ShaderModeTextured
)

func (m ShaderMode) String() string {
	switch m {
	case ShaderModeTinted:
		return "tinted"
	case ShaderModeTextured:
		return "textured"
	default:
		return fmt.Sprintf("ShaderMode(%d)", int(m))
	}
}

// ParseShaderMode maps a configuration value to a mode.
func ParseShaderMode(s string) (ShaderMode, error) {
	switch s {
	case "", "tinted":
		return ShaderModeTinted, nil
	case "textured":
		return ShaderModeTextured, nil
	default:
		return 0, fmt.Errorf("unknown shader mode %q", s)
	}
}

const (
	UniformProjection = "u_projection"
	UniformSamplers   = "u_samplers"
)

const defaultVertexSource = `#version 330 core

in vec3 vert_pos;
in vec4 vert_colour;
in vec2 vert_texCoord;
in uint vert_texSlot;

uniform mat4 u_projection;

out vec4 frag_colour;
out vec2 frag_texCoord;
flat out uint frag_texSlot;

void main() {
	frag_colour = vert_colour;
	frag_texCoord = vert_texCoord;
	frag_texSlot = vert_texSlot;
	gl_Position = u_projection * vec4(vert_pos, 1.0);
}
`

// The sampler array is indexed through a switch: the slot is flat but not
// dynamically uniform across a draw.
const defaultFragmentSource = `#version 330 core

in vec4 frag_colour;
in vec2 frag_texCoord;
flat in uint frag_texSlot;

uniform sampler2D u_samplers[{{.SlotCount}}];

out vec4 out_colour;

vec4 sampleSlot(uint slot, vec2 uv) {
	switch (int(slot)) {
{{- range .Slots}}
	case {{.}}: return texture(u_samplers[{{.}}], uv);
{{- end}}
	}
	return vec4(1.0, 0.0, 1.0, 1.0);
}

void main() {
	vec4 texel = sampleSlot(frag_texSlot, frag_texCoord);
{{- if .Tinted}}
	if (texel.a == 0.0) {
		out_colour = frag_colour;
	} else {
		out_colour = texel * frag_colour;
	}
{{- else}}
	out_colour = texel;
{{- end}}
}
`

type shaderParams struct {
	SlotCount uint32
	Slots     []uint32
	Tinted    bool
}

func renderShaderTemplate(name, source string, params shaderParams) (string, error) {
	tmpl, err := template.New(name).Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse %s shader template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s shader template: %w", name, err)
	}
	return buf.String(), nil
}

// buildShaderConfig renders the stage templates for slotCount samplers.
// Custom sources are templates too and see the same parameters.
func buildShaderConfig(mode ShaderMode, slotCount uint32, vertexSource, fragmentSource string) (*metadata.ShaderConfig, error) {
	if vertexSource == "" {
		vertexSource = defaultVertexSource
	}
	if fragmentSource == "" {
		fragmentSource = defaultFragmentSource
	}

	params := shaderParams{
		SlotCount: slotCount,
		Slots:     make([]uint32, slotCount),
		Tinted:    mode == ShaderModeTinted,
	}
	for i := range params.Slots {
		params.Slots[i] = uint32(i)
	}

	vs, err := renderShaderTemplate("vertex", vertexSource, params)
	if err != nil {
		return nil, err
	}
	fs, err := renderShaderTemplate("fragment", fragmentSource, params)
	if err != nil {
		return nil, err
	}

	layout := NewVertexLayout()
	bindings := make([]metadata.ShaderAttributeBinding, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		bindings = append(bindings, metadata.ShaderAttributeBinding{Name: a.Name, Location: a.Location})
	}

	return &metadata.ShaderConfig{
		Name: "Shader.Builtin.Sprite." + mode.String(),
		Stages: []metadata.ShaderStageConfig{
			{Stage: metadata.ShaderStageVertex, Source: vs},
			{Stage: metadata.ShaderStageFragment, Source: fs},
		},
		Attributes: bindings,
	}, nil
}
