package metadata

/** @brief Shader stages available in the system. */
type ShaderStage int

const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageGeometry ShaderStage = 0x00000002
	ShaderStageFragment ShaderStage = 0x00000004
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageGeometry:
		return "geometry"
	case ShaderStageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

/** @brief The source for a single shader stage. */
type ShaderStageConfig struct {
	Stage  ShaderStage
	Source string
}

/** @brief Binds a vertex attribute name to a fixed location before linking. */
type ShaderAttributeBinding struct {
	Name     string
	Location uint32
}

/**
 * @brief Configuration for a shader program. Every stage is compiled,
 * the attribute locations are bound and the program is linked.
 */
type ShaderConfig struct {
	/** @brief The name of the shader to be created. */
	Name string
	/** @brief The stages to compile. */
	Stages []ShaderStageConfig
	/** @brief Attribute locations to bind before linking. */
	Attributes []ShaderAttributeBinding
}
