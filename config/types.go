// package config adapts a file-backed key/value store into the typed
// configuration surface the engine consumes: default/per-output background
// entries, power-saving settings, and a change-keys stream. Go has no tagged
// unions, so Source carries a Kind discriminant alongside payload fields for
// every variant; callers branch on Kind rather than on a type switch.
package config

// SourceKind discriminates the variants of Source.
type SourceKind int

const (
	SourcePath SourceKind = iota
	SourceSolidColor
	SourceGradient
	SourceShader
)

// AllOutputsSelector is the BackgroundEntry.OutputSelector value meaning
// "every output without a more specific entry".
const AllOutputsSelector = "all"

// ShaderLanguage is the declared language of a ShaderSource. Only Wgsl
// builds; Glsl is accepted in config and rejected at pipeline build time.
type ShaderLanguage int

const (
	LanguageWgsl ShaderLanguage = iota
	LanguageGlsl
)

// ShaderSource describes a user-supplied fragment program.
type ShaderSource struct {
	// ShaderPath is the file to load shader text from. Empty if ShaderInline
	// is used instead.
	ShaderPath string
	// ShaderInline is literal shader text, used when ShaderPath is empty.
	ShaderInline string
	// BackgroundImage is an optional path to a texture sampled by the
	// shader; empty means none.
	BackgroundImage string
	Language        ShaderLanguage
	// FrameRate is clamped to [1,60] on load.
	FrameRate uint8
}

// ClampFrameRate clamps a requested frame rate to the supported [1,60]
// range.
func ClampFrameRate(rate uint8) uint8 {
	switch {
	case rate < 1:
		return 1
	case rate > 60:
		return 60
	default:
		return rate
	}
}

// Source is a tagged union over a static image path, a solid color, a
// radial gradient, or a shader program.
type Source struct {
	Kind SourceKind

	// Path holds the image path when Kind == SourcePath.
	Path string

	// Color holds an RGB triple in [0,1] when Kind == SourceSolidColor, or
	// the first stop's color when the caller wants a single representative
	// color.
	Color [3]float32

	// GradientColors and GradientRadius are populated when Kind ==
	// SourceGradient.
	GradientColors []gradientStop
	GradientRadius float32

	// Shader is populated when Kind == SourceShader.
	Shader ShaderSource
}

type gradientStop = [3]float32

// BackgroundEntry pairs an output selector ("all" or a specific output
// name) with the Source to render for matching outputs.
type BackgroundEntry struct {
	OutputSelector string
	Source         Source
}

// Config is the full typed configuration snapshot.
type Config struct {
	DefaultBackground BackgroundEntry
	Backgrounds       []BackgroundEntry
	SameOnAll         bool
	PreferLowPower    bool
	PowerSaving       PowerSavingConfig
}

// ResolveEntry returns the BackgroundEntry bound to outputName: the first
// entry in Backgrounds whose OutputSelector matches outputName exactly, else
// the first whose selector is AllOutputsSelector, else DefaultBackground.
func (c Config) ResolveEntry(outputName string) BackgroundEntry {
	var fallback *BackgroundEntry
	for i := range c.Backgrounds {
		e := &c.Backgrounds[i]
		if e.OutputSelector == outputName {
			return *e
		}
		if e.OutputSelector == AllOutputsSelector && fallback == nil {
			fallback = e
		}
	}
	if fallback != nil {
		return *fallback
	}
	return c.DefaultBackground
}
