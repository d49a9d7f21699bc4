//go:build !prod

package environment

// BuildMode names the variant bundled into this binary.
const BuildMode = VariantDevelopment

// Current returns the record bundled into this binary.
func Current() Environment {
	return development
}
