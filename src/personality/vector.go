package personality

import (
	"strconv"
	"strings"
)

// Trait indexes into a TraitVector.
type Trait int

const (
	Friendliness Trait = iota
	Humor
	Excitement
	Empathy
	Curiosity

	// VectorLen is the standard number of components.
	VectorLen = 5
)

// DefaultComponent stands in for components missing from short vectors.
const DefaultComponent = 0.5

var traitNames = [VectorLen]string{"friendliness", "humor", "excitement", "empathy", "curiosity"}

func (t Trait) String() string {
	if t < 0 || int(t) >= len(traitNames) {
		return "trait(" + strconv.Itoa(int(t)) + ")"
	}
	return traitNames[t]
}

// TraitVector is [friendliness, humor, excitement, empathy, curiosity].
// Legacy rows may carry only the first three components. Values are not
// clamped.
type TraitVector []float64

// Get returns component t, or DefaultComponent when the vector is too short.
func (v TraitVector) Get(t Trait) float64 {
	if t < 0 || int(t) >= len(v) {
		return DefaultComponent
	}
	return v[t]
}

// Clone returns an independent copy.
func (v TraitVector) Clone() TraitVector {
	if v == nil {
		return nil
	}
	out := make(TraitVector, len(v))
	copy(out, v)
	return out
}

// Uniform returns a standard-length vector with every component set to x.
func Uniform(x float64) TraitVector {
	v := make(TraitVector, VectorLen)
	for i := range v {
		v[i] = x
	}
	return v
}

// String formats the vector as "[0.9, 0.8, 0.4]".
func (v TraitVector) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
