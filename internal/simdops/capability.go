package simdops

// hasVectorUnit is set by the per-architecture init functions. It stays false
// on other architectures and under the purego build tag.
var hasVectorUnit bool

// HasVectorUnit reports whether Best selects the accelerated implementation.
func HasVectorUnit() bool {
	return hasVectorUnit
}
