// Package rewriter replaces Self::Assoc references with generated type
// parameters and owns the naming scheme for those parameters.
package rewriter

// placeholderBase prefixes every generated identifier. It is long and
// arbitrary so it cannot plausibly collide with a name in user code.
const placeholderBase = "FnTraitGen7Qx3vK9mZ2wR8p"

const (
	// Callable is the type parameter the adapter is implemented for.
	Callable = placeholderBase + "_F"
	// Output stands in for an opaque (impl Trait) return type.
	Output = placeholderBase + "_Fout"
)

// AssocParam returns the type parameter standing in for associated type name.
func AssocParam(name string) string {
	return placeholderBase + "_FAT_" + name
}
