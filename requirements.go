package hotsort

// Extension identifies a device extension a target's programs depend on.
type Extension uint8

const (
	// ExtensionSubgroupSizeControl lets pipelines request the exact
	// subgroup size the target's programs were compiled for.
	ExtensionSubgroupSizeControl Extension = iota

	// ExtensionSubgroupUniformControlFlow is required by targets whose
	// merge programs assume reconverging subgroup branches.
	ExtensionSubgroupUniformControlFlow

	extensionCount
)

// extensionNames is indexed by Extension.
var extensionNames = [extensionCount]string{
	"subgroup_size_control",
	"subgroup_uniform_control_flow",
}

// String returns the canonical extension name.
func (e Extension) String() string {
	if e >= extensionCount {
		return "unknown"
	}
	return extensionNames[e]
}

// Feature identifies a device feature flag a target's programs depend on.
type Feature uint8

const (
	// FeatureShaderInt64 is needed by targets with two-dword keys.
	FeatureShaderInt64 Feature = iota

	// FeatureSubgroupShuffle is needed by targets whose slab programs
	// exchange keys through subgroup shuffles.
	FeatureSubgroupShuffle

	featureCount
)

// featureNames is indexed by Feature.
var featureNames = [featureCount]string{
	"shader_int64",
	"subgroup_shuffle",
}

// String returns the canonical feature name.
func (f Feature) String() string {
	if f >= featureCount {
		return "unknown"
	}
	return featureNames[f]
}

// ExtensionSet is a bitset of Extension values.
type ExtensionSet uint32

// With returns the set with e added.
func (s ExtensionSet) With(e Extension) ExtensionSet { return s | 1<<e }

// Has reports whether e is in the set.
func (s ExtensionSet) Has(e Extension) bool { return s&(1<<e) != 0 }

// FeatureSet is a bitset of Feature values.
type FeatureSet uint32

// With returns the set with f added.
func (s FeatureSet) With(f Feature) FeatureSet { return s | 1<<f }

// Has reports whether f is in the set.
func (s FeatureSet) Has(f Feature) bool { return s&(1<<f) != 0 }

// Requirements lists what a target needs from the device, for use during
// device-creation negotiation before any sorter exists.
type Requirements struct {
	// Extensions holds the canonical names of the required extensions.
	Extensions []string

	// Features holds the required feature flags.
	Features FeatureSet
}

// Requirements reports the device extensions and features the target's
// programs need. The result is owned by the caller.
func (t *Target) Requirements() Requirements {
	var r Requirements
	for e := Extension(0); e < extensionCount; e++ {
		if t.Config.Extensions.Has(e) {
			r.Extensions = append(r.Extensions, e.String())
		}
	}
	r.Features = t.Config.Features
	if t.Config.Dwords.Key == 2 {
		r.Features = r.Features.With(FeatureShaderInt64)
	}
	return r
}
