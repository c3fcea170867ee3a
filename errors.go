package hotsort

import "errors"

// Sentinel errors returned by sorter construction and teardown. Pipeline
// compilation failures wrap the device's error; match with errors.Is.
var (
	// ErrNoCompute is returned by New when the device reports no compute
	// support.
	ErrNoCompute = errors.New("hotsort: device does not support compute")

	// ErrInvalidConfig is returned when a target descriptor's configuration
	// violates a structural constraint (empty slab geometry, merge scale
	// ranges out of bounds, or ranges that would break merge-loop
	// termination or padding arithmetic).
	ErrInvalidConfig = errors.New("hotsort: invalid target configuration")

	// ErrMalformedTarget is returned when a target descriptor's module
	// stream does not decode to exactly the derived variant counts.
	ErrMalformedTarget = errors.New("hotsort: malformed target descriptor")

	// ErrReleased is returned by Release when the sorter was already
	// released.
	ErrReleased = errors.New("hotsort: sorter already released")
)
