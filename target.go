package hotsort

import "fmt"

// Slab describes the fundamental GPU-resident sortable unit: a tile of
// Height rows by 1<<WidthLog2 columns of keys, held in registers by one
// workgroup of 1<<ThreadsLog2 threads.
type Slab struct {
	ThreadsLog2 uint32
	WidthLog2   uint32
	Height      uint32
}

// Keys returns the number of keys held by one slab.
func (s Slab) Keys() uint32 { return s.Height << s.WidthLog2 }

// Dwords gives the 32-bit word counts of a key and its attached value.
type Dwords struct {
	Key uint32
	Val uint32
}

// Block gives the number of slabs sorted together by one block-sort
// dispatch before any merging. It need not be a power of two.
type Block struct {
	Slabs uint32
}

// ScaleRange is an inclusive range of merge scales, each within [0,2].
// The scale bounds how much a single flip-merge or half-merge dispatch may
// widen its span relative to the block size.
type ScaleRange struct {
	Min uint32
	Max uint32
}

// Merge holds the flip-merge and half-merge scale ranges of a target.
type Merge struct {
	FM ScaleRange
	HM ScaleRange
}

// Config is the immutable configuration portion of a target descriptor.
type Config struct {
	// InPlace reports whether the target's programs may read and write the
	// same buffer region.
	InPlace bool

	Slab   Slab
	Dwords Dwords
	Block  Block
	Merge  Merge

	// Extensions and Features declare what the target's programs require
	// from the device. See Requirements.
	Extensions ExtensionSet
	Features   FeatureSet
}

// Target is a precompiled, architecture-specific descriptor: configuration
// plus the flat stream of length-prefixed program modules, in the fixed
// group order bs, bc, fm[0..2], hm[0..2], fill_in, fill_out, transpose.
//
// Targets are static data. They are never mutated and may be shared by any
// number of sorters.
type Target struct {
	Config  Config
	Modules []uint32
}

// variantCounts holds the per-group pipeline counts derived from a config.
type variantCounts struct {
	bsSlabsLog2Ru  uint32
	bcSlabsLog2Max uint32
	fm             [3]uint32
	hm             [3]uint32
	total          uint32
}

// countVariants derives the pipeline counts for a valid config.
//
// Per scale in the declared flip-merge range the variant count is
// ceil(log2((block.slabs/2) << scale)) + 1; half-merge scales contribute
// one variant each. Scales outside the declared ranges contribute zero.
func countVariants(cfg *Config) variantCounts {
	var vc variantCounts
	vc.bsSlabsLog2Ru = ceilLog2(cfg.Block.Slabs)
	vc.bcSlabsLog2Max = floorLog2(cfg.Block.Slabs)
	vc.total = (vc.bsSlabsLog2Ru + 1) + (vc.bcSlabsLog2Max + 1) + 3
	for s := cfg.Merge.FM.Min; s <= cfg.Merge.FM.Max; s++ {
		vc.fm[s] = ceilLog2((cfg.Block.Slabs/2)<<s) + 1
		vc.total += vc.fm[s]
	}
	for s := cfg.Merge.HM.Min; s <= cfg.Merge.HM.Max; s++ {
		vc.hm[s] = 1
		vc.total += vc.hm[s]
	}
	return vc
}

// Validate checks the structural constraints on a target's configuration
// and module stream. New performs the same checks; Validate exists so
// targets can be vetted when they are built or decoded rather than at
// first use.
func (t *Target) Validate() error {
	cfg := &t.Config
	if cfg.Slab.Height == 0 || cfg.Slab.Keys() < 2 {
		return fmt.Errorf("%w: slab holds %d keys", ErrInvalidConfig, cfg.Slab.Keys())
	}
	if cfg.Dwords.Key == 0 || cfg.Dwords.Key > 2 {
		return fmt.Errorf("%w: key dwords %d", ErrInvalidConfig, cfg.Dwords.Key)
	}
	if cfg.Block.Slabs < 2 {
		return fmt.Errorf("%w: block of %d slabs", ErrInvalidConfig, cfg.Block.Slabs)
	}
	for _, r := range [2]ScaleRange{cfg.Merge.FM, cfg.Merge.HM} {
		if r.Min > r.Max || r.Max > 2 {
			return fmt.Errorf("%w: merge scale range [%d,%d]", ErrInvalidConfig, r.Min, r.Max)
		}
	}
	// The scheduler clamps each round's flip-merge scale to
	// min(fm.Max, up) with up >= 1, and padding shifts by 1-fm.Min, so a
	// minimum above 1 would produce an unusable scale on the first round.
	if cfg.Merge.FM.Min > 1 {
		return fmt.Errorf("%w: fm scale min %d > 1", ErrInvalidConfig, cfg.Merge.FM.Min)
	}
	// Every half-merge dispatch must shrink the remaining bitonic span or
	// the merge loop cannot terminate.
	if cfg.Merge.HM.Max < 1 {
		return fmt.Errorf("%w: hm scale max 0", ErrInvalidConfig)
	}
	if cfg.Merge.HM.Min > 1 {
		return fmt.Errorf("%w: hm scale min %d > 1", ErrInvalidConfig, cfg.Merge.HM.Min)
	}

	vc := countVariants(cfg)
	n, err := walkModules(t.Modules, nil)
	if err != nil {
		return err
	}
	if n != vc.total {
		return fmt.Errorf("%w: %d modules, config derives %d", ErrMalformedTarget, n, vc.total)
	}
	return nil
}

// walkModules walks a length-prefixed module stream, calling visit (when
// non-nil) with each module's words. It returns the module count.
func walkModules(stream []uint32, visit func(i uint32, words []uint32) error) (uint32, error) {
	var n uint32
	for off := 0; off < len(stream); {
		words := int(stream[off])
		off++
		if words == 0 || off+words > len(stream) {
			return 0, fmt.Errorf("%w: module %d truncated", ErrMalformedTarget, n)
		}
		if visit != nil {
			if err := visit(n, stream[off:off+words]); err != nil {
				return 0, err
			}
		}
		off += words
		n++
	}
	return n, nil
}
