package hotsort

import (
	"fmt"

	"github.com/gogpu/hotsort/gpucore"
)

// Placement states whether the sort reads and writes the same buffer
// region. It is declared explicitly by the caller instead of being
// inferred from offset equality, so offsets that coincide by accident
// cannot silently alias.
type Placement uint8

const (
	// PlacementSeparate sorts from the input region into a distinct
	// output region.
	PlacementSeparate Placement = iota

	// PlacementInPlace sorts within a single region. Only valid on
	// targets whose configuration allows it.
	PlacementInPlace
)

// SortArgs parameterizes one recorded sort.
type SortArgs struct {
	// OffsetIn and OffsetOut locate the input and output key-value arrays
	// within the bound buffers, in key-value units. For PlacementInPlace
	// they must be equal.
	OffsetIn  uint32
	OffsetOut uint32

	// Count is the number of keys to sort.
	Count uint32

	// PaddedIn and PaddedOut must come from Pad(Count) on this sorter.
	// The bound regions must hold at least that many key-value pairs.
	PaddedIn  uint32
	PaddedOut uint32

	// Placement declares the buffer aliasing mode.
	Placement Placement

	// Linearize converts the result from slab-major to linear key order.
	// When false the output stays slab-major.
	Linearize bool
}

// Sort records the complete command sequence that sorts args.Count keys:
// push constants, optional sentinel fills, the block sort, the merge
// rounds, and the optional transpose, with compute barriers between
// dependent phases.
//
// Sort only records; nothing executes until the caller submits the
// encoder. It assumes its preconditions hold (padding derived from Pad,
// buffers large enough, sorter not released) and performs no validation
// beyond cheap aliasing checks: a violated precondition is a caller bug,
// not a recoverable error.
func (s *Sorter) Sort(enc gpucore.ComputeEncoder, args *SortArgs) {
	if s.released {
		panic("hotsort: Sort on released sorter")
	}
	inPlace := args.Placement == PlacementInPlace
	if inPlace && !s.cfg.InPlace {
		panic("hotsort: in-place sort on a target without in-place support")
	}
	if inPlace && args.OffsetIn != args.OffsetOut {
		panic(fmt.Sprintf("hotsort: in-place sort with distinct offsets %d and %d",
			args.OffsetIn, args.OffsetOut))
	}

	enc.PushConstants(gpucore.PushConstants{
		OffsetIn:  args.OffsetIn,
		OffsetOut: args.OffsetOut,
		Count:     args.Count,
	})

	// In-place sorts merge in the same region they sort, so the sentinel
	// fill must extend to the merge bound up front.
	paddedPre := args.PaddedIn
	if inPlace {
		paddedPre = args.PaddedOut
	}

	filled := paddedPre > args.Count
	if filled {
		s.fill(enc, s.fillIn, args.Count/s.slabKeys, paddedPre/s.slabKeys)
	}
	if args.Count <= 1 {
		// Nothing to sort or merge; the keys (if any) are already in
		// place in the input region.
		return
	}
	if filled {
		enc.Barrier()
	}

	// Slabs holding data, and the padded slab count the block sort covers.
	bxRu := ceilDiv(args.Count, s.slabKeys)
	s.blockSort(enc, paddedPre/s.slabKeys)

	if bxRu <= s.cfg.Block.Slabs {
		// A single block: the block sort already produced the final
		// slab-major order.
		s.finish(enc, args, bxRu)
		return
	}

	if !inPlace && args.PaddedOut > args.PaddedIn {
		s.fill(enc, s.fillOut, args.PaddedIn/s.slabKeys, args.PaddedOut/s.slabKeys)
	}

	for up := uint32(1); ; up++ {
		enc.Barrier()
		down, clean := s.flipMerge(enc, bxRu, up)
		for clean > s.bcSlabsLog2Max {
			enc.Barrier()
			down, clean = s.halfMerge(enc, down, clean)
		}
		enc.Barrier()
		s.blockClean(enc, down, clean)
		if s.cfg.Block.Slabs<<up >= bxRu {
			break
		}
	}

	s.finish(enc, args, bxRu)
}

// fill dispatches a sentinel fill over the slab range [slabLo, slabHi).
// The program writes max-valued keys at every position at or beyond the
// key count, so later phases treat the padding as always-greater.
func (s *Sorter) fill(enc gpucore.ComputeEncoder, pipeline, slabLo, slabHi uint32) {
	enc.SetPipeline(s.pipelines[pipeline])
	enc.DispatchBase(slabLo, 0, 0, slabHi-slabLo, 1, 1)
}

// blockSort dispatches the block-sort phase over slabsPre padded slabs:
// a full-block dispatch plus, for a trailing fractional block, a
// base-offset dispatch of the matching smaller variant. The fractional
// slab count is a power of two by construction of Pad.
func (s *Sorter) blockSort(enc gpucore.ComputeEncoder, slabsPre uint32) {
	fullBS := slabsPre / s.cfg.Block.Slabs
	fracBS := slabsPre - fullBS*s.cfg.Block.Slabs

	if fullBS > 0 {
		enc.SetPipeline(s.pipeline(s.bs, s.bsSlabsLog2Ru))
		enc.Dispatch(fullBS, 1, 1)
	}
	if fracBS > 0 {
		fracLog2 := floorLog2(fracBS)
		enc.SetPipeline(s.pipeline(s.bs, fracLog2))
		enc.DispatchBase(fullBS<<(s.bsSlabsLog2Ru-fracLog2), 0, 0, 1, 1, 1)
	}
}

// flipMerge records one flip-merge phase at up-scale up and returns the
// slab count requiring cleanup and the cleanup span log2.
//
// Full spans of block.slabs<<up slabs are merged by the widest variant,
// one span per z workgroup. A trailing remainder larger than half a span
// is either promoted to a full span (when its power-of-two round-up
// reaches the half-span size) or handled by a fractional variant whose
// index is the log2 of the remainder's round-up in cleanup-span units.
func (s *Sorter) flipMerge(enc gpucore.ComputeEncoder, bxRu, up uint32) (down, clean uint32) {
	scale := min(s.cfg.Merge.FM.Max, up)
	clean = up - scale

	fullSpan := s.cfg.Block.Slabs << up
	halfSpan := fullSpan >> 1

	fullFM := bxRu / fullSpan
	fracFM := uint32(0)
	down = fullFM * fullSpan

	if spanRem := bxRu - down; spanRem > halfSpan {
		fracRem := spanRem - halfSpan
		fracRemPow2 := ceilPow2(fracRem)
		if fracRemPow2 >= halfSpan {
			fullFM++
			down += fullSpan
		} else {
			fracFM = max(1, fracRemPow2>>clean)
			down += spanRem
		}
	}

	gridX := s.cfg.Slab.Height << clean
	group := s.fm[scale]
	if fullFM > 0 {
		enc.SetPipeline(s.pipeline(group, group.count-1))
		enc.Dispatch(gridX, 1, fullFM)
	}
	if fracFM > 0 {
		enc.SetPipeline(s.pipeline(group, floorLog2(fracFM)))
		enc.DispatchBase(0, 0, fullFM, gridX, 1, 1)
	}
	return down, clean
}

// halfMerge records one half-merge phase, shrinking the cleanup span by
// the clamped half-merge scale, and returns the updated slab count and
// cleanup span log2.
func (s *Sorter) halfMerge(enc gpucore.ComputeEncoder, down, clean uint32) (uint32, uint32) {
	spans := ceilDiv(down, 1<<clean)
	logRem := clean - s.bcSlabsLog2Max
	scale := min(s.cfg.Merge.HM.Max, logRem)
	newClean := s.bcSlabsLog2Max + (logRem - scale)

	enc.SetPipeline(s.pipeline(s.hm[scale], 0))
	enc.Dispatch(s.cfg.Slab.Height<<newClean, 1, spans)

	return spans << clean, newClean
}

// blockClean records the block-clean phase finishing every 2^clean-slab
// span within down slabs.
func (s *Sorter) blockClean(enc gpucore.ComputeEncoder, down, clean uint32) {
	enc.SetPipeline(s.pipeline(s.bc, clean))
	enc.Dispatch(ceilDiv(down, 1<<clean), 1, 1)
}

// finish records the optional transpose from slab-major to linear order.
func (s *Sorter) finish(enc gpucore.ComputeEncoder, args *SortArgs, bxRu uint32) {
	if !args.Linearize {
		return
	}
	enc.Barrier()
	enc.SetPipeline(s.pipelines[s.transpose])
	enc.Dispatch(bxRu, 1, 1)
}
