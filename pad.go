package hotsort

// Padding gives the slab-aligned key counts a buffer must provide before
// the sort scheduler may run.
type Padding struct {
	// SlabsIn is the number of slabs needed to hold the input keys.
	SlabsIn uint32

	// In is the padded key count of the region the block sort reads.
	In uint32

	// Out is the padded key count of the region the merge phases write.
	// Out >= In; the two are equal when no merging is needed or the block
	// count divides evenly into power-of-two merge spans.
	Out uint32
}

// Pad maps an input key count to the padded counts required for sorting.
//
// Pad is a pure function: it has no side effects and always returns the
// same result for the same count. It must be called before allocating
// buffers and before Sort, whose PaddedIn/PaddedOut arguments must come
// from the same Pad call.
//
// The input region is padded to whole slabs, with any fractional block
// rounded up to a power of two (clamped to the block size) so the block
// sort's fractional dispatch stays on a power-of-two boundary. When more
// than one block is present, the merge region is additionally padded so
// every flip-merge round finds a power-of-two span to its right, but never
// to more than double the largest power-of-two block count.
func (s *Sorter) Pad(count uint32) Padding {
	slabKeys := s.slabKeys
	blockSlabs := s.cfg.Block.Slabs

	slabsRu := ceilDiv(count, slabKeys)

	blocks := slabsRu / blockSlabs
	blockSlabsRd := blocks * blockSlabs
	slabsRem := slabsRu - blockSlabsRd
	var slabsRemRu uint32
	if slabsRem > 0 {
		slabsRemRu = min(ceilPow2(slabsRem), blockSlabs)
	}

	paddedIn := (blockSlabsRd + slabsRemRu) * slabKeys
	paddedOut := paddedIn

	if slabsRu > blockSlabs {
		blocksLo := floorPow2(blocks)
		blockSlabsLo := blocksLo * blockSlabs
		blockSlabsRem := slabsRu - blockSlabsLo
		if blockSlabsRem > 0 {
			blockSlabsRemRu := ceilPow2(blockSlabsRem)
			blockSlabsHi := max(blockSlabsRemRu,
				blocksLo<<(1-s.cfg.Merge.FM.Min))
			paddedOut = min(blockSlabsLo+blockSlabsHi, blockSlabsLo*2) * slabKeys
		}
	}

	return Padding{SlabsIn: slabsRu, In: paddedIn, Out: paddedOut}
}
