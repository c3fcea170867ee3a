package hotsort

import (
	"fmt"

	"github.com/gogpu/hotsort/gpucore"
)

// pipelineRange is an index range into the sorter's flat pipeline slice.
// Absent groups (merge scales outside the target's ranges) have count 0.
type pipelineRange struct {
	start uint32
	count uint32
}

// Sorter is a long-lived sort instance: the target's configuration plus
// every program variant compiled into a pipeline on one device.
//
// A Sorter is immutable after New and safe for concurrent use until
// Release. It references, but does not own, the pipeline layout supplied
// at creation.
type Sorter struct {
	cfg Config

	slabKeys   uint32
	keyValSize uint32

	bsSlabsLog2Ru  uint32
	bcSlabsLog2Max uint32

	layout gpucore.PipelineLayoutID

	pipelines []gpucore.PipelineID
	bs        pipelineRange
	bc        pipelineRange
	fm        [3]pipelineRange
	hm        [3]pipelineRange
	fillIn    uint32
	fillOut   uint32
	transpose uint32

	released bool
}

// New compiles every program module of target into a pipeline on dev and
// returns the resulting sort instance.
//
// Parameters:
//   - dev: the device that compiles and later destroys the pipelines.
//   - layout: the caller-owned pipeline layout every pipeline binds to.
//     It must provide the input/output storage buffers and the 12-byte
//     parameter block the target's programs expect.
//   - target: the target descriptor matched to the device.
//
// Compilation failure is fatal: no partial instance is returned, and any
// pipelines compiled before the failure are destroyed.
func New(dev gpucore.Device, layout gpucore.PipelineLayoutID, target *Target) (*Sorter, error) {
	if dev == nil || target == nil {
		return nil, fmt.Errorf("%w: nil device or target", ErrInvalidConfig)
	}
	if !dev.SupportsCompute() {
		return nil, ErrNoCompute
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	cfg := target.Config
	vc := countVariants(&cfg)

	s := &Sorter{
		cfg:            cfg,
		slabKeys:       cfg.Slab.Keys(),
		keyValSize:     (cfg.Dwords.Key + cfg.Dwords.Val) * 4,
		bsSlabsLog2Ru:  vc.bsSlabsLog2Ru,
		bcSlabsLog2Max: vc.bcSlabsLog2Max,
		layout:         layout,
		pipelines:      make([]gpucore.PipelineID, 0, vc.total),
	}

	// Fixed group order: bs, bc, fm[0..2], hm[0..2], fill_in, fill_out,
	// transpose. The flat index is the compile order; the named ranges are
	// carved out as the walk advances.
	next := uint32(0)
	take := func(count uint32) pipelineRange {
		r := pipelineRange{start: next, count: count}
		next += count
		return r
	}
	s.bs = take(vc.bsSlabsLog2Ru + 1)
	s.bc = take(vc.bcSlabsLog2Max + 1)
	for scale := 0; scale < 3; scale++ {
		s.fm[scale] = take(vc.fm[scale])
	}
	for scale := 0; scale < 3; scale++ {
		s.hm[scale] = take(vc.hm[scale])
	}
	s.fillIn = take(1).start
	s.fillOut = take(1).start
	s.transpose = take(1).start

	subgroupLog2 := uint32(0)
	if cfg.Extensions.Has(ExtensionSubgroupSizeControl) &&
		dev.SubgroupSizeControl() && cfg.Slab.ThreadsLog2 > 0 {
		subgroupLog2 = cfg.Slab.ThreadsLog2
	}

	_, err := walkModules(target.Modules, func(i uint32, words []uint32) error {
		id, cerr := dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{
			Label:            s.pipelineLabel(i),
			Layout:           layout,
			Code:             words,
			SubgroupSizeLog2: subgroupLog2,
		})
		if cerr != nil {
			return fmt.Errorf("hotsort: compiling module %d (%s): %w", i, s.pipelineLabel(i), cerr)
		}
		s.pipelines = append(s.pipelines, id)
		return nil
	})
	if err != nil {
		// No partial instance: unwind whatever compiled.
		for _, id := range s.pipelines {
			if derr := dev.DestroyPipeline(id); derr != nil {
				Logger().Warn("hotsort: destroy during failed create", "error", derr)
			}
		}
		return nil, err
	}

	Logger().Info("hotsort: sorter created",
		"pipelines", len(s.pipelines),
		"slab_keys", s.slabKeys,
		"block_slabs", cfg.Block.Slabs)
	return s, nil
}

// pipelineLabel names the pipeline at flat index i after its group and
// variant, e.g. "hs_bs_2" or "hs_fm_1_3".
func (s *Sorter) pipelineLabel(i uint32) string {
	switch {
	case i >= s.transpose:
		return "hs_transpose"
	case i >= s.fillOut:
		return "hs_fill_out"
	case i >= s.fillIn:
		return "hs_fill_in"
	}
	for scale := 2; scale >= 0; scale-- {
		if r := s.hm[scale]; r.count > 0 && i >= r.start {
			return fmt.Sprintf("hs_hm_%d_%d", scale, i-r.start)
		}
	}
	for scale := 2; scale >= 0; scale-- {
		if r := s.fm[scale]; r.count > 0 && i >= r.start {
			return fmt.Sprintf("hs_fm_%d_%d", scale, i-r.start)
		}
	}
	if i >= s.bc.start {
		return fmt.Sprintf("hs_bc_%d", i-s.bc.start)
	}
	return fmt.Sprintf("hs_bs_%d", i-s.bs.start)
}

// pipeline returns the pipeline at index i within group r.
func (s *Sorter) pipeline(r pipelineRange, i uint32) gpucore.PipelineID {
	if i >= r.count {
		panic(fmt.Sprintf("hotsort: variant %d out of range (group of %d)", i, r.count))
	}
	return s.pipelines[r.start+i]
}

// Config returns a copy of the target configuration the sorter was built
// from.
func (s *Sorter) Config() Config { return s.cfg }

// SlabKeys returns the number of keys per slab.
func (s *Sorter) SlabKeys() uint32 { return s.slabKeys }

// KeyValSize returns the size in bytes of one key-value pair.
func (s *Sorter) KeyValSize() uint32 { return s.keyValSize }

// PipelineCount returns the number of compiled pipelines.
func (s *Sorter) PipelineCount() int { return len(s.pipelines) }

// Release destroys every pipeline in flat index order. dev must be the
// device the sorter was created on. The sorter is unusable afterwards;
// releasing twice returns ErrReleased.
func (s *Sorter) Release(dev gpucore.Device) error {
	if s.released {
		return ErrReleased
	}
	s.released = true

	var first error
	for i, id := range s.pipelines {
		if err := dev.DestroyPipeline(id); err != nil {
			Logger().Warn("hotsort: pipeline destroy failed",
				"label", s.pipelineLabel(uint32(i)), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	s.pipelines = nil
	Logger().Info("hotsort: sorter released")
	return first
}
