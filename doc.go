// Package hotsort implements a GPU-resident hybrid sorting algorithm for
// fixed-width keys, driven entirely from the host as a sequence of compute
// dispatches.
//
// The algorithm sorts in three stages, all expressed as precompiled GPU
// program variants selected by power-of-two span arithmetic:
//
//   - Block sort: each block of slabs is sorted independently.
//   - Merge rounds: sorted spans are pairwise merged by a flip-merge
//     dispatch, followed by half-merge dispatches while the remaining
//     bitonic span is larger than a block-clean can finish, and a final
//     block-clean dispatch per round.
//   - Optional transpose: converts the slab-major result to linear order.
//
// hotsort records commands, it never submits them. The caller owns the
// device, the buffers, the pipeline layout, and the queue:
//
//	target := targets.Native32()
//	s, err := hotsort.New(dev, layout, target)
//	if err != nil { ... }
//	pad := s.Pad(count)
//	// allocate pad.In / pad.Out keys, upload data, then:
//	s.Sort(enc, &hotsort.SortArgs{
//		Count:     count,
//		PaddedIn:  pad.In,
//		PaddedOut: pad.Out,
//		Linearize: true,
//	})
//	// submit enc, wait, read back; eventually:
//	s.Release(dev)
//
// A Sorter is immutable after creation and may record into multiple
// command streams concurrently. Pad is a pure function. Sort records into
// a single caller-owned encoder and is as thread-safe as that encoder.
package hotsort
