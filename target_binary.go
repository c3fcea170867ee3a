package hotsort

import (
	"encoding/binary"
	"fmt"
)

// Binary target descriptor layout. All words are little-endian uint32:
//
//	word  0     magic "HSRT"
//	word  1     format version
//	word  2     flags (bit 0: in-place)
//	words 3-5   slab threads_log2, width_log2, height
//	words 6-7   key dwords, value dwords
//	word  8     block slabs
//	words 9-12  fm min, fm max, hm min, hm max
//	words 13-14 extension bits, feature bits
//	word  15    module stream word count
//	words 16-   module stream (length-prefixed programs)
const (
	targetMagic   = 0x54525348 // "HSRT"
	targetVersion = 1

	targetHeaderWords = 16

	targetFlagInPlace = 1 << 0
)

// EncodeBinary serializes the target to its binary descriptor form.
func (t *Target) EncodeBinary() []byte {
	words := make([]uint32, 0, targetHeaderWords+len(t.Modules))
	var flags uint32
	if t.Config.InPlace {
		flags |= targetFlagInPlace
	}
	words = append(words,
		targetMagic,
		targetVersion,
		flags,
		t.Config.Slab.ThreadsLog2,
		t.Config.Slab.WidthLog2,
		t.Config.Slab.Height,
		t.Config.Dwords.Key,
		t.Config.Dwords.Val,
		t.Config.Block.Slabs,
		t.Config.Merge.FM.Min,
		t.Config.Merge.FM.Max,
		t.Config.Merge.HM.Min,
		t.Config.Merge.HM.Max,
		uint32(t.Config.Extensions),
		uint32(t.Config.Features),
		uint32(len(t.Modules)),
	)
	words = append(words, t.Modules...)

	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// DecodeBinary parses a binary target descriptor. The returned target is
// validated; a descriptor whose module stream does not match its
// configuration fails with ErrMalformedTarget.
func DecodeBinary(data []byte) (*Target, error) {
	if len(data)%4 != 0 || len(data) < targetHeaderWords*4 {
		return nil, fmt.Errorf("%w: %d byte descriptor", ErrMalformedTarget, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != targetMagic {
		return nil, fmt.Errorf("%w: bad magic %#08x", ErrMalformedTarget, words[0])
	}
	if words[1] != targetVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedTarget, words[1])
	}
	moduleWords := words[15]
	if uint32(len(words)-targetHeaderWords) != moduleWords {
		return nil, fmt.Errorf("%w: module stream is %d words, header says %d",
			ErrMalformedTarget, len(words)-targetHeaderWords, moduleWords)
	}

	t := &Target{
		Config: Config{
			InPlace: words[2]&targetFlagInPlace != 0,
			Slab: Slab{
				ThreadsLog2: words[3],
				WidthLog2:   words[4],
				Height:      words[5],
			},
			Dwords: Dwords{Key: words[6], Val: words[7]},
			Block:  Block{Slabs: words[8]},
			Merge: Merge{
				FM: ScaleRange{Min: words[9], Max: words[10]},
				HM: ScaleRange{Min: words[11], Max: words[12]},
			},
			Extensions: ExtensionSet(words[13]),
			Features:   FeatureSet(words[14]),
		},
		Modules: words[targetHeaderWords:],
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
