package hotsort_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/gogpu/hotsort"
	"github.com/gogpu/hotsort/backend/native"
	"github.com/gogpu/hotsort/gpucore"
	"github.com/gogpu/hotsort/targets"
)

// runSort sorts count random keys on the native device and returns the
// output buffer contents alongside the expected ascending key order.
func runSort(t *testing.T, count uint32, placement hotsort.Placement, linearize bool) (got, want []uint32) {
	t.Helper()

	dev := native.NewDevice()
	s, err := hotsort.New(dev, 1, targets.Native32())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		if err := s.Release(dev); err != nil {
			t.Errorf("Release: %v", err)
		}
	}()

	pad := s.Pad(count)
	rng := rand.New(rand.NewSource(int64(count)))
	keys := make([]uint32, count)
	for i := range keys {
		keys[i] = rng.Uint32()
	}

	var in, out gpucore.BufferID
	if placement == hotsort.PlacementInPlace {
		// In-place sorts merge where they sorted: one buffer padded to the
		// merge bound.
		in = dev.CreateBuffer("kv", pad.Out)
		out = in
	} else {
		in = dev.CreateBuffer("kv-in", pad.In)
		out = dev.CreateBuffer("kv-out", pad.Out)
	}
	if err := dev.WriteBuffer(in, 0, keys); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	enc := native.NewEncoder(dev, in, out)
	s.Sort(enc, &hotsort.SortArgs{
		Count:     count,
		PaddedIn:  pad.In,
		PaddedOut: pad.Out,
		Placement: placement,
		Linearize: linearize,
	})
	if err := enc.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err = dev.ReadBuffer(out)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	want = append([]uint32(nil), keys...)
	sort.Slice(want, func(a, b int) bool { return want[a] < want[b] })
	return got, want
}

func TestSortLinearized(t *testing.T) {
	counts := []uint32{2, 31, 32, 33, 255, 256, 257, 1000, 1024, 1312, 3000, 8191}
	for _, count := range counts {
		got, want := runSort(t, count, hotsort.PlacementSeparate, true)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("count %d: key %d = %#x, want %#x", count, i, got[i], want[i])
			}
		}
	}
}

func TestSortInPlace(t *testing.T) {
	for _, count := range []uint32{33, 256, 1000, 1312, 4096} {
		got, want := runSort(t, count, hotsort.PlacementInPlace, true)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("count %d: key %d = %#x, want %#x", count, i, got[i], want[i])
			}
		}
	}
}

// slabPhys maps a logical rank to its physical index for the native slab
// geometry: 4 rows by 8 columns, 32 keys.
func slabPhys(l uint32) uint32 {
	const k, height, widthLog2 = 32, 4, 3
	slab, q := l/k, l%k
	return slab*k + (q%height)<<widthLog2 + q/height
}

func TestSortSlabMajor(t *testing.T) {
	const count = 1000
	got, want := runSort(t, count, hotsort.PlacementSeparate, false)
	for l := uint32(0); l < count; l++ {
		if got[slabPhys(l)] != want[l] {
			t.Fatalf("rank %d at physical %d = %#x, want %#x",
				l, slabPhys(l), got[slabPhys(l)], want[l])
		}
	}
}

func TestSortSingleKey(t *testing.T) {
	// One key needs no sorting: only the sentinel fill runs, in place.
	got, want := runSort(t, 1, hotsort.PlacementInPlace, false)
	if got[0] != want[0] {
		t.Fatalf("key 0 = %#x, want %#x", got[0], want[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i] != 0xFFFFFFFF {
			t.Fatalf("padding at %d = %#x, want sentinel", i, got[i])
		}
	}
}

func TestSortSingleBlockIsOneDispatch(t *testing.T) {
	// 256 keys fill exactly one block with no padding: the whole sort is
	// the one full block-sort dispatch.
	const count = 256
	dev := native.NewDevice()
	s, err := hotsort.New(dev, 1, targets.Native32())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pad := s.Pad(count)
	in := dev.CreateBuffer("kv-in", pad.In)
	out := dev.CreateBuffer("kv-out", pad.Out)

	enc := native.NewEncoder(dev, in, out)
	s.Sort(enc, &hotsort.SortArgs{
		Count: count, PaddedIn: pad.In, PaddedOut: pad.Out,
	})

	cmds := enc.Commands()
	if len(cmds) != 1 || cmds[0].Kind != native.CommandDispatch {
		t.Fatalf("recorded %d commands, want a single dispatch", len(cmds))
	}
	if cmds[0].Grid != [3]uint32{1, 1, 1} {
		t.Fatalf("grid = %v, want one block-sort workgroup", cmds[0].Grid)
	}
}

func TestSortKeyValuePairs(t *testing.T) {
	const count = 3000
	dev := native.NewDevice()
	s, err := hotsort.New(dev, 1, targets.Native32Val())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pad := s.Pad(count)
	rng := rand.New(rand.NewSource(3))
	pairs := make([]uint32, count*2)
	byIndex := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		key := rng.Uint32()
		pairs[i*2] = key
		pairs[i*2+1] = i
		byIndex[i] = key
	}

	in := dev.CreateBuffer("kv-in", pad.In*2)
	out := dev.CreateBuffer("kv-out", pad.Out*2)
	if err := dev.WriteBuffer(in, 0, pairs); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	enc := native.NewEncoder(dev, in, out)
	s.Sort(enc, &hotsort.SortArgs{
		Count: count, PaddedIn: pad.In, PaddedOut: pad.Out, Linearize: true,
	})
	if err := enc.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := dev.ReadBuffer(out)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	for i := uint32(0); i < count; i++ {
		key, val := got[i*2], got[i*2+1]
		if i > 0 && got[(i-1)*2] > key {
			t.Fatalf("keys out of order at %d", i)
		}
		if val >= count || byIndex[val] != key {
			t.Fatalf("pair %d: key %#x paired with index %d", i, key, val)
		}
	}
}

func TestSortWideKeys(t *testing.T) {
	const count = 2000
	dev := native.NewDevice()
	s, err := hotsort.New(dev, 1, targets.Native64())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pad := s.Pad(count)
	rng := rand.New(rand.NewSource(5))
	keys := make([]uint64, count)
	words := make([]uint32, count*2)
	for i := range keys {
		keys[i] = rng.Uint64()
		words[i*2] = uint32(keys[i])
		words[i*2+1] = uint32(keys[i] >> 32)
	}

	in := dev.CreateBuffer("kv-in", pad.In*2)
	out := dev.CreateBuffer("kv-out", pad.Out*2)
	if err := dev.WriteBuffer(in, 0, words); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	enc := native.NewEncoder(dev, in, out)
	s.Sort(enc, &hotsort.SortArgs{
		Count: count, PaddedIn: pad.In, PaddedOut: pad.Out, Linearize: true,
	})
	if err := enc.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := dev.ReadBuffer(out)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	for i := range keys {
		k := uint64(got[i*2]) | uint64(got[i*2+1])<<32
		if k != keys[i] {
			t.Fatalf("key %d = %#x, want %#x", i, k, keys[i])
		}
	}
}

func TestSortInPlacePanicsWithoutSupport(t *testing.T) {
	dev := native.NewDevice()
	target := targets.Native32()
	target.Config.InPlace = false
	s, err := hotsort.New(dev, 1, target)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("in-place sort on a separate-only target did not panic")
		}
	}()
	buf := dev.CreateBuffer("kv", 64)
	s.Sort(native.NewEncoder(dev, buf, buf), &hotsort.SortArgs{
		Count: 64, PaddedIn: 64, PaddedOut: 64,
		Placement: hotsort.PlacementInPlace,
	})
}

func BenchmarkSortNative(b *testing.B) {
	const count = 1 << 16
	dev := native.NewDevice()
	s, err := hotsort.New(dev, 1, targets.Native32())
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	pad := s.Pad(count)
	rng := rand.New(rand.NewSource(9))
	keys := make([]uint32, count)
	for i := range keys {
		keys[i] = rng.Uint32()
	}
	in := dev.CreateBuffer("kv-in", pad.In)
	out := dev.CreateBuffer("kv-out", pad.Out)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dev.WriteBuffer(in, 0, keys); err != nil {
			b.Fatal(err)
		}
		enc := native.NewEncoder(dev, in, out)
		s.Sort(enc, &hotsort.SortArgs{
			Count: count, PaddedIn: pad.In, PaddedOut: pad.Out, Linearize: true,
		})
		if err := enc.Submit(); err != nil {
			b.Fatal(err)
		}
	}
}
