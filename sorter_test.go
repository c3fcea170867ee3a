package hotsort_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/hotsort"
	"github.com/gogpu/hotsort/gpucore"
	"github.com/gogpu/hotsort/targets"
)

// fakeDevice is a gpucore.Device that compiles nothing: it hands out IDs
// and tracks which pipelines are live, so builder tests can observe
// creation order, failure unwinding, and release behavior.
type fakeDevice struct {
	mu        sync.Mutex
	noCompute bool
	subgroups bool
	failAt    int // fail the nth create, 1-based; 0 never fails

	nextID  uint64
	created []string
	live    map[gpucore.PipelineID]string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{live: make(map[gpucore.PipelineID]string)}
}

func (d *fakeDevice) SupportsCompute() bool     { return !d.noCompute }
func (d *fakeDevice) SubgroupSizeControl() bool { return d.subgroups }

func (d *fakeDevice) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.PipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAt > 0 && len(d.created)+1 == d.failAt {
		return gpucore.InvalidID, fmt.Errorf("fake: compile rejected")
	}
	d.nextID++
	id := gpucore.PipelineID(d.nextID)
	d.created = append(d.created, desc.Label)
	d.live[id] = desc.Label
	return id, nil
}

func (d *fakeDevice) DestroyPipeline(id gpucore.PipelineID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[id]; !ok {
		return fmt.Errorf("fake: unknown pipeline %d", id)
	}
	delete(d.live, id)
	return nil
}

func (d *fakeDevice) liveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

func TestNewCompilesEveryVariant(t *testing.T) {
	dev := newFakeDevice()
	s, err := hotsort.New(dev, 1, targets.Native32())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Native targets: 4 block-sort, 4 block-clean, 4 flip-merge at scale 1,
	// 1 half-merge at scale 1, 2 fills, 1 transpose.
	if got := s.PipelineCount(); got != 16 {
		t.Fatalf("PipelineCount = %d, want 16", got)
	}
	want := []string{
		"hs_bs_0", "hs_bs_1", "hs_bs_2", "hs_bs_3",
		"hs_bc_0", "hs_bc_1", "hs_bc_2", "hs_bc_3",
		"hs_fm_1_0", "hs_fm_1_1", "hs_fm_1_2", "hs_fm_1_3",
		"hs_hm_1_0",
		"hs_fill_in", "hs_fill_out", "hs_transpose",
	}
	if len(dev.created) != len(want) {
		t.Fatalf("created %d pipelines, want %d", len(dev.created), len(want))
	}
	for i, label := range want {
		if dev.created[i] != label {
			t.Errorf("pipeline %d labeled %q, want %q", i, dev.created[i], label)
		}
	}

	if err := s.Release(dev); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if n := dev.liveCount(); n != 0 {
		t.Fatalf("%d pipelines still live after Release", n)
	}
}

func TestNewNoCompute(t *testing.T) {
	dev := newFakeDevice()
	dev.noCompute = true
	if _, err := hotsort.New(dev, 1, targets.Native32()); !errors.Is(err, hotsort.ErrNoCompute) {
		t.Fatalf("New = %v, want ErrNoCompute", err)
	}
}

func TestNewNilTarget(t *testing.T) {
	if _, err := hotsort.New(newFakeDevice(), 1, nil); !errors.Is(err, hotsort.ErrInvalidConfig) {
		t.Fatalf("New = %v, want ErrInvalidConfig", err)
	}
}

func TestNewCompileFailureUnwinds(t *testing.T) {
	dev := newFakeDevice()
	dev.failAt = 7
	if _, err := hotsort.New(dev, 1, targets.Native32()); err == nil {
		t.Fatal("New succeeded with a failing compiler")
	}
	if n := dev.liveCount(); n != 0 {
		t.Fatalf("%d pipelines leaked after failed New", n)
	}
}

func TestNewModuleCountMismatch(t *testing.T) {
	target := targets.Native32()
	// Append a stray single-word module: the stream stays well-formed but
	// no longer matches the configuration's variant count.
	target.Modules = append(target.Modules, 1, 0)
	if _, err := hotsort.New(newFakeDevice(), 1, target); !errors.Is(err, hotsort.ErrMalformedTarget) {
		t.Fatalf("New = %v, want ErrMalformedTarget", err)
	}
}

func TestReleaseTwice(t *testing.T) {
	dev := newFakeDevice()
	s, err := hotsort.New(dev, 1, targets.Native32())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Release(dev); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := s.Release(dev); !errors.Is(err, hotsort.ErrReleased) {
		t.Fatalf("second Release = %v, want ErrReleased", err)
	}
}

func TestSorterAccessors(t *testing.T) {
	s, err := hotsort.New(newFakeDevice(), 1, targets.Native32Val())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.SlabKeys(); got != 32 {
		t.Errorf("SlabKeys = %d, want 32", got)
	}
	if got := s.KeyValSize(); got != 8 {
		t.Errorf("KeyValSize = %d, want 8", got)
	}
	if cfg := s.Config(); !cfg.InPlace || cfg.Block.Slabs != 8 {
		t.Errorf("Config = %+v", cfg)
	}
}
