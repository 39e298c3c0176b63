package difficulty

import (
	"testing"
	"time"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/blockimport"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

type fakeHeaders struct{ headers map[chain.Hash]chain.Header }

func (f fakeHeaders) HeaderByHash(hash chain.Hash) (chain.Header, bool) {
	h, ok := f.headers[hash]
	return h, ok
}

func TestDifficultyAtGenesisReturnsOne(t *testing.T) {
	aux := auxstore.NewInMemory()
	p := NewProvider(aux, fakeHeaders{})

	got, err := p.DifficultyAt(chain.Hash{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int().Uint64() != 1 {
		t.Fatalf("expected difficulty 1 at genesis, got %v", got.Int())
	}
}

func TestDifficultyAtAdjustsByArrivalDelta(t *testing.T) {
	aux := auxstore.NewInMemory()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := &Provider{Aux: aux, Clock: clock}

	grandparent := chain.Hash{1}
	parent := chain.Hash{2}
	header := chain.Header{Number: 2, ParentHash: grandparent}

	p.Headers = fakeHeaders{headers: map[chain.Hash]chain.Header{parent: header}}

	clock.t = time.Unix(1000, 0)
	if err := p.RecordArrival(grandparent); err != nil {
		t.Fatalf("record grandparent: %v", err)
	}
	clock.t = time.Unix(1000+P2PoolTargetBlockTimeSecs+30, 0)
	if err := p.RecordArrival(parent); err != nil {
		t.Fatalf("record parent: %v", err)
	}

	if err := aux.Put(auxstore.PrefixPowAux+parent.String(), codec.EncodePowAux(chain.PowAux{
		Difficulty:      chain.NewDifficulty(1000),
		TotalDifficulty: chain.NewDifficulty(1000),
	})); err != nil {
		t.Fatalf("put pow aux: %v", err)
	}

	next, err := p.DifficultyAt(parent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// blocks arrived slower than target, so difficulty should ease down.
	if next.Int().Uint64() >= 1000 {
		t.Fatalf("expected difficulty to decrease below 1000, got %v", next.Int())
	}
}

func TestDifficultyAtMissingParentHeaderErrors(t *testing.T) {
	aux := auxstore.NewInMemory()
	parent := chain.Hash{3}
	if err := aux.Put(auxstore.PrefixPowAux+parent.String(), codec.EncodePowAux(chain.PowAux{
		Difficulty: chain.NewDifficulty(500),
	})); err != nil {
		t.Fatalf("put pow aux: %v", err)
	}

	p := NewProvider(aux, fakeHeaders{})
	if _, err := p.DifficultyAt(parent); err == nil {
		t.Fatal("expected an error when parent header is missing")
	}
}

type fakeInner struct {
	calls int
	last  chain.Block
}

func (f *fakeInner) ImportBlock(block chain.Block, _ chain.PowAux, _ blockimport.ForkChoice) error {
	f.calls++
	f.last = block
	return nil
}

func TestImportBlockStampsArrivalAndDelegates(t *testing.T) {
	aux := auxstore.NewInMemory()
	clock := &fakeClock{t: time.Unix(42, 0)}
	inner := &fakeInner{}
	p := &Provider{Aux: aux, Clock: clock, Next: inner}

	block := chain.Block{Header: chain.Header{Number: 7}}
	if err := p.ImportBlock(block, chain.PowAux{}, blockimport.ForkChoice{IsBest: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected Next to be called once, got %d", inner.calls)
	}

	got, err := p.readArrival(block.Header.Hash())
	if err != nil {
		t.Fatalf("read arrival: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected arrival time 42, got %d", got)
	}
}

func TestImportBlockWithoutNextSucceeds(t *testing.T) {
	p := &Provider{Aux: auxstore.NewInMemory(), Clock: &fakeClock{t: time.Unix(1, 0)}}
	if err := p.ImportBlock(chain.Block{}, chain.PowAux{}, blockimport.ForkChoice{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordArrivalIsIdempotent(t *testing.T) {
	aux := auxstore.NewInMemory()
	clock := &fakeClock{t: time.Unix(500, 0)}
	p := &Provider{Aux: aux, Clock: clock}

	h := chain.Hash{9}
	if err := p.RecordArrival(h); err != nil {
		t.Fatalf("first record: %v", err)
	}
	clock.t = time.Unix(999, 0)
	if err := p.RecordArrival(h); err != nil {
		t.Fatalf("second record: %v", err)
	}

	got, err := p.readArrival(h)
	if err != nil {
		t.Fatalf("read arrival: %v", err)
	}
	if got != 500 {
		t.Fatalf("expected first recorded time 500 to stick, got %d", got)
	}
}
