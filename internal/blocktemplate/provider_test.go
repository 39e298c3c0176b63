package blocktemplate

import (
	"context"
	"errors"
	"testing"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/pplns"
)

type fakeRPC struct {
	data *chain.MinerData
	err  error
}

func (f fakeRPC) GetMinerData(ctx context.Context, author chain.AccountID, shares []pplns.Share) (*chain.MinerData, error) {
	return f.data, f.err
}

type emptyHeaders struct{}

func (emptyHeaders) HeaderByHash(chain.Hash) (chain.Header, bool) { return chain.Header{}, false }

func TestBlockTemplateReturnsDataOnSuccess(t *testing.T) {
	want := &chain.MinerData{SeedHash: chain.Hash{1}}
	p := &Provider{
		RPC:        fakeRPC{data: want},
		Aggregator: &pplns.Aggregator{Chain: emptyHeaders{}, Aux: auxstore.NewInMemory(), WindowSize: 10},
	}
	got := p.BlockTemplate(context.Background(), chain.Hash{})
	if got != want {
		t.Fatalf("expected the RPC result to be returned unchanged")
	}
}

func TestBlockTemplateReturnsNilOnError(t *testing.T) {
	p := &Provider{
		RPC:        fakeRPC{err: errors.New("boom")},
		Aggregator: &pplns.Aggregator{Chain: emptyHeaders{}, Aux: auxstore.NewInMemory(), WindowSize: 10},
	}
	if got := p.BlockTemplate(context.Background(), chain.Hash{}); got != nil {
		t.Fatalf("expected nil on RPC failure, got %+v", got)
	}
}

func TestLegacyBlockTemplateReadsPersistedAux(t *testing.T) {
	want := &chain.MinerData{SeedHash: chain.Hash{2}}
	aux := auxstore.NewInMemory()
	if err := aux.Put(auxstore.PrefixBlockTemplate, codec.EncodeMinerData(want)); err != nil {
		t.Fatalf("put block template aux: %v", err)
	}
	p := &Provider{Aux: aux}
	got := p.LegacyBlockTemplate(context.Background())
	if got == nil || got.SeedHash != want.SeedHash {
		t.Fatalf("expected the persisted template back, got %+v", got)
	}
}

func TestLegacyBlockTemplateReturnsNilWithoutAux(t *testing.T) {
	p := &Provider{}
	if got := p.LegacyBlockTemplate(context.Background()); got != nil {
		t.Fatalf("expected nil when no aux store is configured, got %+v", got)
	}
}

func TestLegacyBlockTemplateReturnsNilWhenUnset(t *testing.T) {
	p := &Provider{Aux: auxstore.NewInMemory()}
	if got := p.LegacyBlockTemplate(context.Background()); got != nil {
		t.Fatalf("expected nil when no template has been persisted yet, got %+v", got)
	}
}
