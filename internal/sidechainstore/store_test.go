package sidechainstore

import (
	"testing"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/blockimport"
	"github.com/randomx-labs/p2pool-node/internal/chain"
)

func TestImportBlockTracksBestOnlyWhenForkSaysSo(t *testing.T) {
	s := &Store{Aux: auxstore.NewInMemory()}

	blockA := chain.Block{Header: chain.Header{Number: 1}}
	if err := s.ImportBlock(blockA, chain.PowAux{}, blockimport.ForkChoice{IsBest: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.BestHeader(); err == nil {
		t.Fatal("expected no best header yet")
	}

	blockB := chain.Block{Header: chain.Header{Number: 2}}
	if err := s.ImportBlock(blockB, chain.PowAux{}, blockimport.ForkChoice{IsBest: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best, err := s.BestHeader()
	if err != nil || best.Number != 2 {
		t.Fatalf("expected best header number 2, got %+v err=%v", best, err)
	}
}

func TestHeaderByHashRoundTrips(t *testing.T) {
	s := &Store{Aux: auxstore.NewInMemory()}
	block := chain.Block{Header: chain.Header{Number: 5}}
	if err := s.ImportBlock(block, chain.PowAux{}, blockimport.ForkChoice{IsBest: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := s.HeaderByHash(block.Header.Hash())
	if !ok || got.Number != 5 {
		t.Fatalf("expected to find header by hash, got %+v ok=%v", got, ok)
	}

	if _, err := s.HeaderByHashErr(chain.Hash{99}); err == nil {
		t.Fatal("expected an error for an unknown hash")
	}
}

func TestBestHashReflectsBestHeader(t *testing.T) {
	s := &Store{Aux: auxstore.NewInMemory()}
	if _, ok := s.BestHash(); ok {
		t.Fatal("expected no best hash before any import")
	}

	block := chain.Block{Header: chain.Header{Number: 1}}
	if err := s.ImportBlock(block, chain.PowAux{}, blockimport.ForkChoice{IsBest: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash, ok := s.BestHash()
	if !ok || hash != block.Header.Hash() {
		t.Fatal("expected BestHash to match the imported block's hash")
	}
}
