package pplns

import (
	"testing"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

type fakeHeaderSource struct {
	byHash map[chain.Hash]chain.Header
}

func (f fakeHeaderSource) HeaderByHash(hash chain.Hash) (chain.Header, bool) {
	h, ok := f.byHash[hash]
	return h, ok
}

func authoredHeader(parent chain.Hash, number chain.BlockNumber, author chain.AccountID) chain.Header {
	h := chain.Header{ParentHash: parent, Number: number}
	h.Digest.Push(chain.DigestItem{
		Kind:     chain.DigestPreRuntime,
		EngineID: chain.P2PoolEngineID,
		Data:     codec.EncodeAuthorMinerData(author, nil),
	})
	return h
}

// TestSharesAggregatesFourBlockWindow is spec.md §8's S7 vector: a 4-block
// sidechain [A,B,C,D] with authors [X,Y,X,Z] and share difficulties
// [10,20,30,40] and window_size=10 aggregates to [(X,40),(Y,20),(Z,40)],
// sorted by author key.
func TestSharesAggregatesFourBlockWindow(t *testing.T) {
	genesis := chain.Hash{}
	store := auxstore.NewInMemory()

	var x, y, z chain.AccountID
	x[0], y[0], z[0] = 'X', 'Y', 'Z'

	blockA := authoredHeader(genesis, 1, x)
	hashA := blockA.Hash()
	blockB := authoredHeader(hashA, 2, y)
	hashB := blockB.Hash()
	blockC := authoredHeader(hashB, 3, x)
	hashC := blockC.Hash()
	blockD := authoredHeader(hashC, 4, z)
	hashD := blockD.Hash()

	put := func(hash chain.Hash, difficulty uint64) {
		if err := store.Put(auxstore.PrefixShareDifficulty+hash.String(), chain.NewDifficulty(difficulty).Encode()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	put(hashA, 10)
	put(hashB, 20)
	put(hashC, 30)
	put(hashD, 40)

	chainSrc := fakeHeaderSource{byHash: map[chain.Hash]chain.Header{
		hashA: blockA,
		hashB: blockB,
		hashC: blockC,
		hashD: blockD,
	}}

	agg := &Aggregator{
		Chain:       chainSrc,
		Aux:         store,
		Engine:      chain.P2PoolEngineID,
		GenesisHash: genesis,
		WindowSize:  10,
		SelfAuthor:  x,
	}
	shares := agg.Shares(hashD)

	want := []Share{
		{Author: x, Difficulty: chain.NewDifficulty(40)},
		{Author: y, Difficulty: chain.NewDifficulty(20)},
		{Author: z, Difficulty: chain.NewDifficulty(40)},
	}
	if len(shares) != len(want) {
		t.Fatalf("got %d shares, want %d: %+v", len(shares), len(want), shares)
	}
	for i, w := range want {
		if shares[i].Author != w.Author || shares[i].Difficulty.Cmp(w.Difficulty) != 0 {
			t.Fatalf("share[%d] = %+v, want %+v", i, shares[i], w)
		}
	}
}

func TestSharesSeedsSelfWhenEmpty(t *testing.T) {
	genesis := chain.Hash{}
	store := auxstore.NewInMemory()
	var self chain.AccountID
	self[0] = 'S'

	agg := &Aggregator{
		Chain:       fakeHeaderSource{byHash: map[chain.Hash]chain.Header{}},
		Aux:         store,
		Engine:      chain.P2PoolEngineID,
		GenesisHash: genesis,
		WindowSize:  10,
		SelfAuthor:  self,
	}
	shares := agg.Shares(genesis)
	if len(shares) != 1 || shares[0].Author != self || shares[0].Difficulty.Cmp(chain.NewDifficulty(1)) != 0 {
		t.Fatalf("expected seeded self share, got %+v", shares)
	}
}

func TestSharesAdvancesPastMissingDifficulty(t *testing.T) {
	genesis := chain.Hash{}
	store := auxstore.NewInMemory()
	var x, y chain.AccountID
	x[0], y[0] = 'X', 'Y'

	blockA := authoredHeader(genesis, 1, x)
	hashA := blockA.Hash()
	blockB := authoredHeader(hashA, 2, y)
	hashB := blockB.Hash()

	// Only B has a recorded share difficulty; A's lookup will fail but the
	// walk must still advance past it to genesis instead of looping forever.
	if err := store.Put(auxstore.PrefixShareDifficulty+hashB.String(), chain.NewDifficulty(5).Encode()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chainSrc := fakeHeaderSource{byHash: map[chain.Hash]chain.Header{
		hashA: blockA,
		hashB: blockB,
	}}
	agg := &Aggregator{
		Chain:       chainSrc,
		Aux:         store,
		Engine:      chain.P2PoolEngineID,
		GenesisHash: genesis,
		WindowSize:  10,
		SelfAuthor:  x,
	}

	done := make(chan []Share, 1)
	go func() { done <- agg.Shares(hashB) }()
	shares := <-done

	if len(shares) != 1 || shares[0].Author != y || shares[0].Difficulty.Cmp(chain.NewDifficulty(5)) != 0 {
		t.Fatalf("expected only B's share to be recorded, got %+v", shares)
	}
}
