package difficulty

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/blockimport"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

// PrefixArrival is the aux key namespace for the wall-clock time a header's
// PoW aux record was first observed. Neither chain.Header nor chain.PowAux
// carries a timestamp, so Update's deltaSecs input has to come from
// somewhere outside the header itself; this is that somewhere.
const PrefixArrival = "ARR:"

// Clock abstracts wall-clock time so tests can drive it deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// HeaderSource resolves a previously accepted header by hash, satisfied by
// both internal/mainchainmirror.Mirror and internal/sidechainstore.Store.
type HeaderSource interface {
	HeaderByHash(hash chain.Hash) (chain.Header, bool)
}

// Provider implements consensus.DifficultyProvider against the shared WTEMA
// rule in this package. RecordArrival is called from ImportBlock, once per
// block passed through the import pipeline the Provider is chained into
// (the mainchain mirror does not call it), and DifficultyAt reads back the
// two arrival times the rule needs.
type Provider struct {
	Aux     auxstore.Store
	Headers HeaderSource
	Clock   Clock

	// TargetSecs is the chain's WTEMA target block time. Defaults to
	// P2PoolTargetBlockTimeSecs: NewProvider backs the p2pool import chain,
	// the only consumer wired into cmd/p2pool-node. Set to
	// MainchainTargetBlockTimeSecs if a Provider is ever built for the
	// mainchain side.
	TargetSecs int64

	// Next, if set, makes Provider double as the terminal link of an
	// import chain: ImportBlock stamps the arrival time for the block it
	// is handed, then delegates. nil means Provider is used standalone,
	// only as a DifficultyProvider.
	Next blockimport.Inner
}

var _ blockimport.Inner = (*Provider)(nil)

// NewProvider builds a Provider backed by the system clock, targeting the
// p2pool sidechain's block time.
func NewProvider(aux auxstore.Store, headers HeaderSource) *Provider {
	return &Provider{Aux: aux, Headers: headers, Clock: systemClock{}, TargetSecs: P2PoolTargetBlockTimeSecs}
}

// ImportBlock stamps the arrival time of block's header before delegating
// to Next, letting Provider sit in an import pipeline (e.g. chained after
// p2poolimport.Extension, ahead of sidechainstore.Store) without a
// separate wiring step to call RecordArrival.
func (p *Provider) ImportBlock(block chain.Block, aux chain.PowAux, fork blockimport.ForkChoice) error {
	if err := p.RecordArrival(block.Header.Hash()); err != nil {
		return err
	}
	if p.Next == nil {
		return nil
	}
	return p.Next.ImportBlock(block, aux, fork)
}

// RecordArrival stamps hash's first-seen wall-clock time. Safe to call more
// than once; only the first call for a given hash sticks.
func (p *Provider) RecordArrival(hash chain.Hash) error {
	key := PrefixArrival + hash.String()
	ok, err := p.Aux.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return p.Aux.Put(key, encodeUnix(p.Clock.Now()))
}

// DifficultyAt resolves the difficulty a child of parent must meet: parent's
// own recorded difficulty adjusted by the observed arrival delta between
// parent and its own parent. Implements consensus.DifficultyProvider.
func (p *Provider) DifficultyAt(parent chain.Hash) (chain.Difficulty, error) {
	parentAux, err := p.readPowAux(parent)
	if err != nil {
		return chain.Difficulty{}, err
	}
	if parentAux.Difficulty.IsZero() {
		// No PoW aux recorded for parent yet: genesis case.
		return chain.NewDifficulty(1), nil
	}

	header, ok := p.Headers.HeaderByHash(parent)
	if !ok {
		return chain.Difficulty{}, errors.New("difficulty: parent header not found")
	}

	delta := p.arrivalDelta(parent, header.ParentHash)
	return Update(parentAux.Difficulty, p.targetSecs(), delta), nil
}

func (p *Provider) targetSecs() int64 {
	if p.TargetSecs > 0 {
		return p.TargetSecs
	}
	return P2PoolTargetBlockTimeSecs
}

func (p *Provider) arrivalDelta(parent, grandparent chain.Hash) int64 {
	parentTime, err := p.readArrival(parent)
	if err != nil {
		return p.targetSecs()
	}
	grandTime, err := p.readArrival(grandparent)
	if err != nil {
		return p.targetSecs()
	}
	delta := parentTime - grandTime
	if delta < 1 {
		delta = 1
	}
	return delta
}

func (p *Provider) readPowAux(hash chain.Hash) (chain.PowAux, error) {
	raw, err := p.Aux.Get(auxstore.PrefixPowAux + hash.String())
	if err != nil {
		if errors.Is(err, auxstore.ErrNotFound) {
			return chain.PowAux{}, nil
		}
		return chain.PowAux{}, err
	}
	return codec.DecodePowAux(raw)
}

func (p *Provider) readArrival(hash chain.Hash) (int64, error) {
	raw, err := p.Aux.Get(PrefixArrival + hash.String())
	if err != nil {
		return 0, err
	}
	return decodeUnix(raw), nil
}

func encodeUnix(t time.Time) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t.Unix()))
	return b
}

func decodeUnix(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
