// Package sidechainstore is the p2pool node's own local header index: the
// terminal stage of the import pipeline persists each accepted sidechain
// header here, keyed by hash, and tracks the current best header. It is the
// concrete HeaderSource the PPLNS aggregator and the import pipeline's
// SelectChain walk against, grounded on internal/mainchainmirror's
// map-based header store (same shape, applied to the sidechain instead of
// the mainchain).
package sidechainstore

import (
	"errors"
	"sync"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/blockimport"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

const prefixHeader = "HDR:"
const bestKey = "BEST:sidechain"

var _ blockimport.Inner = (*Store)(nil)
var _ blockimport.SelectChain = (*Store)(nil)

// Store persists sidechain headers and the current best hash in aux, and
// caches the best header in memory for fast lookup.
type Store struct {
	Aux auxstore.Store

	mu   sync.RWMutex
	best chain.Header
	has  bool
}

// ImportBlock persists block's header, and on fork.IsBest updates the
// tracked best header.
func (s *Store) ImportBlock(block chain.Block, aux chain.PowAux, fork blockimport.ForkChoice) error {
	hash := block.Header.Hash()
	if err := s.Aux.Put(prefixHeader+hash.String(), codec.EncodeHeader(block.Header)); err != nil {
		return err
	}
	if !fork.IsBest {
		return nil
	}

	if err := s.Aux.Put(bestKey, hash[:]); err != nil {
		return err
	}
	s.mu.Lock()
	s.best = block.Header
	s.has = true
	s.mu.Unlock()
	return nil
}

// BestHeader returns the current sidechain tip.
func (s *Store) BestHeader() (chain.Header, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		return chain.Header{}, errors.New("sidechainstore: no best header yet")
	}
	return s.best, nil
}

// BestHash returns the sidechain tip's hash, satisfying rpcserver.BestHashSource.
func (s *Store) BestHash() (chain.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		return chain.Hash{}, false
	}
	return s.best.Hash(), true
}

// HeaderByHash looks up a previously imported header, satisfying
// pplns.HeaderSource.
func (s *Store) HeaderByHash(hash chain.Hash) (chain.Header, bool) {
	raw, err := s.Aux.Get(prefixHeader + hash.String())
	if err != nil {
		return chain.Header{}, false
	}
	header, err := codec.DecodeHeader(raw)
	if err != nil {
		return chain.Header{}, false
	}
	return header, true
}

// HeaderByHashErr adapts HeaderByHash to the error-returning signature
// blockimport.Importer.HeaderByHash expects.
func (s *Store) HeaderByHashErr(hash chain.Hash) (chain.Header, error) {
	header, ok := s.HeaderByHash(hash)
	if !ok {
		return chain.Header{}, errors.New("sidechainstore: header not found")
	}
	return header, nil
}
