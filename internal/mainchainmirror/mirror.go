// Package mainchainmirror mirrors mainchain headers locally over a
// WebSocket subscription, ported from
// original_source/p2pool/client/consensus/src/mainchain.rs.
package mainchainmirror

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

var errNoHeaderAtHeight = errors.New("mainchainmirror: no header mirrored at that height")

// BlockHeadersRequired caps the retained header window; older headers are
// pruned as new ones arrive (the original's BLOCK_HEADERS_REQUIRED=720).
const BlockHeadersRequired chain.BlockNumber = 720

// Mirror is the in-memory header index, safe for concurrent use.
type Mirror struct {
	mu       sync.RWMutex
	byHeight map[chain.BlockNumber]chain.Header
	byHash   map[chain.Hash]chain.Header
	best     chain.BlockNumber
	hasBest  bool
	log      *zap.Logger
}

// New constructs an empty Mirror.
func New(log *zap.Logger) *Mirror {
	return &Mirror{
		byHeight: make(map[chain.BlockNumber]chain.Header),
		byHash:   make(map[chain.Hash]chain.Header),
		log:      log,
	}
}

// BestHeader returns the header at the highest known height.
func (m *Mirror) BestHeader() (chain.Header, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasBest {
		return chain.Header{}, false
	}
	return m.byHeight[m.best], true
}

// HeaderByHash looks up a mirrored header by hash.
func (m *Mirror) HeaderByHash(hash chain.Hash) (chain.Header, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byHash[hash]
	return h, ok
}

// HeaderByHeight looks up a mirrored header by height.
func (m *Mirror) HeaderByHeight(height chain.BlockNumber) (chain.Header, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byHeight[height]
	return h, ok
}

// HashAtHeight resolves the hash of the mirrored header at height,
// satisfying consensus.SeedSource and miningworker.SeedSource.
func (m *Mirror) HashAtHeight(height chain.BlockNumber) (chain.Hash, error) {
	header, ok := m.HeaderByHeight(height)
	if !ok {
		return chain.Hash{}, errNoHeaderAtHeight
	}
	return header.Hash(), nil
}

// IsMajorSyncing reports whether the mirror has not yet observed any
// mainchain header, satisfying authoring.SyncOracle.
func (m *Mirror) IsMajorSyncing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.hasBest
}

// ImportHeader inserts header into the mirror, logging a reorg if it
// replaces a different header at the same height, and pruning the header
// exactly BlockHeadersRequired below the new height (one height per call).
func (m *Mirror) ImportHeader(header chain.Header) {
	height := header.Number
	hash := header.Hash()

	m.mu.Lock()
	if previous, replaced := m.byHeight[height]; replaced && previous.Hash() != hash {
		m.logInfo("mainchain reorg", height, previous.Hash(), hash)
		delete(m.byHash, previous.Hash())
	}
	m.byHeight[height] = header
	m.byHash[hash] = header
	if !m.hasBest || height > m.best {
		m.best = height
		m.hasBest = true
	}

	if height > BlockHeadersRequired {
		prune := height - BlockHeadersRequired
		if old, ok := m.byHeight[prune]; ok {
			delete(m.byHeight, prune)
			delete(m.byHash, old.Hash())
		}
	}
	m.mu.Unlock()

	m.logImported(height, hash)
}

func (m *Mirror) logInfo(msg string, height chain.BlockNumber, from, to chain.Hash) {
	if m.log != nil {
		m.log.Info(msg, zap.Uint64("height", height), zap.String("from", from.String()), zap.String("to", to.String()))
	}
}

func (m *Mirror) logImported(height chain.BlockNumber, hash chain.Hash) {
	if m.log != nil {
		m.log.Debug("imported mainchain header", zap.Uint64("height", height), zap.String("hash", hash.String()))
	}
}
