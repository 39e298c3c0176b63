// Package announce validates incoming p2pool block announcements against
// the locally mirrored mainchain height, ported from
// original_source/p2pool/client/consensus/src/block_validation.rs.
package announce

import (
	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

// MainchainToleranceBlocks bounds how far a p2pool block's embedded
// mainchain template height may diverge from the locally observed
// mainchain tip before the announcement is rejected (spec.md §9).
const MainchainToleranceBlocks = 2

// Verdict is the outcome of validating a block announcement.
type Verdict struct {
	Accept     bool
	Disconnect bool
	Reason     string
}

// MainchainTip reports the locally mirrored mainchain best header.
type MainchainTip interface {
	BestHeader() (chain.Header, bool)
}

// Validator validates p2pool block announcements.
type Validator struct {
	Engine chain.EngineID
	Tip    MainchainTip
	Log    *zap.Logger
}

// Validate checks header (with any out-of-band announcement payload in
// extra) against the current mainchain tip tolerance window.
func (v *Validator) Validate(header *chain.Header, extra []byte) Verdict {
	if len(extra) != 0 {
		v.warn("received unknown data alongside a block announcement")
		return Verdict{Accept: false, Disconnect: true, Reason: "unexpected announcement payload"}
	}

	preDigest, foundPre, multiple := header.Digest.FindPreRuntime(v.Engine)
	_, foundSeal := header.Digest.LastSeal(v.Engine)
	if multiple || !foundPre || !foundSeal || preDigest == nil {
		v.warn("received a block announcement without a pre-digest or seal")
		return Verdict{Accept: false, Disconnect: true, Reason: "missing pre-digest or seal"}
	}

	best, ok := v.Tip.BestHeader()
	if !ok {
		return Verdict{Accept: true}
	}

	announcedNumber, err := embeddedMainchainNumber(preDigest)
	if err != nil {
		v.warn("failed to decode embedded mainchain template")
		return Verdict{Accept: false, Disconnect: true, Reason: "undecodable mainchain template"}
	}

	if announcedNumber+MainchainToleranceBlocks < best.Number {
		v.warn("received a block announcement for a stale mainchain template")
		return Verdict{Accept: false, Disconnect: false, Reason: "stale mainchain template"}
	}
	if announcedNumber > best.Number+MainchainToleranceBlocks {
		v.warn("received a block announcement ahead of the mirrored mainchain tip")
		return Verdict{Accept: false, Disconnect: false, Reason: "mainchain template too far ahead"}
	}
	return Verdict{Accept: true}
}

func (v *Validator) warn(msg string) {
	if v.Log != nil {
		v.Log.Warn(msg)
	}
}
