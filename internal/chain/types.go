package chain

import "github.com/holiman/uint256"

// Difficulty is a 128-bit-in-practice unsigned integer backed by a uint256,
// matching spec.md §3's "128-bit unsigned integer" data model.
type Difficulty struct {
	v *uint256.Int
}

// NewDifficulty wraps n as a Difficulty.
func NewDifficulty(n uint64) Difficulty {
	return Difficulty{v: uint256.NewInt(n)}
}

// DifficultyFromUint256 wraps an existing uint256.Int by value.
func DifficultyFromUint256(n *uint256.Int) Difficulty {
	return Difficulty{v: new(uint256.Int).Set(n)}
}

// Int returns the underlying uint256.Int; callers must not mutate it.
func (d Difficulty) Int() *uint256.Int {
	if d.v == nil {
		return uint256.NewInt(0)
	}
	return d.v
}

// IsZero reports whether the difficulty is zero (including the unset zero value).
func (d Difficulty) IsZero() bool {
	return d.v == nil || d.v.IsZero()
}

// Add returns d + other, saturating at 2^256-1.
func (d Difficulty) Add(other Difficulty) Difficulty {
	sum := new(uint256.Int)
	_, overflow := sum.AddOverflow(d.Int(), other.Int())
	if overflow {
		return DifficultyFromUint256(new(uint256.Int).SetAllOne())
	}
	return DifficultyFromUint256(sum)
}

// Cmp compares two difficulties.
func (d Difficulty) Cmp(other Difficulty) int {
	return d.Int().Cmp(other.Int())
}

// Encode serializes the difficulty as a big-endian 32-byte value.
func (d Difficulty) Encode() []byte {
	b := d.Int().Bytes32()
	return b[:]
}

// DecodeDifficulty parses a big-endian 32-byte value.
func DecodeDifficulty(b []byte) Difficulty {
	return DifficultyFromUint256(new(uint256.Int).SetBytes(b))
}

// Nonce is the 64-bit PoW witness value.
type Nonce uint64

// Seal is the PoW seal digest payload: {nonce}.
type Seal struct {
	Nonce Nonce
}

// MinerData ("BlockTemplate") carries the mainchain block a p2pool miner is
// also trying to solve, annotated with the mainchain difficulty and the
// seed hash used to mine it.
type MinerData struct {
	Block      Block
	Difficulty Difficulty
	SeedHash   Hash
}

// BlockSubmitParams is the exact wire payload submitted upstream on a
// mainchain-difficulty hit.
type BlockSubmitParams struct {
	Block Block
	Seal  []byte
}

// MiningMetadata is the published mining job.
type MiningMetadata struct {
	BestHash     Hash
	BestNumber   BlockNumber
	PreHash      Hash
	PreRuntime   []byte // nil if no pre-runtime digest was produced this round
	Difficulty   Difficulty
}

// PowAux is the per-block aux record keyed "PoW:"+hash.
type PowAux struct {
	Difficulty      Difficulty
	TotalDifficulty Difficulty
}

// CheckHash reports whether hash meets difficulty: U256(h)*d does not
// overflow 256 bits (spec.md §3, testable property 1).
func CheckHash(hash Hash, difficulty Difficulty) bool {
	h := new(uint256.Int).SetBytes(hash[:])
	product := new(uint256.Int)
	_, overflow := product.MulOverflow(h, difficulty.Int())
	return !overflow
}
