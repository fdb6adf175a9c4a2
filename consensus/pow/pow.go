// Copyright 2023 The powcoin Authors
// This file is part of the powcoin library.
//
// The powcoin library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The powcoin library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the powcoin library. If not, see <http://www.gnu.org/licenses/>.

// Package pow implements the proof-of-work consensus rules: the block
// digest, the leading-zero-byte difficulty test, the validity cascade for
// blocks and chains, cumulative-work chain weighing and the rolling
// difficulty retarget.
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	log "github.com/inconshreveable/log15"

	"powcoin/core/types"
	"powcoin/params"
)

const (
	// inmemoryDigests is the number of recently verified block digests kept
	// cached. Repeated update-chain offers mostly re-carry the same blocks,
	// so re-verification skips the hash recomputation.
	inmemoryDigests = 4096
)

var (
	// ErrInvalidIndex is returned when a block does not follow its parent's
	// index by exactly one.
	ErrInvalidIndex = errors.New("invalid block index")

	// ErrInvalidPrevHash is returned when a block does not link to its
	// parent's hash.
	ErrInvalidPrevHash = errors.New("invalid previous hash")

	// ErrHashMismatch is returned when recomputing a block's digest over its
	// fields does not reproduce the carried hash.
	ErrHashMismatch = errors.New("block hash mismatch")

	// ErrInsufficientWork is returned when a block's digest does not carry
	// the leading zero bytes its difficulty demands.
	ErrInsufficientWork = errors.New("insufficient proof of work")

	// ErrTimestampTooOld is returned when a block's timestamp sits 60s or
	// more behind its parent's.
	ErrTimestampTooOld = errors.New("timestamp too far behind parent")

	// ErrFutureBlock is returned when a block's timestamp sits 60s or more
	// ahead of the validating node's clock.
	ErrFutureBlock = errors.New("timestamp too far in the future")

	// ErrInvalidGenesis is returned for chains whose first block is not a
	// well formed genesis block.
	ErrInvalidGenesis = errors.New("malformed genesis block")

	// ErrEmptyChain is returned for chains with no blocks at all.
	ErrEmptyChain = errors.New("empty chain")
)

// Engine implements the proof-of-work consensus rules. The zero value is not
// usable; construct with New.
type Engine struct {
	digests *lru.ARCCache // preimage -> hex digest of recently verified blocks

	// now returns the wall clock used by the temporal rule. Tests swap it
	// for a fixed clock.
	now func() time.Time
}

// New creates a proof-of-work consensus engine.
func New() *Engine {
	digests, _ := lru.NewARC(inmemoryDigests)
	return &Engine{
		digests: digests,
		now:     time.Now,
	}
}

// HashBlock computes the canonical digest over a block's sealed fields: the
// decimal index and nonce, the parent hash, the canonical timestamp
// rendering and the raw data, concatenated in that order with no separators,
// hashed with SHA-256. The digest is returned as 64 lowercase hex characters.
func HashBlock(index uint32, prevHash string, timestamp time.Time, data string, nonce uint32) string {
	return hashPreimage(preimage(index, prevHash, timestamp, data, nonce))
}

func preimage(index uint32, prevHash string, timestamp time.Time, data string, nonce uint32) string {
	return strconv.FormatUint(uint64(index), 10) +
		strconv.FormatUint(uint64(nonce), 10) +
		prevHash +
		types.CanonicalTime(timestamp) +
		data
}

func hashPreimage(pre string) string {
	sum := sha256.Sum256([]byte(pre))
	return hex.EncodeToString(sum[:])
}

// hashBlockCached is the verification-path variant of HashBlock, keyed by
// the full preimage so a cache hit is as trustworthy as a recomputation.
func (e *Engine) hashBlockCached(b *types.Block) string {
	pre := preimage(b.Index, b.PrevHash, b.Timestamp, b.Data, b.Nonce)
	if cached, ok := e.digests.Get(pre); ok {
		return cached.(string)
	}
	digest := hashPreimage(pre)
	e.digests.Add(pre, digest)
	return digest
}

// HashMatchesDifficulty reports whether a hex encoded digest carries at
// least difficulty leading zero bytes. A difficulty exceeding the digest
// length can never match.
func HashMatchesDifficulty(hash string, difficulty uint32) bool {
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	if difficulty > uint32(len(raw)) {
		return false
	}
	for _, b := range raw[:difficulty] {
		if b != 0x00 {
			return false
		}
	}
	return true
}

// CumulativeWork sums 2^difficulty over the given blocks. It is the chain
// selection metric: replacement demands strictly greater work.
func CumulativeWork(blocks []*types.Block) *uint256.Int {
	work := new(uint256.Int)
	term := new(uint256.Int)
	for _, b := range blocks {
		term.Lsh(uint256.NewInt(1), uint(b.Difficulty))
		work.Add(work, term)
	}
	return work
}

// VerifyBlock checks a candidate block against its parent: index and hash
// linkage, digest recomputation, the proof-of-work test and the temporal
// rule. The first failed rule is returned.
func (e *Engine) VerifyBlock(block, parent *types.Block) error {
	if block.Index != parent.Index+1 {
		return ErrInvalidIndex
	}
	if block.PrevHash != parent.Hash {
		return ErrInvalidPrevHash
	}
	if e.hashBlockCached(block) != block.Hash {
		return ErrHashMismatch
	}
	if !HashMatchesDifficulty(block.Hash, block.Difficulty) {
		return ErrInsufficientWork
	}
	return e.verifyTimestamp(block, parent)
}

// verifyTimestamp enforces the loose clock rule: a block must sit strictly
// less than MaxClockDrift behind its parent and strictly less than
// MaxClockDrift ahead of the local clock.
func (e *Engine) verifyTimestamp(block, parent *types.Block) error {
	if !block.Timestamp.After(parent.Timestamp.Add(-params.MaxClockDrift)) {
		return ErrTimestampTooOld
	}
	if block.Timestamp.Sub(e.now()) >= params.MaxClockDrift {
		return ErrFutureBlock
	}
	return nil
}

// VerifyChain checks a whole chain: a well formed genesis block and every
// subsequent block valid against its predecessor. It is a pure predicate;
// failure carries the offending rule and is never fatal to the caller.
func (e *Engine) VerifyChain(blocks []*types.Block) (bool, error) {
	if len(blocks) == 0 {
		return false, ErrEmptyChain
	}
	if blocks[0].Index != 0 || blocks[0].PrevHash != types.ZeroHash {
		return false, ErrInvalidGenesis
	}
	for i := 1; i < len(blocks); i++ {
		if err := e.VerifyBlock(blocks[i], blocks[i-1]); err != nil {
			log.Debug("Chain verification failed", "index", blocks[i].Index, "err", err)
			return false, err
		}
	}
	return true, nil
}

// CalcDifficulty returns the difficulty the next mined block must satisfy.
// At every positive multiple of DifficultyAdjustmentInterval the observed
// pace of the closing window is compared against the target pace and the
// window's opening difficulty is nudged by one, floored at zero. Off the
// boundary the head's difficulty carries forward.
func CalcDifficulty(blocks []*types.Block) uint32 {
	head := blocks[len(blocks)-1]
	if head.Index == 0 || head.Index%params.DifficultyAdjustmentInterval != 0 {
		return head.Difficulty
	}
	return adjustedDifficulty(blocks, head)
}

func adjustedDifficulty(blocks []*types.Block, head *types.Block) uint32 {
	prev := blocks[len(blocks)-params.DifficultyAdjustmentInterval]
	actual := head.Timestamp.Sub(prev.Timestamp)
	expected := params.BlockGenerationInterval * params.DifficultyAdjustmentInterval

	switch {
	case actual < expected/2:
		log.Debug("Raising difficulty", "actual", actual, "expected", expected, "to", prev.Difficulty+1)
		return prev.Difficulty + 1
	case actual > expected*2:
		if prev.Difficulty == 0 {
			return 0
		}
		log.Debug("Lowering difficulty", "actual", actual, "expected", expected, "to", prev.Difficulty-1)
		return prev.Difficulty - 1
	default:
		return prev.Difficulty
	}
}
