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

package pow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powcoin/core/types"
	"powcoin/params"
)

var testTime = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedEngine returns an engine whose temporal rule evaluates against the
// given clock instead of the wall clock.
func fixedEngine(now time.Time) *Engine {
	e := New()
	e.now = func() time.Time { return now }
	return e
}

func testGenesis(timestamp time.Time) *types.Block {
	return &types.Block{
		Index:      0,
		Timestamp:  timestamp,
		Hash:       HashBlock(0, types.ZeroHash, timestamp, "", 0),
		PrevHash:   types.ZeroHash,
		Difficulty: params.GenesisDifficulty,
	}
}

func TestHashBlockVector(t *testing.T) {
	hash := HashBlock(1, types.ZeroHash, testTime, "hello", 7)
	assert.Equal(t, "aeda162383a99f0f2b2dbb51fee09568fae35cc2274bb9c65e402b17eee6f7f2", hash)
}

func TestHashBlockZoneIndependent(t *testing.T) {
	// The preimage renders the timestamp in UTC, so the carrier zone of the
	// time value must not matter.
	shifted := testTime.In(time.FixedZone("CET", 3600))
	assert.Equal(t, HashBlock(1, types.ZeroHash, testTime, "hello", 7),
		HashBlock(1, types.ZeroHash, shifted, "hello", 7))
}

func TestHashMatchesDifficulty(t *testing.T) {
	zero := types.ZeroHash
	for _, d := range []uint32{0, 5, 10, 32} {
		assert.True(t, HashMatchesDifficulty(zero, d), "difficulty %d", d)
	}
	assert.False(t, HashMatchesDifficulty(zero, 33), "difficulty beyond digest length")

	assert.True(t, HashMatchesDifficulty("00"+strings.Repeat("ff", 31), 1))
	assert.False(t, HashMatchesDifficulty("01"+strings.Repeat("00", 31), 1))
	assert.False(t, HashMatchesDifficulty("not hex", 0))
}

func TestCumulativeWork(t *testing.T) {
	blocks := []*types.Block{
		{Difficulty: 0},
		{Difficulty: 2},
		{Difficulty: 8},
	}
	assert.Equal(t, uint64(1+4+256), CumulativeWork(blocks).Uint64())
}

func TestSealDifficultyZero(t *testing.T) {
	e := New()
	block := e.Seal(1, types.ZeroHash, testTime, "free", 0)
	assert.Equal(t, uint32(0), block.Nonce, "difficulty zero must accept the first nonce")
	assert.Equal(t, HashBlock(1, types.ZeroHash, testTime, "free", 0), block.Hash)
}

func TestSealDeterministic(t *testing.T) {
	e := New()
	block := e.Seal(1, types.ZeroHash, testTime, "block one", 1)

	// The search starts at nonce zero, so the result is a fixed point of the
	// inputs.
	assert.Equal(t, uint32(12), block.Nonce)
	assert.Equal(t, "0072d7e4e77335e50c35899a7a97adeacd9ca7dab79f526a16d20c3d286d2ee9", block.Hash)
	assert.True(t, HashMatchesDifficulty(block.Hash, 1))
}

func TestVerifyBlock(t *testing.T) {
	e := fixedEngine(testTime.Add(30 * time.Second))
	genesis := testGenesis(testTime)
	block := e.Seal(1, genesis.Hash, testTime.Add(10*time.Second), "payload", 1)

	require.NoError(t, e.VerifyBlock(block, genesis))

	tampered := *block
	tampered.Index = 3
	assert.ErrorIs(t, e.VerifyBlock(&tampered, genesis), ErrInvalidIndex)

	tampered = *block
	tampered.PrevHash = types.ZeroHash
	assert.ErrorIs(t, e.VerifyBlock(&tampered, genesis), ErrInvalidPrevHash)

	tampered = *block
	tampered.Data = "forged payload"
	assert.ErrorIs(t, e.VerifyBlock(&tampered, genesis), ErrHashMismatch)

	// Difficulty is not part of the preimage, so inflating it slips past the
	// digest recomputation and must be caught by the proof-of-work test.
	tampered = *block
	tampered.Difficulty = 8
	assert.ErrorIs(t, e.VerifyBlock(&tampered, genesis), ErrInsufficientWork)
}

func TestVerifyBlockTimestamps(t *testing.T) {
	now := testTime
	e := fixedEngine(now)
	genesis := testGenesis(testTime)

	sealAt := func(ts time.Time) *types.Block {
		return e.Seal(1, genesis.Hash, ts, "", 0)
	}

	assert.NoError(t, e.VerifyBlock(sealAt(testTime.Add(50*time.Second)), genesis))
	assert.NoError(t, e.VerifyBlock(sealAt(testTime.Add(-50*time.Second)), genesis))

	assert.ErrorIs(t, e.VerifyBlock(sealAt(testTime.Add(70*time.Second)), genesis), ErrFutureBlock)
	assert.ErrorIs(t, e.VerifyBlock(sealAt(testTime.Add(-70*time.Second)), genesis), ErrTimestampTooOld)

	// Both bounds are strict: exactly 60s ahead of the clock and exactly 60s
	// behind the parent are rejected.
	assert.ErrorIs(t, e.VerifyBlock(sealAt(testTime.Add(60*time.Second)), genesis), ErrFutureBlock)
	assert.ErrorIs(t, e.VerifyBlock(sealAt(testTime.Add(-60*time.Second)), genesis), ErrTimestampTooOld)
}

func TestVerifyChain(t *testing.T) {
	e := fixedEngine(testTime.Add(time.Hour))
	genesis := testGenesis(testTime)

	ok, err := e.VerifyChain([]*types.Block{genesis})
	require.NoError(t, err)
	assert.True(t, ok, "a lone well formed genesis is a valid chain")

	chain := []*types.Block{genesis}
	for i := 1; i <= 4; i++ {
		parent := chain[len(chain)-1]
		ts := parent.Timestamp.Add(10 * time.Second)
		chain = append(chain, e.Seal(parent.Index+1, parent.Hash, ts, "data", 0))
	}
	ok, err = e.VerifyChain(chain)
	require.NoError(t, err)
	assert.True(t, ok)

	forged := make([]*types.Block, len(chain))
	copy(forged, chain)
	bad := *chain[2]
	bad.Data = "rewritten"
	forged[2] = &bad
	ok, err = e.VerifyChain(forged)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrHashMismatch)

	ok, err = e.VerifyChain(nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrEmptyChain)

	notGenesis := *genesis
	notGenesis.PrevHash = strings.Repeat("ab", 32)
	ok, err = e.VerifyChain([]*types.Block{&notGenesis})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidGenesis)
}

// pacedChain builds interval+1 header stubs (indices 0..interval) whose
// blocks are spaced by the given gap. CalcDifficulty only reads indices,
// timestamps and difficulties, so the stubs carry no valid hashes.
func pacedChain(gap time.Duration, windowDifficulty uint32) []*types.Block {
	blocks := make([]*types.Block, params.DifficultyAdjustmentInterval+1)
	for i := range blocks {
		blocks[i] = &types.Block{
			Index:      uint32(i),
			Timestamp:  testTime.Add(time.Duration(i) * gap),
			Difficulty: windowDifficulty,
		}
	}
	return blocks
}

func TestCalcDifficultyOffBoundary(t *testing.T) {
	chain := pacedChain(10*time.Second, 3)

	// One block short of the window: the head difficulty carries forward.
	assert.Equal(t, uint32(3), CalcDifficulty(chain[:params.DifficultyAdjustmentInterval]))
	assert.Equal(t, uint32(3), CalcDifficulty(chain[:2]))
}

func TestCalcDifficultyRetarget(t *testing.T) {
	// Window closed ten times faster than target: raise.
	assert.Equal(t, uint32(4), CalcDifficulty(pacedChain(time.Second, 3)))

	// Window closed three times slower than target: lower.
	assert.Equal(t, uint32(2), CalcDifficulty(pacedChain(30*time.Second, 3)))

	// Lowering floors at zero.
	assert.Equal(t, uint32(0), CalcDifficulty(pacedChain(30*time.Second, 0)))

	// On target: unchanged.
	assert.Equal(t, uint32(3), CalcDifficulty(pacedChain(10*time.Second, 3)))
}

func TestVerifyBlockDigestCache(t *testing.T) {
	e := fixedEngine(testTime.Add(30 * time.Second))
	genesis := testGenesis(testTime)
	block := e.Seal(1, genesis.Hash, testTime.Add(10*time.Second), "cached", 0)

	// Re-verifying the same block must keep succeeding through the digest
	// cache, and a mutated copy must not hit the stale entry.
	require.NoError(t, e.VerifyBlock(block, genesis))
	require.NoError(t, e.VerifyBlock(block, genesis))

	mutated := *block
	mutated.Nonce = block.Nonce + 1
	assert.ErrorIs(t, e.VerifyBlock(&mutated, genesis), ErrHashMismatch)
}
