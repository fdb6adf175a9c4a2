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

// Package core holds the in-memory chain store. The store is deliberately
// dumb: it validates nothing, the consensus engine owns all validity rules.
// Concurrent access is serialized by the node's state mutex, not here.
package core

import (
	"time"

	log "github.com/inconshreveable/log15"

	"powcoin/consensus/pow"
	"powcoin/core/types"
	"powcoin/params"
)

// Blockchain is an ordered sequence of blocks anchored at a genesis block.
// It is append-only under normal operation and wholesale replaceable during
// reconciliation, and never empty after construction. State is purely in
// memory; a restart regenerates a fresh genesis.
type Blockchain struct {
	blocks []*types.Block
}

// NewBlockchain constructs a chain holding a freshly synthesized genesis
// block: index zero, empty data, all-zero predecessor hash and the seed
// difficulty. The genesis timestamp is the moment of construction, so nodes
// started in different seconds carry different genesis hashes; chain
// selection tolerates this because genesis blocks are checked for form, not
// identity.
func NewBlockchain() *Blockchain {
	genesis := newGenesisBlock(time.Now())
	log.Info("Synthesized genesis block", "hash", genesis.Hash, "difficulty", genesis.Difficulty)
	return &Blockchain{blocks: []*types.Block{genesis}}
}

func newGenesisBlock(timestamp time.Time) *types.Block {
	return &types.Block{
		Index:      0,
		Timestamp:  timestamp,
		Data:       "",
		Hash:       pow.HashBlock(0, types.ZeroHash, timestamp, "", 0),
		PrevHash:   types.ZeroHash,
		Nonce:      0,
		Difficulty: params.GenesisDifficulty,
	}
}

// CurrentBlock returns the head of the chain.
func (bc *Blockchain) CurrentBlock() *types.Block {
	return bc.blocks[len(bc.blocks)-1]
}

// AddBlock appends a block to the chain. The caller has already validated
// it; the store does not re-check.
func (bc *Blockchain) AddBlock(block *types.Block) {
	bc.blocks = append(bc.blocks, block)
}

// Blocks returns a snapshot copy of the chain. Mutating the returned slice
// does not affect the store; the blocks themselves are shared and immutable.
func (bc *Blockchain) Blocks() []*types.Block {
	out := make([]*types.Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// Len returns the number of blocks in the chain.
func (bc *Blockchain) Len() int {
	return len(bc.blocks)
}

// Replace swaps the whole chain for the given one in a single assignment.
// Any partially failed operation around it leaves the store either before or
// after the swap, never in between.
func (bc *Blockchain) Replace(blocks []*types.Block) {
	bc.blocks = blocks
}
