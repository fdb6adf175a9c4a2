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
	"time"

	log "github.com/inconshreveable/log15"

	"powcoin/core/types"
)

// Seal searches for a nonce satisfying the difficulty test over the given
// sealed fields and returns the finished block. The search starts at nonce
// zero and is deterministic: the same inputs yield the same block. The
// timestamp is the caller's capture at search start and is not refreshed per
// attempt. Expected work is 256^difficulty digests; the search runs until it
// succeeds.
func (e *Engine) Seal(index uint32, prevHash string, timestamp time.Time, data string, difficulty uint32) *types.Block {
	start := time.Now()
	log.Debug("Starting proof-of-work search", "index", index, "difficulty", difficulty)

	for nonce := uint32(0); ; nonce++ {
		hash := HashBlock(index, prevHash, timestamp, data, nonce)
		if !HashMatchesDifficulty(hash, difficulty) {
			continue
		}
		log.Info("Successfully sealed new block", "index", index, "difficulty", difficulty,
			"nonce", nonce, "hash", hash, "elapsed", time.Since(start))
		return &types.Block{
			Index:      index,
			Timestamp:  timestamp,
			Data:       data,
			Hash:       hash,
			PrevHash:   prevHash,
			Nonce:      nonce,
			Difficulty: difficulty,
		}
	}
}
