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

package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ZeroHash is the predecessor hash carried by every genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// HashLength is the length of a hex encoded block digest.
const HashLength = 64

// timestampFormat is the one canonical rendering of a block timestamp. It is
// fed into the hash preimage and emitted on the JSON path; the two must never
// diverge or freshly round-tripped blocks stop validating.
const timestampFormat = "2006-01-02T15:04:05Z"

// Block is an immutable record linking to its predecessor by hash and
// carrying a proof-of-work nonce. Blocks are never mutated after creation;
// the chain grows by appending new ones.
type Block struct {
	Index      uint32
	Timestamp  time.Time
	Data       string
	Hash       string
	PrevHash   string
	Nonce      uint32
	Difficulty uint32
}

// CanonicalTime renders t in the chain's canonical timestamp form: RFC-3339,
// UTC, second resolution.
func CanonicalTime(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// ParseCanonicalTime is the inverse of CanonicalTime. Offsets other than Z
// are accepted on the wire and normalized to UTC.
func ParseCanonicalTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CanonicalTimestamp returns the block's timestamp in its canonical
// rendering, the exact string hashed into the block digest.
func (b *Block) CanonicalTimestamp() string {
	return CanonicalTime(b.Timestamp)
}

// String implements fmt.Stringer, abbreviating the digests for log output.
func (b *Block) String() string {
	return fmt.Sprintf("Block{index: %d, timestamp: %s, data: %q, hash: %s…, prev_hash: %s…}",
		b.Index, b.CanonicalTimestamp(), b.Data, shortHex(b.Hash), shortHex(b.PrevHash))
}

func shortHex(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// blockJSON is the wire form of a Block.
type blockJSON struct {
	Index      uint32 `json:"index"`
	Timestamp  string `json:"timestamp"`
	Data       string `json:"data"`
	Hash       string `json:"hash"`
	PrevHash   string `json:"prev_hash"`
	Nonce      uint32 `json:"nonce"`
	Difficulty uint32 `json:"difficulty"`
}

// MarshalJSON implements json.Marshaler, rendering the timestamp in its
// canonical form.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{
		Index:      b.Index,
		Timestamp:  b.CanonicalTimestamp(),
		Data:       b.Data,
		Hash:       b.Hash,
		PrevHash:   b.PrevHash,
		Nonce:      b.Nonce,
		Difficulty: b.Difficulty,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Block) UnmarshalJSON(input []byte) error {
	var dec blockJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	ts, err := ParseCanonicalTime(dec.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid block timestamp %q: %v", dec.Timestamp, err)
	}
	b.Index = dec.Index
	b.Timestamp = ts
	b.Data = dec.Data
	b.Hash = strings.ToLower(dec.Hash)
	b.PrevHash = strings.ToLower(dec.PrevHash)
	b.Nonce = dec.Nonce
	b.Difficulty = dec.Difficulty
	return nil
}
