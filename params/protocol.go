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

package params

import "time"

const (
	// BlockGenerationInterval is the target spacing between blocks. The
	// retarget window compares observed spacing against this value.
	BlockGenerationInterval = 10 * time.Second

	// DifficultyAdjustmentInterval is the number of blocks per retarget
	// window. Difficulty is re-evaluated whenever the head index is a
	// positive multiple of this value.
	DifficultyAdjustmentInterval = 10

	// GenesisDifficulty seeds the chain; every node synthesizes its genesis
	// block with this difficulty at startup.
	GenesisDifficulty = 2

	// MaxClockDrift bounds how far a block timestamp may sit in the future
	// of the validating node's clock, and how far behind its parent. Both
	// comparisons are strict.
	MaxClockDrift = 60 * time.Second
)

const (
	// DefaultHTTPHost is the loopback interface nodes bind by default.
	DefaultHTTPHost = "127.0.0.1"

	// DefaultHTTPPort is used when no port argument is given.
	DefaultHTTPPort = 8080
)
